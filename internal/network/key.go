package network

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/hashstructure/v2"

	"github.com/opmodel/capsule/internal/capsule"
	"github.com/opmodel/capsule/internal/component"
	oerrors "github.com/opmodel/capsule/internal/errors"
)

// ResourceKey locates a capsule on disk and in the pool.
type ResourceKey struct {
	// WorkDir is <baseDir>/<token>_<suffix>.
	WorkDir string

	// ResourceID is "<component id>_<hash of WorkDir>", the pool cache key.
	ResourceID string
}

// DeriveResourceKey computes the capsule location for id. Options are
// normalized first, so option sets that differ only in omitted versus
// explicit defaults map to the same key. Without AlwaysNew the result is
// deterministic across processes.
func DeriveResourceKey(id component.ID, opts capsule.Options, orch capsule.OrchestrationOptions) (ResourceKey, error) {
	opts = opts.WithDefaults()

	suffix, err := keySuffix(opts, orch)
	if err != nil {
		return ResourceKey{}, err
	}

	workDir := filepath.Join(opts.BaseDir, id.Sanitize()+"_"+suffix)
	dirHash, err := hashstructure.Hash(workDir, hashstructure.FormatV2, nil)
	if err != nil {
		return ResourceKey{}, fmt.Errorf("hashing working directory: %w", err)
	}

	return ResourceKey{
		WorkDir:    workDir,
		ResourceID: fmt.Sprintf("%s_%016x", id, dirHash),
	}, nil
}

func keySuffix(opts capsule.Options, orch capsule.OrchestrationOptions) (string, error) {
	switch {
	case orch.AlwaysNew:
		return uuid.NewString(), nil
	case orch.Name != "":
		if strings.ContainsAny(orch.Name, `/\`) || orch.Name == "." || orch.Name == ".." {
			return "", oerrors.NewValidationError(
				fmt.Sprintf("capsule name %q must be a single path element", orch.Name), "", "")
		}
		return orch.Name, nil
	default:
		h, err := hashstructure.Hash(opts, hashstructure.FormatV2, nil)
		if err != nil {
			return "", fmt.Errorf("hashing capsule options: %w", err)
		}
		return fmt.Sprintf("%016x", h), nil
	}
}
