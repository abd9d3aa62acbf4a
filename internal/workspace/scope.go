package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	oerrors "github.com/opmodel/capsule/internal/errors"
	"github.com/opmodel/capsule/internal/graph"
)

// Scope is a graph.Source backed by a directory of exported component
// manifests, one component per *.yaml file with inline files.
type Scope struct {
	fs  afero.Fs
	dir string
}

// NewScope returns a scope source for dir.
func NewScope(fsys afero.Fs, dir string) *Scope {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Scope{fs: fsys, dir: dir}
}

// Graph implements graph.Source.
func (s *Scope) Graph(ctx context.Context) (*graph.Graph, error) {
	return LoadScope(ctx, s.fs, s.dir)
}

// LoadScope reads every *.yaml and *.yml file in dir, in name order.
func LoadScope(ctx context.Context, fsys afero.Fs, dir string) (*graph.Graph, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, oerrors.NewNotFoundError("scope directory not found", dir, "pass --scope-dir")
		}
		return nil, fmt.Errorf("reading scope: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	g := graph.New()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := filepath.Join(dir, e.Name())
		data, err := afero.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}

		var spec componentSpec
		if err := decodeStrict(data, &spec); err != nil {
			return nil, oerrors.NewValidationError(err.Error(), p, "")
		}
		c, err := spec.toComponent()
		if err != nil {
			return nil, oerrors.NewValidationError(err.Error(), p, "")
		}
		c.Files = inlineFiles(spec.Files)
		c.Dists = inlineFiles(spec.Dists)

		if err := g.AddComponent(c); err != nil {
			return nil, oerrors.NewValidationError(err.Error(), p, "component ids must be unique")
		}
	}
	return g, nil
}
