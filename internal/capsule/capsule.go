// Package capsule provides isolated sandbox directories ("capsules") and the pool
// that creates or reuses them by resource id.
package capsule

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"path"

	"github.com/spf13/afero"

	"github.com/opmodel/capsule/internal/component"
)

// ManifestFile is the package manifest at the capsule root.
const ManifestFile = "package.json"

// Capsule is a handle to one component's sandbox directory.
// The pool owns its lifetime; builders only hold references for one build.
type Capsule struct {
	// WorkDir is the capsule's absolute working directory.
	WorkDir string

	// Workspace is the pool the capsule was acquired from.
	Workspace string

	// ComponentID is the component materialized into the capsule.
	ComponentID component.ID

	// ResourceID is the pool cache key the capsule was acquired under.
	ResourceID string

	// FS is rooted at WorkDir; paths are relative to the capsule root.
	FS afero.Fs

	// Reused is true when the directory already existed when the pool opened it.
	Reused bool
}

// ReadFile reads a file relative to the capsule root.
func (c *Capsule) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(c.FS, name)
}

// WriteFile writes a file relative to the capsule root, creating parent
// directories. Files not written are left untouched.
func (c *Capsule) WriteFile(name string, data []byte) error {
	if dir := path.Dir(name); dir != "." && dir != "/" {
		if err := c.FS.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return afero.WriteFile(c.FS, name, data, 0o644)
}

// Exists reports whether name exists in the capsule.
func (c *Capsule) Exists(name string) (bool, error) {
	_, err := c.FS.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Command prepares a command that runs inside the capsule's working directory.
func (c *Capsule) Command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = c.WorkDir
	return cmd
}
