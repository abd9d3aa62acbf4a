package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/opmodel/capsule/internal/component"
	oerrors "github.com/opmodel/capsule/internal/errors"
	"github.com/opmodel/capsule/internal/graph"
	"github.com/opmodel/capsule/internal/output"
)

// DefaultManifest is the workspace manifest file name.
const DefaultManifest = "capsule.workspace.yaml"

// distDir holds build outputs inside a component root.
const distDir = "dist"

// skipDirs are never read as component files.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
}

// Workspace is a graph.Source backed by a workspace manifest.
type Workspace struct {
	fs   afero.Fs
	path string
}

// New returns a workspace source for the manifest at path.
func New(fsys afero.Fs, path string) *Workspace {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Workspace{fs: fsys, path: path}
}

// Graph implements graph.Source.
func (w *Workspace) Graph(ctx context.Context) (*graph.Graph, error) {
	return Load(ctx, w.fs, w.path)
}

// Load reads the workspace manifest at manifestPath and every component's
// files. File paths keep their rootDir prefix, relative to the manifest
// directory; files under <rootDir>/dist become dists.
func Load(ctx context.Context, fsys afero.Fs, manifestPath string) (*graph.Graph, error) {
	data, err := afero.ReadFile(fsys, manifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, oerrors.NewNotFoundError("workspace manifest not found", manifestPath, "create "+DefaultManifest+" or pass --workspace-file")
		}
		return nil, fmt.Errorf("reading workspace manifest: %w", err)
	}

	var m manifest
	if err := decodeStrict(data, &m); err != nil {
		return nil, oerrors.NewValidationError(err.Error(), manifestPath, "")
	}

	base := filepath.Dir(manifestPath)
	g := graph.New()
	for _, spec := range m.Components {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c, err := spec.toComponent()
		if err != nil {
			return nil, oerrors.NewValidationError(err.Error(), manifestPath, "")
		}

		root := path.Clean(filepath.ToSlash(spec.RootDir))
		if err := readRoot(fsys, base, root, c); err != nil {
			return nil, fmt.Errorf("reading %s: %w", c.ID, err)
		}
		if c.Main != "" {
			c.Main = path.Join(root, c.Main)
		}

		if err := g.AddComponent(c); err != nil {
			return nil, oerrors.NewValidationError(err.Error(), manifestPath, "component ids must be unique")
		}
		output.Debug("loaded component", "component", c.ID.String(), "files", len(c.Files), "dists", len(c.Dists))
	}
	return g, nil
}

// readRoot fills c.Files and c.Dists from base/root.
func readRoot(fsys afero.Fs, base, root string, c *component.Component) error {
	dir := filepath.Join(base, filepath.FromSlash(root))
	ok, err := afero.DirExists(fsys, dir)
	if err != nil {
		return err
	}
	if !ok {
		return oerrors.NewNotFoundError("component root not found", dir, "")
	}

	return afero.Walk(fsys, dir, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p != dir && skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		content, err := afero.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		f := component.File{Path: path.Join(root, rel), Content: content}
		if rel == distDir || strings.HasPrefix(rel, distDir+"/") {
			c.Dists = append(c.Dists, f)
		} else {
			c.Files = append(c.Files, f)
		}
		return nil
	})
}
