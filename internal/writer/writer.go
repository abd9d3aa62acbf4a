// Package writer produces the in-memory file set that is persisted into a
// capsule: a component's own sources, its generated manifest and config, and
// the link shims that wire it to its dependency capsules.
package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/opmodel/capsule/internal/capsule"
	"github.com/opmodel/capsule/internal/component"
	"github.com/opmodel/capsule/internal/output"
)

// RegistryScope is prepended to generated package names unless excluded.
const RegistryScope = "@capsule"

// ConfigFile is the component description written when WriteConfig is set.
const ConfigFile = "component.json"

// DependenciesDir holds copied dependency sources when WriteBitDependencies is set.
const DependenciesDir = ".dependencies"

// Options controls what PopulateFiles and ComputeLinks emit.
type Options struct {
	// WritePath is the root all emitted paths are joined to. "." targets the capsule root.
	WritePath string

	WriteDists                   bool
	WriteBitDependencies         bool
	WritePackageJSON             bool
	WriteConfig                  bool
	CreateNpmLinkFiles           bool
	SaveDependenciesAsComponents bool
	ExcludeRegistryPrefix        bool

	// CapsulePaths maps a component id string to its capsule working directory.
	CapsulePaths map[string]string

	// Extra is passed through untouched into component.json.
	Extra map[string]string
}

// NewOptions derives writer options from normalized capsule options.
func NewOptions(opts capsule.Options, writePath string, paths map[string]string) Options {
	return Options{
		WritePath:                    writePath,
		WriteDists:                   opts.Dists(),
		WriteBitDependencies:         opts.BitDependencies(),
		WritePackageJSON:             opts.PackageJSON(),
		WriteConfig:                  opts.Config(),
		CreateNpmLinkFiles:           opts.NpmLinks(),
		SaveDependenciesAsComponents: opts.DependenciesAsComponents(),
		ExcludeRegistryPrefix:        opts.NoRegistryPrefix(),
		CapsulePaths:                 paths,
		Extra:                        opts.Extra,
	}
}

// ComponentWithDependencies is one unit of work for PopulateFiles.
type ComponentWithDependencies struct {
	Component *component.Component

	// Dependencies are runtime dependencies found in the graph.
	Dependencies []*component.Component

	// DevDependencies are dev dependencies found in the graph.
	DevDependencies []*component.Component

	// ExtraDependencies are compiler and tester dependencies found in the graph.
	ExtraDependencies []*component.Component
}

// All returns every dependency in declaration order: runtime, dev, extra.
func (c ComponentWithDependencies) All() []*component.Component {
	out := make([]*component.Component, 0, len(c.Dependencies)+len(c.DevDependencies)+len(c.ExtraDependencies))
	out = append(out, c.Dependencies...)
	out = append(out, c.DevDependencies...)
	out = append(out, c.ExtraDependencies...)
	return out
}

// Writer renders component file sets.
type Writer struct{}

// New creates a Writer.
func New() *Writer {
	return &Writer{}
}

// PopulateFiles sets FilesToPersist on every component in batch and returns
// the components in batch order. The components are modified in place.
func (w *Writer) PopulateFiles(ctx context.Context, batch []ComponentWithDependencies, opts Options) ([]*component.Component, error) {
	if opts.WritePath == "" {
		return nil, fmt.Errorf("write path must not be empty")
	}

	out := make([]*component.Component, 0, len(batch))
	for _, item := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := item.Component
		if c == nil {
			continue
		}

		files, err := w.render(item, opts)
		if err != nil {
			return nil, fmt.Errorf("populating %s: %w", c.ID, err)
		}
		c.FilesToPersist = files
		out = append(out, c)

		output.Debug("populated component files", "component", c.ID.String(), "files", len(files))
	}
	return out, nil
}

func (w *Writer) render(item ComponentWithDependencies, opts Options) ([]component.File, error) {
	c := item.Component
	var files []component.File

	emit := func(p string, content []byte) {
		files = append(files, component.File{
			Path:    path.Join(opts.WritePath, p),
			Content: append([]byte(nil), content...),
		})
	}

	for _, f := range c.Files {
		emit(f.Path, f.Content)
	}
	if opts.WriteDists {
		for _, f := range c.Dists {
			emit(f.Path, f.Content)
		}
	}

	if opts.WritePackageJSON {
		data, err := packageJSON(item, opts)
		if err != nil {
			return nil, err
		}
		emit(capsule.ManifestFile, data)
	}

	if opts.WriteConfig {
		data, err := configJSON(c, opts.Extra)
		if err != nil {
			return nil, err
		}
		emit(ConfigFile, data)
	}

	if opts.WriteBitDependencies {
		for _, dep := range item.All() {
			root := path.Join(DependenciesDir, dep.ID.Sanitize())
			for _, f := range dep.Files {
				emit(path.Join(root, f.Path), f.Content)
			}
			if opts.WriteDists {
				for _, f := range dep.Dists {
					emit(path.Join(root, f.Path), f.Content)
				}
			}
			data, err := marshal(manifest{
				Name:    PackageName(dep.ID, opts.ExcludeRegistryPrefix),
				Version: versionOf(dep.ID),
				Main:    dep.Main,
			})
			if err != nil {
				return nil, err
			}
			emit(path.Join(root, capsule.ManifestFile), data)
		}
	}

	return files, nil
}

// ComputeLinks is the method form of the package-level ComputeLinks.
func (w *Writer) ComputeLinks(c *component.Component, deps []*component.Component, opts Options) ([]component.File, error) {
	return ComputeLinks(c, deps, opts)
}

// ComputeLinks returns the node_modules shims that make every dependency
// resolvable from c's capsule. It returns nil when link files are disabled.
func ComputeLinks(c *component.Component, deps []*component.Component, opts Options) ([]component.File, error) {
	if !opts.CreateNpmLinkFiles {
		return nil, nil
	}

	root := opts.WritePath
	if root == "" {
		root = "."
	}

	var files []component.File
	for _, dep := range deps {
		pkg := PackageName(dep.ID, opts.ExcludeRegistryPrefix)
		dir := path.Join("node_modules", pkg)

		target, err := linkTarget(dep.ID, dir, opts)
		if err != nil {
			return nil, fmt.Errorf("linking %s to %s: %w", c.ID, dep.ID, err)
		}

		manifestData, err := marshal(manifest{Name: pkg, Version: versionOf(dep.ID), Main: "index.js"})
		if err != nil {
			return nil, err
		}
		quoted, err := json.Marshal(target)
		if err != nil {
			return nil, err
		}

		files = append(files,
			component.File{Path: path.Join(root, dir, capsule.ManifestFile), Content: manifestData},
			component.File{Path: path.Join(root, dir, "index.js"), Content: []byte("module.exports = require(" + string(quoted) + ");\n")},
		)
	}
	return files, nil
}

func linkTarget(id component.ID, dir string, opts Options) (string, error) {
	if opts.WriteBitDependencies {
		up := strings.Repeat("../", strings.Count(dir, "/")+1)
		return up + path.Join(DependenciesDir, id.Sanitize()), nil
	}
	target, ok := opts.CapsulePaths[id.String()]
	if !ok || target == "" {
		return "", fmt.Errorf("no capsule for %s", id)
	}
	return target, nil
}

// PackageName returns the package name a component is published under inside
// capsules: "pkg/a" becomes "@capsule/pkg.a", or "pkg.a" without the scope.
func PackageName(id component.ID, excludeRegistryPrefix bool) string {
	name := strings.ReplaceAll(strings.TrimPrefix(id.Name, "@"), "/", ".")
	if excludeRegistryPrefix {
		return name
	}
	return RegistryScope + "/" + name
}

func versionOf(id component.ID) string {
	if id.Version == "" {
		return "0.0.0"
	}
	return id.Version
}
