// Package workspace loads component graphs from a workspace manifest or from
// a scope directory of exported component manifests.
package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/opmodel/capsule/internal/component"
)

// componentSpec is the YAML shape shared by workspace entries and scope files.
type componentSpec struct {
	Name                 string     `yaml:"name"`
	Version              string     `yaml:"version,omitempty"`
	RootDir              string     `yaml:"rootDir,omitempty"`
	Main                 string     `yaml:"main,omitempty"`
	Dependencies         []string   `yaml:"dependencies,omitempty"`
	DevDependencies      []string   `yaml:"devDependencies,omitempty"`
	CompilerDependencies []string   `yaml:"compilerDependencies,omitempty"`
	TesterDependencies   []string   `yaml:"testerDependencies,omitempty"`
	Files                []fileSpec `yaml:"files,omitempty"`
	Dists                []fileSpec `yaml:"dists,omitempty"`
}

type fileSpec struct {
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
}

type manifest struct {
	Components []componentSpec `yaml:"components"`
}

// decodeStrict decodes YAML rejecting unknown fields. Empty input decodes to the zero value.
func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// toComponent converts the entry's identity and dependency lists.
// Files are filled by the caller.
func (s componentSpec) toComponent() (*component.Component, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("component name is required")
	}
	raw := s.Name
	if s.Version != "" {
		raw += "@" + s.Version
	}
	id, err := component.ParseID(raw)
	if err != nil {
		return nil, err
	}

	c := &component.Component{ID: id, Main: s.Main}
	lists := []struct {
		dst *[]component.ID
		src []string
	}{
		{&c.Dependencies, s.Dependencies},
		{&c.DevDependencies, s.DevDependencies},
		{&c.CompilerDependencies, s.CompilerDependencies},
		{&c.TesterDependencies, s.TesterDependencies},
	}
	for _, l := range lists {
		ids, err := component.ParseIDs(l.src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		*l.dst = ids
	}
	return c, nil
}

func inlineFiles(specs []fileSpec) []component.File {
	if len(specs) == 0 {
		return nil
	}
	out := make([]component.File, len(specs))
	for i, f := range specs {
		out[i] = component.File{Path: f.Path, Content: []byte(f.Content)}
	}
	return out
}
