package writer

import (
	"encoding/json"
	"fmt"
	"path"

	"github.com/opmodel/capsule/internal/component"
)

type manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Main            string            `json:"main,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
}

type config struct {
	ID           string            `json:"id"`
	Main         string            `json:"main,omitempty"`
	Dependencies []string          `json:"dependencies,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// marshal renders indented JSON. Map keys are sorted, so equal inputs give
// byte-identical manifests across builds.
func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func packageJSON(item ComponentWithDependencies, opts Options) ([]byte, error) {
	c := item.Component
	m := manifest{
		Name:    PackageName(c.ID, opts.ExcludeRegistryPrefix),
		Version: versionOf(c.ID),
		Main:    c.Main,
	}

	add := func(dst *map[string]string, deps []*component.Component) error {
		for _, dep := range deps {
			spec, err := specifier(dep.ID, opts)
			if err != nil {
				return err
			}
			if *dst == nil {
				*dst = make(map[string]string)
			}
			(*dst)[PackageName(dep.ID, opts.ExcludeRegistryPrefix)] = spec
		}
		return nil
	}
	if err := add(&m.Dependencies, item.Dependencies); err != nil {
		return nil, err
	}
	if err := add(&m.DevDependencies, item.DevDependencies); err != nil {
		return nil, err
	}
	if err := add(&m.DevDependencies, item.ExtraDependencies); err != nil {
		return nil, err
	}

	return marshal(m)
}

// specifier returns the dependency version range written to package.json.
func specifier(id component.ID, opts Options) (string, error) {
	switch {
	case opts.WriteBitDependencies:
		return "file:./" + path.Join(DependenciesDir, id.Sanitize()), nil
	case opts.SaveDependenciesAsComponents:
		dir, ok := opts.CapsulePaths[id.String()]
		if !ok || dir == "" {
			return "", fmt.Errorf("no capsule for %s", id)
		}
		return "file:" + dir, nil
	case id.Version != "":
		return id.Version, nil
	default:
		return "*", nil
	}
}

func configJSON(c *component.Component, extra map[string]string) ([]byte, error) {
	cfg := config{ID: c.ID.String(), Main: c.Main, Extra: extra}
	for _, dep := range c.AllDependencies() {
		cfg.Dependencies = append(cfg.Dependencies, dep.String())
	}
	return marshal(cfg)
}
