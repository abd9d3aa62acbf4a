package capsule

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	oerrors "github.com/opmodel/capsule/internal/errors"
)

// DefaultWorkspace is the pool namespace used when none is configured.
const DefaultWorkspace = "default"

// DefaultPackageManager is used when no package manager override is set.
const DefaultPackageManager = "npm"

// SupportedPackageManagers lists the package managers an install can run with.
var SupportedPackageManagers = []string{"npm", "yarn", "pnpm", "bun"}

// Options configures how capsules are laid out, populated and installed.
//
// Boolean options whose default is true are pointers so an omitted value can
// be told apart from an explicit false. Call WithDefaults before hashing or
// reading them: two option sets that differ only in omitted vs explicit
// defaults normalize to the same value.
type Options struct {
	// BaseDir is the root directory for all capsules. Default: os.TempDir().
	BaseDir string `json:"baseDir,omitempty" mapstructure:"baseDir"`

	// Workspace is the logical pool namespace. Default: "default".
	Workspace string `json:"workspace,omitempty" mapstructure:"workspace"`

	// PackageManager overrides the package manager used for installs. Default: npm.
	PackageManager string `json:"packageManager,omitempty" mapstructure:"packageManager"`

	// InstallPackages gates the install step entirely. Default: true.
	InstallPackages *bool `json:"installPackages,omitempty" mapstructure:"installPackages"`

	// WriteDists writes dist files next to sources. Default: true.
	WriteDists *bool `json:"writeDists,omitempty" mapstructure:"writeDists"`

	// WriteBitDependencies copies dependency files into the capsule under
	// .dependencies/ instead of linking to the dependency capsules. Default: false.
	WriteBitDependencies *bool `json:"writeBitDependencies,omitempty" mapstructure:"writeBitDependencies"`

	// WritePackageJSON generates the capsule's package.json. Default: true.
	WritePackageJSON *bool `json:"writePackageJson,omitempty" mapstructure:"writePackageJson"`

	// WriteConfig writes component.json describing the component. Default: false.
	WriteConfig *bool `json:"writeConfig,omitempty" mapstructure:"writeConfig"`

	// CreateNpmLinkFiles generates node_modules link shims for dependencies. Default: true.
	CreateNpmLinkFiles *bool `json:"createNpmLinkFiles,omitempty" mapstructure:"createNpmLinkFiles"`

	// SaveDependenciesAsComponents writes file: specifiers pointing at
	// dependency capsules instead of registry versions. Default: true.
	SaveDependenciesAsComponents *bool `json:"saveDependenciesAsComponents,omitempty" mapstructure:"saveDependenciesAsComponents"`

	// ExcludeRegistryPrefix drops the registry scope from generated package names. Default: false.
	ExcludeRegistryPrefix *bool `json:"excludeRegistryPrefix,omitempty" mapstructure:"excludeRegistryPrefix"`

	// SilentPackageManagerResult discards package manager output. Default: false.
	SilentPackageManagerResult *bool `json:"silentPackageManagerResult,omitempty" mapstructure:"silentPackageManagerResult"`

	// Verbose enables per-capsule diagnostics. Default: false.
	Verbose *bool `json:"verbose,omitempty" mapstructure:"verbose"`

	// Extra carries unrecognized keys through to the writer and installer untouched.
	Extra map[string]string `json:"extra,omitempty" mapstructure:"extra"`
}

// OrchestrationOptions controls capsule reuse.
type OrchestrationOptions struct {
	// AlwaysNew forces a fresh capsule regardless of the cache key.
	AlwaysNew bool

	// Name replaces the hash-derived directory suffix, giving callers a reuse bucket.
	Name string
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

func boolOr(p *bool, def bool) *bool {
	if p == nil {
		return Bool(def)
	}
	return Bool(*p)
}

func value(p *bool) bool {
	return p != nil && *p
}

// WithDefaults returns a new Options with every unset field filled from the
// built-in defaults. The receiver is not modified.
func (o Options) WithDefaults() Options {
	out := Options{
		BaseDir:                      o.BaseDir,
		Workspace:                    o.Workspace,
		PackageManager:               o.PackageManager,
		InstallPackages:              boolOr(o.InstallPackages, true),
		WriteDists:                   boolOr(o.WriteDists, true),
		WriteBitDependencies:         boolOr(o.WriteBitDependencies, false),
		WritePackageJSON:             boolOr(o.WritePackageJSON, true),
		WriteConfig:                  boolOr(o.WriteConfig, false),
		CreateNpmLinkFiles:           boolOr(o.CreateNpmLinkFiles, true),
		SaveDependenciesAsComponents: boolOr(o.SaveDependenciesAsComponents, true),
		ExcludeRegistryPrefix:        boolOr(o.ExcludeRegistryPrefix, false),
		SilentPackageManagerResult:   boolOr(o.SilentPackageManagerResult, false),
		Verbose:                      boolOr(o.Verbose, false),
	}

	if out.BaseDir == "" {
		out.BaseDir = os.TempDir()
	}
	out.BaseDir = filepath.Clean(out.BaseDir)
	if out.Workspace == "" {
		out.Workspace = DefaultWorkspace
	}
	if out.PackageManager == "" {
		out.PackageManager = DefaultPackageManager
	}
	if len(o.Extra) > 0 {
		out.Extra = maps.Clone(o.Extra)
	}
	return out
}

// Merge returns a new Options where every field unset in o is taken from base.
// Extra keys from o override those in base. Neither input is modified.
func (o Options) Merge(base Options) Options {
	pick := func(p, b *bool) *bool {
		if p != nil {
			return Bool(*p)
		}
		if b != nil {
			return Bool(*b)
		}
		return nil
	}
	str := func(s, b string) string {
		if s != "" {
			return s
		}
		return b
	}

	out := Options{
		BaseDir:                      str(o.BaseDir, base.BaseDir),
		Workspace:                    str(o.Workspace, base.Workspace),
		PackageManager:               str(o.PackageManager, base.PackageManager),
		InstallPackages:              pick(o.InstallPackages, base.InstallPackages),
		WriteDists:                   pick(o.WriteDists, base.WriteDists),
		WriteBitDependencies:         pick(o.WriteBitDependencies, base.WriteBitDependencies),
		WritePackageJSON:             pick(o.WritePackageJSON, base.WritePackageJSON),
		WriteConfig:                  pick(o.WriteConfig, base.WriteConfig),
		CreateNpmLinkFiles:           pick(o.CreateNpmLinkFiles, base.CreateNpmLinkFiles),
		SaveDependenciesAsComponents: pick(o.SaveDependenciesAsComponents, base.SaveDependenciesAsComponents),
		ExcludeRegistryPrefix:        pick(o.ExcludeRegistryPrefix, base.ExcludeRegistryPrefix),
		SilentPackageManagerResult:   pick(o.SilentPackageManagerResult, base.SilentPackageManagerResult),
		Verbose:                      pick(o.Verbose, base.Verbose),
	}

	if len(base.Extra)+len(o.Extra) > 0 {
		out.Extra = make(map[string]string, len(base.Extra)+len(o.Extra))
		maps.Copy(out.Extra, base.Extra)
		maps.Copy(out.Extra, o.Extra)
	}
	return out
}

// Validate checks normalized options.
func (o Options) Validate() error {
	if strings.TrimSpace(o.BaseDir) == "" {
		return oerrors.NewValidationError("baseDir must not be empty", "", "set baseDir in config or pass --base-dir")
	}
	if strings.TrimSpace(o.Workspace) == "" {
		return oerrors.NewValidationError("workspace must not be empty", "", "")
	}
	if o.PackageManager != "" && !slices.Contains(SupportedPackageManagers, o.PackageManager) {
		return oerrors.NewValidationError(
			fmt.Sprintf("unsupported package manager %q", o.PackageManager),
			"",
			"use one of: "+strings.Join(SupportedPackageManagers, ", "),
		)
	}
	return nil
}

// Installs reports whether the install step runs.
func (o Options) Installs() bool { return o.InstallPackages == nil || *o.InstallPackages }

// Dists reports whether dist files are written.
func (o Options) Dists() bool { return o.WriteDists == nil || *o.WriteDists }

// BitDependencies reports whether dependency files are copied into the capsule.
func (o Options) BitDependencies() bool { return value(o.WriteBitDependencies) }

// PackageJSON reports whether package.json is generated.
func (o Options) PackageJSON() bool { return o.WritePackageJSON == nil || *o.WritePackageJSON }

// Config reports whether component.json is written.
func (o Options) Config() bool { return value(o.WriteConfig) }

// NpmLinks reports whether node_modules link shims are generated.
func (o Options) NpmLinks() bool { return o.CreateNpmLinkFiles == nil || *o.CreateNpmLinkFiles }

// DependenciesAsComponents reports whether dependencies use file: specifiers.
func (o Options) DependenciesAsComponents() bool {
	return o.SaveDependenciesAsComponents == nil || *o.SaveDependenciesAsComponents
}

// NoRegistryPrefix reports whether the registry scope is dropped from package names.
func (o Options) NoRegistryPrefix() bool { return value(o.ExcludeRegistryPrefix) }

// Silent reports whether package manager output is discarded.
func (o Options) Silent() bool { return value(o.SilentPackageManagerResult) }

// IsVerbose reports whether verbose diagnostics are enabled.
func (o Options) IsVerbose() bool { return value(o.Verbose) }
