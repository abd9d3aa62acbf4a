package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/opmodel/capsule/internal/capsule"
	"github.com/opmodel/capsule/internal/config"
	"github.com/opmodel/capsule/internal/graph"
	"github.com/opmodel/capsule/internal/workspace"
)

// CapsuleFlags holds the flags that mirror capsule.Options.
// Boolean flags only override configuration when set explicitly.
type CapsuleFlags struct {
	BaseDir                      string
	Workspace                    string
	PackageManager               string
	InstallPackages              bool
	WriteDists                   bool
	WriteBitDependencies         bool
	WritePackageJSON             bool
	WriteConfig                  bool
	CreateNpmLinkFiles           bool
	SaveDependenciesAsComponents bool
	ExcludeRegistryPrefix        bool
	Silent                       bool
	Extra                        map[string]string
}

// AddTo registers the capsule option flags on the given cobra command.
func (f *CapsuleFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.BaseDir, "base-dir", "",
		"Root directory for capsules (default: system temp dir)")
	cmd.Flags().StringVar(&f.Workspace, "workspace", "",
		"Capsule pool namespace (default: "+capsule.DefaultWorkspace+")")
	cmd.Flags().StringVar(&f.PackageManager, "package-manager", "",
		"Package manager used for installs: npm, yarn, pnpm, bun (default: "+capsule.DefaultPackageManager+")")
	cmd.Flags().BoolVar(&f.InstallPackages, "install-packages", true,
		"Run the package manager in capsules whose package.json changed")
	cmd.Flags().BoolVar(&f.WriteDists, "write-dists", true,
		"Write dist files into capsules")
	cmd.Flags().BoolVar(&f.WriteBitDependencies, "write-bit-dependencies", false,
		"Copy dependency files into each capsule instead of linking")
	cmd.Flags().BoolVar(&f.WritePackageJSON, "write-package-json", true,
		"Generate package.json in each capsule")
	cmd.Flags().BoolVar(&f.WriteConfig, "write-config", false,
		"Write component.json in each capsule")
	cmd.Flags().BoolVar(&f.CreateNpmLinkFiles, "create-npm-link-files", true,
		"Generate node_modules link files for dependencies")
	cmd.Flags().BoolVar(&f.SaveDependenciesAsComponents, "save-dependencies-as-components", true,
		"Point dependency specifiers at dependency capsules")
	cmd.Flags().BoolVar(&f.ExcludeRegistryPrefix, "exclude-registry-prefix", false,
		"Drop the registry scope from generated package names")
	cmd.Flags().BoolVar(&f.Silent, "silent", false,
		"Discard package manager output")
	cmd.Flags().StringToStringVar(&f.Extra, "extra", nil,
		"Extra key=value options passed through to writers and installers")
}

// Options returns the capsule options set on the command line.
func (f *CapsuleFlags) Options(cmd *cobra.Command, verbose bool) capsule.Options {
	changed := func(name string, v bool) *bool {
		if cmd.Flags().Changed(name) {
			return capsule.Bool(v)
		}
		return nil
	}

	opts := capsule.Options{
		BaseDir:                      f.BaseDir,
		Workspace:                    f.Workspace,
		PackageManager:               f.PackageManager,
		InstallPackages:              changed("install-packages", f.InstallPackages),
		WriteDists:                   changed("write-dists", f.WriteDists),
		WriteBitDependencies:         changed("write-bit-dependencies", f.WriteBitDependencies),
		WritePackageJSON:             changed("write-package-json", f.WritePackageJSON),
		WriteConfig:                  changed("write-config", f.WriteConfig),
		CreateNpmLinkFiles:           changed("create-npm-link-files", f.CreateNpmLinkFiles),
		SaveDependenciesAsComponents: changed("save-dependencies-as-components", f.SaveDependenciesAsComponents),
		ExcludeRegistryPrefix:        changed("exclude-registry-prefix", f.ExcludeRegistryPrefix),
		SilentPackageManagerResult:   changed("silent", f.Silent),
		Extra:                        f.Extra,
	}
	if verbose {
		opts.Verbose = capsule.Bool(true)
	}
	return opts
}

// OrchestrationFlags holds the capsule reuse flags.
type OrchestrationFlags struct {
	AlwaysNew bool
	Name      string
}

// AddTo registers the orchestration flags on the given cobra command.
func (f *OrchestrationFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.AlwaysNew, "always-new", false,
		"Always create fresh capsules instead of reusing existing ones")
	cmd.Flags().StringVar(&f.Name, "name", "",
		"Named reuse bucket replacing the options hash in capsule directories")
}

// Options returns the orchestration options.
func (f *OrchestrationFlags) Options() capsule.OrchestrationOptions {
	return capsule.OrchestrationOptions{AlwaysNew: f.AlwaysNew, Name: f.Name}
}

// SourceFlags holds the flags that locate the dependency graph.
type SourceFlags struct {
	WorkspaceFile string
	ScopeDir      string
}

// AddTo registers the graph source flags on the given cobra command.
func (f *SourceFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.WorkspaceFile, "workspace-file", "",
		"Workspace manifest (env: CAPSULE_WORKSPACE_FILE, default: ./"+workspace.DefaultManifest+" when present)")
	cmd.Flags().StringVar(&f.ScopeDir, "scope-dir", "",
		"Scope directory of exported component manifests (env: CAPSULE_SCOPE_DIR)")
}

// Consumer resolves the workspace and scope locations and returns the graph
// handle for a build. Either source may be absent.
func (f *SourceFlags) Consumer(fsys afero.Fs, cfg *config.Config) (*graph.Consumer, []config.ResolvedValue) {
	var defaultManifest string
	if ok, _ := afero.Exists(fsys, workspace.DefaultManifest); ok {
		defaultManifest = workspace.DefaultManifest
	}

	ws := config.Resolve(config.ResolveOptions{
		Key:          "workspaceFile",
		FlagValue:    f.WorkspaceFile,
		EnvVar:       "CAPSULE_WORKSPACE_FILE",
		ConfigValue:  cfg.WorkspaceFile,
		DefaultValue: defaultManifest,
	})
	scope := config.Resolve(config.ResolveOptions{
		Key:         "scopeDir",
		FlagValue:   f.ScopeDir,
		EnvVar:      "CAPSULE_SCOPE_DIR",
		ConfigValue: cfg.ScopeDir,
	})

	consumer := &graph.Consumer{}
	if ws.Value != "" {
		consumer.Workspace = workspace.New(fsys, ws.Value)
	}
	if scope.Value != "" {
		consumer.Scope = workspace.NewScope(fsys, scope.Value)
	}
	return consumer, []config.ResolvedValue{ws, scope}
}
