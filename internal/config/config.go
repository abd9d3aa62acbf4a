// Package config provides configuration loading and management.
package config

import (
	"github.com/opmodel/capsule/internal/capsule"
)

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `json:"timestamps,omitempty" mapstructure:"timestamps"`
}

// MetricsConfig controls the metrics textfile.
type MetricsConfig struct {
	// File receives Prometheus text-format metrics after each build.
	// Env: CAPSULE_METRICS_FILE. Empty disables the export.
	File string `json:"file,omitempty" mapstructure:"file"`
}

// Config represents the capsule CLI configuration.
// Loaded from ~/.capsule/config.yaml, validated against the embedded CUE schema.
type Config struct {
	// Capsule holds the default capsule options for every build.
	Capsule capsule.Options `json:"capsule" mapstructure:"capsule"`

	// WorkspaceFile is the workspace manifest used to build the graph.
	// Env: CAPSULE_WORKSPACE_FILE
	WorkspaceFile string `json:"workspaceFile,omitempty" mapstructure:"workspaceFile"`

	// ScopeDir is the scope directory used when no workspace manifest exists.
	// Env: CAPSULE_SCOPE_DIR
	ScopeDir string `json:"scopeDir,omitempty" mapstructure:"scopeDir"`

	// Log contains logging-related settings.
	Log LogConfig `json:"log" mapstructure:"log"`

	// Metrics contains metrics export settings.
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
}

// DefaultConfigTemplate is written by `capsule config init`.
const DefaultConfigTemplate = `# capsule configuration
capsule:
  # Root directory for all capsules. Defaults to the system temp dir.
  # baseDir: /tmp/capsules
  workspace: default
  packageManager: npm
  installPackages: true
  writeDists: true
  writePackageJson: true
  createNpmLinkFiles: true
  saveDependenciesAsComponents: true

# workspaceFile: ./capsule.workspace.yaml
# scopeDir: ./scope

log:
  timestamps: true
`
