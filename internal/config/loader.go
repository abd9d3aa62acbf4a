package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable prefix for capsule configuration.
const envPrefix = "CAPSULE"

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"capsule.baseDir":                    "CAPSULE_BASE_DIR",
	"capsule.workspace":                  "CAPSULE_WORKSPACE",
	"capsule.packageManager":             "CAPSULE_PACKAGE_MANAGER",
	"capsule.installPackages":            "CAPSULE_INSTALL_PACKAGES",
	"capsule.writeDists":                 "CAPSULE_WRITE_DISTS",
	"capsule.writeBitDependencies":       "CAPSULE_WRITE_BIT_DEPENDENCIES",
	"capsule.silentPackageManagerResult": "CAPSULE_SILENT_PACKAGE_MANAGER_RESULT",
	"capsule.verbose":                    "CAPSULE_VERBOSE",
	"workspaceFile":                      "CAPSULE_WORKSPACE_FILE",
	"scopeDir":                           "CAPSULE_SCOPE_DIR",
	"metrics.file":                       "CAPSULE_METRICS_FILE",
}

// Loader handles loading and merging configuration from the config file and
// the environment.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	return &Loader{v: v}
}

// Load loads configuration from configFile, or the default path when empty.
// A missing file is not an error. Environment variables override file values.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile == "" {
		var err error
		configFile, err = GetConfigFile()
		if err != nil {
			return nil, fmt.Errorf("getting config file path: %w", err)
		}
	}

	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	l.v.SetConfigFile(expandedPath)
	l.v.SetConfigType("yaml")

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// IsSet reports whether key was set by the config file or the environment.
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// ConfigFileUsed returns the file the loader read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}
