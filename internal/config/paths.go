package config

import (
	"os"
	"path/filepath"
)

// Environment variables that locate configuration.
const (
	EnvConfig = "CAPSULE_CONFIG"
	EnvHome   = "CAPSULE_HOME"
)

// Paths contains standard filesystem paths for the capsule CLI.
type Paths struct {
	// ConfigFile is the path to the config file (~/.capsule/config.yaml).
	ConfigFile string

	// HomeDir is the capsule home directory (~/.capsule).
	HomeDir string
}

// DefaultPaths returns the default paths. CAPSULE_HOME overrides ~/.capsule.
func DefaultPaths() (*Paths, error) {
	home := os.Getenv(EnvHome)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		home = filepath.Join(userHome, ".capsule")
	}

	return &Paths{
		ConfigFile: filepath.Join(home, "config.yaml"),
		HomeDir:    home,
	}, nil
}

// GetConfigFile returns the config file path.
// If CAPSULE_CONFIG is set, it takes precedence.
func GetConfigFile() (string, error) {
	if envPath := os.Getenv(EnvConfig); envPath != "" {
		return envPath, nil
	}

	paths, err := DefaultPaths()
	if err != nil {
		return "", err
	}
	return paths.ConfigFile, nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return homeDir, nil
	}

	// ~/path/to/something
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// ~username is not supported
	return path, nil
}
