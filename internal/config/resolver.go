package config

import (
	"os"
	"slices"

	"github.com/opmodel/capsule/internal/output"
)

// ConfigSource indicates where a configuration value came from.
type ConfigSource string

const (
	// SourceFlag indicates value came from command-line flag.
	SourceFlag ConfigSource = "flag"
	// SourceEnv indicates value came from environment variable.
	SourceEnv ConfigSource = "env"
	// SourceConfig indicates value came from config file.
	SourceConfig ConfigSource = "config"
	// SourceDefault indicates value is the built-in default.
	SourceDefault ConfigSource = "default"
)

// ResolvedValue records a resolved configuration value and the values it shadowed.
type ResolvedValue struct {
	Key      string
	Value    string
	Source   ConfigSource
	Shadowed map[ConfigSource]string
}

// ResolveOptions describes the candidate values of a single string setting.
type ResolveOptions struct {
	// Key is the config key, used for logging only.
	Key string
	// FlagValue is the command-line flag value (empty if not set).
	FlagValue string
	// EnvVar names the environment variable consulted after the flag.
	EnvVar string
	// ConfigValue is the config file value (empty if not set).
	ConfigValue string
	// DefaultValue is used when nothing else is set.
	DefaultValue string
}

// Resolve resolves a string setting using precedence:
// (1) flag, (2) environment, (3) config file, (4) default.
// Lower-precedence values equal to the winner are not reported as shadowed.
func Resolve(opts ResolveOptions) ResolvedValue {
	var envValue string
	if opts.EnvVar != "" {
		envValue = os.Getenv(opts.EnvVar)
	}

	candidates := []struct {
		source ConfigSource
		value  string
	}{
		{SourceFlag, opts.FlagValue},
		{SourceEnv, envValue},
		{SourceConfig, opts.ConfigValue},
		{SourceDefault, opts.DefaultValue},
	}

	result := ResolvedValue{
		Key:      opts.Key,
		Shadowed: make(map[ConfigSource]string),
	}
	for _, c := range candidates {
		if c.value == "" {
			continue
		}
		if result.Source == "" {
			result.Value = c.value
			result.Source = c.source
			continue
		}
		if c.value != result.Value {
			result.Shadowed[c.source] = c.value
		}
	}
	// If none set, Value stays empty and Source is zero value
	return result
}

// ResolveConfigPath resolves the config file path using precedence:
// (1) --config flag, (2) CAPSULE_CONFIG env, (3) ~/.capsule/config.yaml default.
func ResolveConfigPath(flagValue string) (ResolvedValue, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return ResolvedValue{}, err
	}

	return Resolve(ResolveOptions{
		Key:          "config",
		FlagValue:    flagValue,
		EnvVar:       EnvConfig,
		DefaultValue: paths.ConfigFile,
	}), nil
}

// LogResolvedValues logs configuration resolution at DEBUG level.
func LogResolvedValues(values []ResolvedValue) {
	for _, v := range values {
		output.Debug("config value resolved",
			"key", v.Key,
			"value", v.Value,
			"source", v.Source,
		)

		// Deterministic order for shadowed sources.
		sources := make([]ConfigSource, 0, len(v.Shadowed))
		for source := range v.Shadowed {
			sources = append(sources, source)
		}
		slices.Sort(sources)
		for _, source := range sources {
			output.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", v.Shadowed[source],
			)
		}
	}
}
