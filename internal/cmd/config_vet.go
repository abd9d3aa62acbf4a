package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/opmodel/capsule/internal/config"
	oerrors "github.com/opmodel/capsule/internal/errors"
	"github.com/opmodel/capsule/internal/output"
)

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd(cfg *GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "vet",
		Short: "Validate configuration",
		Long: `Validate the capsule CLI configuration file.

Checks performed:
  1. Config file exists at resolved path
  2. Config file is valid YAML matching the configuration schema
  3. Values pass semantic checks (supported package manager, non-blank paths)

The config path is resolved using precedence:
  --config flag > CAPSULE_CONFIG env > ~/.capsule/config.yaml

Examples:
  # Validate default configuration
  capsule config vet

  # Validate custom config path
  capsule config vet --config /path/to/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigVet(cfg)
		},
	}
}

func runConfigVet(cfg *GlobalConfig) error {
	configPath := cfg.ConfigPath.Value

	output.Debug("validating config",
		"path", configPath,
		"source", cfg.ConfigPath.Source,
	)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &oerrors.DetailError{
			Type:     "not found",
			Message:  "configuration file not found",
			Location: configPath,
			Hint:     "Run 'capsule config init' to create default configuration",
			Cause:    oerrors.ErrNotFound,
		}
	}

	validator, err := config.NewValidator()
	if err != nil {
		return err
	}
	if err := validator.ValidateFile(configPath); err != nil {
		return err
	}

	output.Println(output.FormatCheckmark("Configuration is valid: " + configPath))
	return nil
}
