package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opmodel/capsule/internal/config"
	oerrors "github.com/opmodel/capsule/internal/errors"
	"github.com/opmodel/capsule/internal/output"
)

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd(cfg *GlobalConfig) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize default configuration",
		Long: `Initialize the capsule CLI configuration.

Writes a commented config.yaml to the resolved config path
(--config flag > CAPSULE_CONFIG env > ~/.capsule/config.yaml).

Examples:
  # Initialize configuration
  capsule config init

  # Overwrite existing configuration
  capsule config init --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cfg, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false,
		"Overwrite existing configuration")

	return cmd
}

func runConfigInit(cfg *GlobalConfig, force bool) error {
	configFile := cfg.ConfigPath.Value
	if configFile == "" {
		resolved, err := config.ResolveConfigPath("")
		if err != nil {
			return oerrors.Wrap(oerrors.ErrNotFound, "could not determine home directory")
		}
		configFile = resolved.Value
	}

	if _, err := os.Stat(configFile); err == nil && !force {
		return &oerrors.DetailError{
			Type:     "validation failed",
			Message:  "configuration already exists",
			Location: configFile,
			Hint:     "Use --force to overwrite existing configuration.",
			Cause:    oerrors.ErrValidation,
		}
	}

	// Secure permissions: 0700 directory, 0600 file.
	dir := filepath.Dir(configFile)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return oerrors.WrapValidation(err, "could not create "+dir)
	}
	if err := os.WriteFile(configFile, []byte(config.DefaultConfigTemplate), 0o600); err != nil {
		return oerrors.WrapValidation(err, "could not write "+configFile)
	}

	output.Println("Configuration initialized at " + configFile)
	output.Println("Validate with: capsule config vet")
	return nil
}
