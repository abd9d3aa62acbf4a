package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/capsule/internal/config"
	"github.com/opmodel/capsule/internal/output"
)

// GlobalConfig holds CLI-wide configuration resolved during PersistentPreRunE.
// It is populated once at startup and passed into every sub-command constructor.
type GlobalConfig struct {
	// Config is the loaded configuration. Never nil after PersistentPreRunE.
	Config *config.Config

	// ConfigPath is the resolved --config path.
	ConfigPath config.ResolvedValue

	// Verbose is the --verbose flag value.
	Verbose bool
}

// NewRootCmd creates the root command for the capsule CLI.
func NewRootCmd() *cobra.Command {
	cfg := &GlobalConfig{}

	var (
		configFlag     string
		timestampsFlag bool
	)

	rootCmd := &cobra.Command{
		Use:   "capsule",
		Short: "Build isolated capsule networks for components",
		Long: `capsule builds isolated working directories (capsules) for a set of
components and their transitive dependencies, links them together and
installs only the capsules whose package manifest changed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd, cfg, configFlag, timestampsFlag)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: CAPSULE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", true, "Show timestamps in log output")

	rootCmd.AddCommand(NewCreateCmd(cfg))
	rootCmd.AddCommand(NewKeyCmd(cfg))
	rootCmd.AddCommand(NewConfigCmd(cfg))
	rootCmd.AddCommand(NewVersionCmd(cfg))

	return rootCmd
}

// initializeGlobals sets up logging and loads configuration.
func initializeGlobals(cmd *cobra.Command, cfg *GlobalConfig, configFlag string, timestampsFlag bool) error {
	pathResult, err := config.ResolveConfigPath(configFlag)
	if err != nil {
		return err
	}
	cfg.ConfigPath = pathResult

	loaded, err := config.NewLoader().Load(pathResult.Value)
	if err != nil {
		// config vet reports load errors itself; other commands run on defaults.
		output.Debug("config load error", "error", err)
		loaded = &config.Config{}
	}
	cfg.Config = loaded

	// Timestamps: flag (if explicitly set) > config > default (nil = true)
	logCfg := output.LogConfig{Verbose: cfg.Verbose}
	if cmd.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(timestampsFlag)
	} else if loaded.Log.Timestamps != nil {
		logCfg.Timestamps = loaded.Log.Timestamps
	}
	output.SetupLogging(logCfg)

	if cfg.Verbose {
		config.LogResolvedValues([]config.ResolvedValue{pathResult})
	}
	return nil
}
