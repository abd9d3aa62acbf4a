package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opmodel/capsule/internal/component"
	oerrors "github.com/opmodel/capsule/internal/errors"
	"github.com/opmodel/capsule/internal/network"
)

// NewKeyCmd creates the key command.
func NewKeyCmd(cfg *GlobalConfig) *cobra.Command {
	var (
		capsuleFlags CapsuleFlags
		orchFlags    OrchestrationFlags
	)

	cmd := &cobra.Command{
		Use:   "key <component-id>",
		Short: "Print the capsule directory and resource id for a component",
		Long: `Print where a component's capsule lives for the given options, without
creating it. Options are merged with the configuration the same way create
merges them.

Examples:
  capsule key ui/button@1.0.0
  capsule key ui/button --base-dir /tmp/capsules --name review`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := component.ParseID(args[0])
			if err != nil {
				return oerrors.WrapValidation(err, "invalid component id")
			}

			opts := capsuleFlags.Options(cmd, cfg.Verbose).Merge(cfg.Config.Capsule).WithDefaults()
			if err := opts.Validate(); err != nil {
				return err
			}

			key, err := network.DeriveResourceKey(id, opts, orchFlags.Options())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "workDir:    %s\nresourceId: %s\n", key.WorkDir, key.ResourceID)
			return nil
		},
	}

	capsuleFlags.AddTo(cmd)
	orchFlags.AddTo(cmd)

	return cmd
}
