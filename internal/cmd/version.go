package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/capsule/internal/capsule"
	"github.com/opmodel/capsule/internal/output"
	"github.com/opmodel/capsule/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd(_ *GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show capsule CLI version information.

Displays:
  - CLI version, commit, and build date
  - Detected package manager binaries and whether they are supported`,
		RunE: func(cmd *cobra.Command, args []string) error {
			managers := make([]version.BinaryInfo, 0, len(capsule.SupportedPackageManagers))
			for _, pm := range capsule.SupportedPackageManagers {
				managers = append(managers, version.DetectBinary(cmd.Context(), pm))
			}
			output.Println(version.FullVersionString(version.Get(), managers))
			return nil
		},
	}
}
