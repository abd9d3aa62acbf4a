package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/opmodel/capsule/internal/capsule"
	"github.com/opmodel/capsule/internal/component"
	"github.com/opmodel/capsule/internal/config"
	oerrors "github.com/opmodel/capsule/internal/errors"
	"github.com/opmodel/capsule/internal/metrics"
	"github.com/opmodel/capsule/internal/network"
	"github.com/opmodel/capsule/internal/output"
)

// createFlags holds every flag of the create command.
type createFlags struct {
	capsule       CapsuleFlags
	orchestration OrchestrationFlags
	source        SourceFlags
	metricsFile   string
	timeout       time.Duration
}

// NewCreateCmd creates the create command.
func NewCreateCmd(cfg *GlobalConfig) *cobra.Command {
	var f createFlags

	cmd := &cobra.Command{
		Use:   "create <component-id>...",
		Short: "Create a capsule network for components",
		Long: `Create capsules for the given components and every transitive dependency.

Each component gets its own capsule directory under the base dir. Capsules
are reused when the component and options are unchanged; package installs
only run in capsules whose package.json changed.

The dependency graph is read from the workspace manifest, or from the scope
directory when no workspace is available.

Examples:
  # Build capsules for one component
  capsule create ui/button@1.0.0

  # Build into a named bucket without installing
  capsule create ui/button ui/card --name review --install-packages=false

  # Always start from fresh capsules
  capsule create ui/button --always-new --base-dir /tmp/capsules`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, cfg, args, &f)
		},
	}

	f.capsule.AddTo(cmd)
	f.orchestration.AddTo(cmd)
	f.source.AddTo(cmd)
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "",
		"Write Prometheus metrics to this file after the build (env: CAPSULE_METRICS_FILE)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0,
		"Abort the build after this duration (0 disables)")

	return cmd
}

func runCreate(cmd *cobra.Command, cfg *GlobalConfig, args []string, f *createFlags) error {
	ids, err := component.ParseIDs(args)
	if err != nil {
		return oerrors.WrapValidation(err, "invalid component id")
	}

	fsys := afero.NewOsFs()
	consumer, resolved := f.source.Consumer(fsys, cfg.Config)
	metricsFile := config.Resolve(config.ResolveOptions{
		Key:         "metrics.file",
		FlagValue:   f.metricsFile,
		EnvVar:      "CAPSULE_METRICS_FILE",
		ConfigValue: cfg.Config.Metrics.File,
	})
	if cfg.Verbose {
		config.LogResolvedValues(append(resolved, metricsFile))
	}

	reg := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	builder, err := network.New(network.Deps{
		Pool:     capsule.NewOrchestrator(fsys),
		Metrics:  recorder,
		Consumer: consumer,
		Defaults: cfg.Config.Capsule,
	})
	if err != nil {
		return err
	}

	opts := network.SubNetworkOptions{
		Capsule:       f.capsule.Options(cmd, cfg.Verbose),
		Orchestration: f.orchestration.Options(),
	}

	var sn *network.SubNetwork
	err = output.RunWithSpinner(cmd.Context(), func(ctx context.Context) error {
		var buildErr error
		sn, buildErr = builder.CreateSubNetwork(ctx, ids, opts)
		return buildErr
	}, output.WithTitle(fmt.Sprintf("Building capsules for %d component(s)", len(ids))), output.WithTimeout(f.timeout))

	if metricsFile.Value != "" {
		if werr := prometheus.WriteToTextfile(metricsFile.Value, reg); werr != nil {
			output.Warn("writing metrics file", "path", metricsFile.Value, "error", werr)
		}
	}
	if err != nil {
		return err
	}
	defer sn.Close()

	printSubNetwork(cmd.OutOrStdout(), sn)
	return nil
}

// printSubNetwork writes the capsule table, manifest diffs and a summary line.
func printSubNetwork(w io.Writer, sn *network.SubNetwork) {
	rows := make([]output.CapsuleRow, 0, sn.Capsules.Len())
	for _, c := range sn.Capsules.Capsules() {
		status := output.StatusCreated
		if c.Reused {
			status = output.StatusReused
		}
		install := output.StatusSkipped
		if sn.Install.IsInstalled(c.ComponentID) {
			install = output.StatusInstalled
		}
		rows = append(rows, output.CapsuleRow{
			Component: c.ComponentID.String(),
			Status:    output.StatusStyle(status).Render(status),
			Install:   output.StatusStyle(install).Render(install),
			WorkDir:   c.WorkDir,
		})
	}
	fmt.Fprintln(w, output.RenderCapsuleTable(rows))

	if sn.Install != nil {
		for _, id := range sn.Install.Installed {
			diff, ok := sn.Install.Diffs[id.String()]
			if !ok || strings.TrimSpace(diff) == "" {
				continue
			}
			fmt.Fprintf(w, "\n%s package.json:\n%s\n", output.StyleNoun.Render(id.String()), output.IndentDiff(diff, "  "))
		}
	}

	installed := 0
	if sn.Install != nil {
		installed = len(sn.Install.Installed)
	}
	summary := fmt.Sprintf("%d capsule(s) ready, %d installed", sn.Capsules.Len(), installed)
	if sn.Install != nil && sn.Install.Disabled {
		summary += " (installs disabled)"
	}
	fmt.Fprintln(w, output.FormatCheckmark(summary))
}
