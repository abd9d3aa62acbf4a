package network

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/opmodel/capsule/internal/capsule"
	"github.com/opmodel/capsule/internal/component"
	oerrors "github.com/opmodel/capsule/internal/errors"
	"github.com/opmodel/capsule/internal/metrics"
	"github.com/opmodel/capsule/internal/output"
	"github.com/opmodel/capsule/internal/pkgmanager"
)

// manifestSnapshot is the state of a capsule's package.json at one point.
type manifestSnapshot struct {
	// Raw is the file content, nil when the file is absent.
	Raw []byte

	// Value is the parsed manifest, nil when absent or unparsable.
	Value any
}

func (s manifestSnapshot) present() bool {
	return s.Raw != nil
}

// changed reports whether a capsule needs an install. Parsed values are
// compared structurally so key order and whitespace do not count. A side
// that cannot be read or parsed counts as changed, unless both are absent.
func changed(before, after manifestSnapshot) bool {
	if !before.present() && !after.present() {
		return false
	}
	if before.Value == nil || after.Value == nil {
		return true
	}
	return !cmp.Equal(before.Value, after.Value)
}

// snapshot reads a capsule's manifest. A manifest that exists but cannot be
// read or parsed yields a present snapshot with a nil value.
func snapshot(c *capsule.Capsule) manifestSnapshot {
	log := output.CapsuleLogger(c.ComponentID.String())

	if ok, err := c.Exists(capsule.ManifestFile); err == nil && !ok {
		return manifestSnapshot{}
	}
	raw, err := c.ReadFile(capsule.ManifestFile)
	if err != nil {
		log.Debug("unreadable manifest", "err", err)
		return manifestSnapshot{Raw: []byte{}}
	}
	if raw == nil {
		raw = []byte{}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Debug("unparsable manifest", "err", err)
		return manifestSnapshot{Raw: raw}
	}
	return manifestSnapshot{Raw: raw, Value: v}
}

// snapshotAll reads every capsule's manifest in parallel, in list order.
func snapshotAll(ctx context.Context, list *CapsuleList) ([]manifestSnapshot, error) {
	caps := list.Capsules()
	out := make([]manifestSnapshot, len(caps))

	eg, egctx := errgroup.WithContext(ctx)
	for i, c := range caps {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			out[i] = snapshot(c)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// InstallReport describes which capsules were installed in one build.
type InstallReport struct {
	// Disabled is true when installs were turned off by options.
	Disabled bool

	// Installed are the components whose manifest changed, in resolution order.
	Installed []component.ID

	// Skipped are the components whose manifest did not change, or all of
	// them when Disabled.
	Skipped []component.ID

	// Diffs holds the rendered manifest diff per installed component id.
	// Only filled with verbose options.
	Diffs map[string]string
}

// IsInstalled reports whether id was installed.
func (r *InstallReport) IsInstalled(id component.ID) bool {
	if r == nil {
		return false
	}
	for _, i := range r.Installed {
		if i.String() == id.String() {
			return true
		}
	}
	return false
}

// install runs the package manager once over the capsules whose manifest
// changed between before and after.
func (b *Builder) install(ctx context.Context, list *CapsuleList, before, after []manifestSnapshot, opts capsule.Options) (*InstallReport, error) {
	ids := list.IDs()
	caps := list.Capsules()
	report := &InstallReport{}

	if !opts.Installs() {
		report.Disabled = true
		report.Skipped = ids
		b.metrics.Installs(metrics.ResultSkipped, len(ids))
		return report, nil
	}

	var marked []*capsule.Capsule
	for i, id := range ids {
		if !changed(before[i], after[i]) {
			report.Skipped = append(report.Skipped, id)
			continue
		}
		report.Installed = append(report.Installed, id)
		marked = append(marked, caps[i])

		if opts.IsVerbose() {
			diff, err := output.ManifestDiff(before[i].Raw, after[i].Raw, output.IsTTY())
			if err != nil {
				output.CapsuleLogger(id.String()).Debug("manifest diff unavailable", "err", err)
				continue
			}
			if report.Diffs == nil {
				report.Diffs = make(map[string]string)
			}
			report.Diffs[id.String()] = diff
		}
	}
	b.metrics.Installs(metrics.ResultSkipped, len(report.Skipped))

	if len(marked) == 0 {
		return report, nil
	}

	output.Debug("installing changed capsules", "count", len(marked), "skipped", len(report.Skipped))
	err := b.installer.RunInstall(ctx, marked, pkgmanager.InstallOptions{
		PackageManager: opts.PackageManager,
		Silent:         opts.Silent(),
	})
	if err != nil {
		failed := len(marked)
		var ierr *pkgmanager.InstallError
		if errors.As(err, &ierr) {
			failed = len(ierr.Failed)
		}
		b.metrics.Installs(metrics.ResultFailed, failed)
		b.metrics.Installs(metrics.ResultRun, len(marked)-failed)
		if !errors.Is(err, oerrors.ErrInstall) && !errors.Is(err, oerrors.ErrValidation) {
			err = oerrors.WrapInstall(err, "installing packages")
		}
		return nil, err
	}
	b.metrics.Installs(metrics.ResultRun, len(marked))
	return report, nil
}
