// Package pkgmanager runs package-manager installs inside capsules.
package pkgmanager

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/opmodel/capsule/internal/capsule"
	"github.com/opmodel/capsule/internal/component"
	oerrors "github.com/opmodel/capsule/internal/errors"
	"github.com/opmodel/capsule/internal/output"
)

// maxConcurrency caps parallel installs.
const maxConcurrency = 8

// InstallOptions configures one batched install.
type InstallOptions struct {
	// PackageManager overrides the default package manager.
	PackageManager string

	// Silent discards package manager output.
	Silent bool
}

// Installer installs packages in a batch of capsules.
type Installer interface {
	RunInstall(ctx context.Context, capsules []*capsule.Capsule, opts InstallOptions) error
}

// InstallError lists the capsules whose install failed in one batch.
// Capsules of the batch that are not listed installed successfully.
type InstallError struct {
	PackageManager string
	Failed         []component.ID
	Total          int
	Err            error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("%s install failed for %d of %d capsules: %v", e.PackageManager, len(e.Failed), e.Total, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// ExecInstaller runs `<pm> install` as a subprocess in each capsule.
type ExecInstaller struct {
	// Default is the package manager used when InstallOptions does not override it.
	Default string

	// Path overrides the executable, keeping the package manager name for args.
	Path string

	// Concurrency limits parallel installs. Zero means min(len(capsules), 8).
	Concurrency int

	// Stdout for package manager output. If nil, os.Stdout is used.
	Stdout io.Writer

	// Stderr for package manager errors. If nil, os.Stderr is used.
	Stderr io.Writer
}

// NewExecInstaller creates an installer that defaults to npm.
func NewExecInstaller() *ExecInstaller {
	return &ExecInstaller{
		Default: capsule.DefaultPackageManager,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// RunInstall installs every capsule in parallel. All capsules are attempted;
// failures are returned together as an *InstallError wrapped in ErrInstall.
func (e *ExecInstaller) RunInstall(ctx context.Context, capsules []*capsule.Capsule, opts InstallOptions) error {
	if len(capsules) == 0 {
		return nil
	}

	pm := opts.PackageManager
	if pm == "" {
		pm = e.Default
	}
	if pm == "" {
		pm = capsule.DefaultPackageManager
	}
	if !slices.Contains(capsule.SupportedPackageManagers, pm) {
		return oerrors.NewValidationError(
			fmt.Sprintf("unsupported package manager %q", pm), "",
			"use one of: "+strings.Join(capsule.SupportedPackageManagers, ", "))
	}

	concurrency := e.Concurrency
	if concurrency <= 0 {
		concurrency = min(len(capsules), maxConcurrency)
	}

	var (
		mu     sync.Mutex
		errs   []error
		failed []component.ID
	)
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for _, c := range capsules {
		eg.Go(func() error {
			if err := e.install(egctx, c, pm, opts.Silent); err != nil {
				output.CapsuleLogger(c.ComponentID.String()).Error("install failed", "dir", c.WorkDir, "err", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", c.ComponentID, err))
				failed = append(failed, c.ComponentID)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	if agg := utilerrors.NewAggregate(errs); agg != nil {
		return oerrors.WrapInstall(&InstallError{
			PackageManager: pm,
			Failed:         failed,
			Total:          len(capsules),
			Err:            agg,
		}, "installing packages")
	}
	return nil
}

func (e *ExecInstaller) install(ctx context.Context, c *capsule.Capsule, pm string, silent bool) error {
	bin := pm
	if e.Path != "" {
		bin = e.Path
	}

	var stderr bytes.Buffer
	cmd := c.Command(ctx, bin, "install")
	if silent {
		cmd.Stdout = io.Discard
		cmd.Stderr = &stderr
	} else {
		cmd.Stdout = e.stdout()
		cmd.Stderr = io.MultiWriter(e.stderr(), &stderr)
	}

	output.CapsuleLogger(c.ComponentID.String()).Debug("running install", "pm", pm, "dir", c.WorkDir)
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func (e *ExecInstaller) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *ExecInstaller) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}
