package output

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"golang.org/x/term"
)

// IsTTY reports whether stdout is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// SpinnerOption configures a spinner.
type SpinnerOption func(*spinnerConfig)

type spinnerConfig struct {
	title   string
	timeout time.Duration
}

// WithTitle sets the spinner title.
func WithTitle(title string) SpinnerOption {
	return func(c *spinnerConfig) {
		c.title = title
	}
}

// WithTimeout sets the spinner timeout.
func WithTimeout(timeout time.Duration) SpinnerOption {
	return func(c *spinnerConfig) {
		c.timeout = timeout
	}
}

// RunWithSpinner runs action behind a spinner when stdout is a terminal,
// and directly otherwise. The action receives ctx, bounded by the timeout
// when one is set. RunWithSpinner always waits for the action to return and
// returns its error.
func RunWithSpinner(ctx context.Context, action func(ctx context.Context) error, opts ...SpinnerOption) error {
	cfg := &spinnerConfig{
		title: "Working...",
	}

	for _, opt := range opts {
		opt(cfg)
	}

	var (
		actionCtx context.Context
		cancel    context.CancelFunc
	)
	if cfg.timeout > 0 {
		actionCtx, cancel = context.WithTimeout(ctx, cfg.timeout)
	} else {
		actionCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	if !IsTTY() {
		return action(actionCtx)
	}

	return runBehindSpinner(actionCtx, cancel, action, func(wait func()) error {
		return spinner.New().Title(cfg.title).Action(wait).Run()
	})
}

// runBehindSpinner runs action in the background while spin shows progress.
// spin returns once wait does. If spin fails the action is canceled. Either
// way the action has returned before runBehindSpinner does.
func runBehindSpinner(ctx context.Context, cancel context.CancelFunc, action func(ctx context.Context) error, spin func(wait func()) error) error {
	done := make(chan struct{})
	var actionErr error
	go func() {
		defer close(done)
		actionErr = action(ctx)
	}()

	spinErr := spin(func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
	})
	if spinErr != nil {
		cancel()
	}
	<-done

	if spinErr != nil {
		return fmt.Errorf("spinner error: %w", spinErr)
	}
	return actionErr
}
