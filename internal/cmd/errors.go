package cmd

import (
	"errors"

	"github.com/opmodel/capsule/internal/config"
	oerrors "github.com/opmodel/capsule/internal/errors"
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// ExitCodeFromError determines the appropriate exit code for an error.
// Install failures are checked before the other phases: a build that fails
// to install still reports the install as the cause.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var cfgErrs config.ValidationErrors
	if errors.As(err, &cfgErrs) {
		return ExitValidationError
	}

	switch {
	case errors.Is(err, oerrors.ErrInstall):
		return ExitInstallError
	case errors.Is(err, oerrors.ErrMaterialization):
		return ExitMaterializationError
	case errors.Is(err, oerrors.ErrCapsuleAcquisition):
		return ExitAcquisitionError
	case errors.Is(err, oerrors.ErrResolution):
		return ExitResolutionError
	case errors.Is(err, oerrors.ErrValidation):
		return ExitValidationError
	case errors.Is(err, oerrors.ErrNotFound):
		return ExitNotFound
	default:
		return ExitGeneralError
	}
}
