// Package errors provides sentinel errors and structured error details for the capsule builder.
package errors

import (
	"fmt"
	"sort"
	"strings"
)

// DetailError captures structured error information for user-facing output.
type DetailError struct {
	// Type is the error category (required).
	Type string

	// Message is the specific description (required).
	Message string

	// Location is the file path or capsule directory (optional).
	Location string

	// Context contains additional key-value context (optional).
	Context map[string]string

	// Hint provides actionable guidance (optional).
	Hint string

	// Cause is the underlying error (optional).
	Cause error
}

// Error implements the error interface.
func (e *DetailError) Error() string {
	var b strings.Builder

	b.WriteString("Error: ")
	b.WriteString(e.Type)
	b.WriteString("\n")

	if e.Location != "" {
		b.WriteString("  Location: ")
		b.WriteString(e.Location)
		b.WriteString("\n")
	}

	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("  ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(e.Context[k])
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(e.Message)
	b.WriteString("\n")

	if e.Hint != "" {
		b.WriteString("\nHint: ")
		b.WriteString(e.Hint)
		b.WriteString("\n")
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *DetailError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a validation error with details.
func NewValidationError(message, location, hint string) error {
	return &DetailError{
		Type:     "validation failed",
		Message:  message,
		Location: location,
		Hint:     hint,
		Cause:    ErrValidation,
	}
}

// NewResolutionError reports that no dependency graph source is available.
func NewResolutionError(message, hint string) error {
	return &DetailError{
		Type:    "resolution failed",
		Message: message,
		Hint:    hint,
		Cause:   ErrResolution,
	}
}

// NewNotFoundError creates a not found error with details.
func NewNotFoundError(message, location, hint string) error {
	return &DetailError{
		Type:     "not found",
		Message:  message,
		Location: location,
		Hint:     hint,
		Cause:    ErrNotFound,
	}
}

// Wrap wraps an error with a sentinel error type.
func Wrap(sentinel error, message string) error {
	return fmt.Errorf("%s: %w", message, sentinel)
}

// WrapResolution wraps err with ErrResolution.
func WrapResolution(err error, msg string) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrResolution, err)
}

// WrapCapsuleAcquisition wraps err with ErrCapsuleAcquisition.
func WrapCapsuleAcquisition(err error, msg string) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrCapsuleAcquisition, err)
}

// WrapMaterialization wraps err with ErrMaterialization.
func WrapMaterialization(err error, msg string) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrMaterialization, err)
}

// WrapInstall wraps err with ErrInstall.
func WrapInstall(err error, msg string) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrInstall, err)
}

// WrapValidation wraps err with ErrValidation.
func WrapValidation(err error, msg string) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrValidation, err)
}
