//nolint:revive // Package name matches the package it tests
package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrValidation, ErrNotFound, ErrResolution,
		ErrCapsuleAcquisition, ErrMaterialization, ErrInstall,
	}
	for i := range sentinels {
		for j := range sentinels {
			if i != j {
				assert.NotErrorIs(t, sentinels[i], sentinels[j])
			}
		}
	}
}

func TestDetailErrorError(t *testing.T) {
	detail := &DetailError{
		Type:     "resolution failed",
		Message:  "no workspace found",
		Location: "/work/capsule.yaml",
		Context:  map[string]string{"Seed": "pkg/a@1.0.0", "Baz": "qux"},
		Hint:     "Run inside a workspace",
	}

	output := detail.Error()

	assert.Contains(t, output, "Error: resolution failed")
	assert.Contains(t, output, "Location: /work/capsule.yaml")
	assert.Contains(t, output, "Seed: pkg/a@1.0.0")
	assert.Contains(t, output, "no workspace found")
	assert.Contains(t, output, "Hint: Run inside a workspace")
	assert.Less(t, strings.Index(output, "Baz"), strings.Index(output, "Seed"), "context keys are sorted")
}

func TestDetailErrorUnwrap(t *testing.T) {
	detail := &DetailError{
		Type:    "test",
		Message: "test message",
		Cause:   ErrResolution,
	}

	assert.True(t, errors.Is(detail, ErrResolution))
	assert.Equal(t, ErrResolution, detail.Unwrap())
}

func TestNewResolutionError(t *testing.T) {
	err := NewResolutionError("no workspace or scope available", "pass --workspace-file")

	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrResolution))

	var detail *DetailError
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, "resolution failed", detail.Type)
	assert.Equal(t, "pass --workspace-file", detail.Hint)
}

func TestWrapHelpers(t *testing.T) {
	cause := fmt.Errorf("disk full")

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"resolution", WrapResolution(cause, "building graph"), ErrResolution},
		{"acquisition", WrapCapsuleAcquisition(cause, "acquiring capsule"), ErrCapsuleAcquisition},
		{"materialization", WrapMaterialization(cause, "writing files"), ErrMaterialization},
		{"install", WrapInstall(cause, "running npm"), ErrInstall},
		{"validation", WrapValidation(cause, "checking options"), ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.ErrorIs(t, tt.err, cause)
			assert.Contains(t, tt.err.Error(), "disk full")
		})
	}
}

func TestWrap(t *testing.T) {
	wrapped := Wrap(ErrNotFound, "component pkg/x missing")

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Contains(t, wrapped.Error(), "component pkg/x missing")
}
