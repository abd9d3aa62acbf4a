package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opmodel/capsule/internal/config"
	oerrors "github.com/opmodel/capsule/internal/errors"
)

func TestExitCodeFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "nil error returns success",
			err:      nil,
			wantCode: ExitSuccess,
		},
		{
			name:     "validation error",
			err:      oerrors.ErrValidation,
			wantCode: ExitValidationError,
		},
		{
			name:     "wrapped validation error",
			err:      oerrors.Wrap(oerrors.ErrValidation, "bad options"),
			wantCode: ExitValidationError,
		},
		{
			name:     "config validation errors",
			err:      fmt.Errorf("vet: %w", config.ValidationErrors{{Field: "capsule", Message: "bad"}}),
			wantCode: ExitValidationError,
		},
		{
			name:     "resolution error",
			err:      oerrors.NewResolutionError("no workspace", ""),
			wantCode: ExitResolutionError,
		},
		{
			name:     "capsule acquisition error",
			err:      oerrors.WrapCapsuleAcquisition(errors.New("read-only"), "creating capsule"),
			wantCode: ExitAcquisitionError,
		},
		{
			name:     "not found error",
			err:      oerrors.NewNotFoundError("workspace manifest not found", "capsule.workspace.yaml", ""),
			wantCode: ExitNotFound,
		},
		{
			name:     "resolution wrapping not found",
			err:      oerrors.WrapResolution(oerrors.ErrNotFound, "building graph"),
			wantCode: ExitResolutionError,
		},
		{
			name:     "materialization error",
			err:      oerrors.WrapMaterialization(errors.New("disk full"), "writing files"),
			wantCode: ExitMaterializationError,
		},
		{
			name:     "install error",
			err:      oerrors.WrapInstall(errors.New("exit status 1"), "npm install failed"),
			wantCode: ExitInstallError,
		},
		{
			name:     "install error wrapping validation",
			err:      oerrors.WrapInstall(oerrors.ErrValidation, "npm install failed"),
			wantCode: ExitInstallError,
		},
		{
			name:     "explicit exit error",
			err:      NewExitError(oerrors.ErrInstall, ExitGeneralError),
			wantCode: ExitGeneralError,
		},
		{
			name:     "unknown error returns general error",
			err:      errors.New("unknown error"),
			wantCode: ExitGeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExitCodeFromError(tt.err)
			assert.Equal(t, tt.wantCode, got)
		})
	}
}

func TestExitCodeConstants(t *testing.T) {
	assert.Equal(t, 0, ExitSuccess)
	assert.Equal(t, 1, ExitGeneralError)
	assert.Equal(t, 2, ExitValidationError)
	assert.Equal(t, 3, ExitResolutionError)
	assert.Equal(t, 4, ExitAcquisitionError)
	assert.Equal(t, 5, ExitNotFound)
	assert.Equal(t, 6, ExitMaterializationError)
	assert.Equal(t, 7, ExitInstallError)
}

func TestExitCodeName(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{ExitSuccess, "Success"},
		{ExitGeneralError, "General Error"},
		{ExitValidationError, "Validation Error"},
		{ExitResolutionError, "Resolution Error"},
		{ExitAcquisitionError, "Capsule Acquisition Error"},
		{ExitNotFound, "Not Found"},
		{ExitMaterializationError, "Materialization Error"},
		{ExitInstallError, "Install Error"},
		{999, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExitCodeName(tt.code))
		})
	}
}
