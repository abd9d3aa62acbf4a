package errors

import "errors"

// Sentinel errors for known conditions.
var (
	// ErrValidation indicates invalid options or configuration.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a component, manifest, or file was not found.
	ErrNotFound = errors.New("not found")

	// ErrResolution indicates the dependency graph could not be built,
	// either because no workspace or scope is available or because loading failed.
	ErrResolution = errors.New("resolution failed")

	// ErrCapsuleAcquisition indicates the capsule pool could not create or return a capsule.
	ErrCapsuleAcquisition = errors.New("capsule acquisition failed")

	// ErrMaterialization indicates writing files or links into a capsule failed.
	ErrMaterialization = errors.New("materialization failed")

	// ErrInstall indicates the package manager failed for one or more capsules.
	ErrInstall = errors.New("install failed")
)
