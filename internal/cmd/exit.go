// Package cmd provides command implementations for the capsule CLI.
package cmd

// Exit codes returned by the capsule CLI.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitValidationError indicates invalid arguments, options or configuration.
	ExitValidationError = 2

	// ExitResolutionError indicates the dependency graph could not be built.
	ExitResolutionError = 3

	// ExitAcquisitionError indicates a capsule could not be created or reused.
	ExitAcquisitionError = 4

	// ExitNotFound indicates a manifest, config or component was not found.
	ExitNotFound = 5

	// ExitMaterializationError indicates writing capsule files failed.
	ExitMaterializationError = 6

	// ExitInstallError indicates the package manager failed.
	ExitInstallError = 7
)

// ExitCodeName returns the name of the exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitValidationError:
		return "Validation Error"
	case ExitResolutionError:
		return "Resolution Error"
	case ExitAcquisitionError:
		return "Capsule Acquisition Error"
	case ExitNotFound:
		return "Not Found"
	case ExitMaterializationError:
		return "Materialization Error"
	case ExitInstallError:
		return "Install Error"
	default:
		return "Unknown"
	}
}
