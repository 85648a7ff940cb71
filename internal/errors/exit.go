package errors

import "errors"

// Exit codes returned by the CLI.
const (
	// ExitSuccess indicates the command completed successfully, or the user
	// declined a confirmation and nothing was changed.
	ExitSuccess = 0

	// ExitGeneralError covers build failures and other fatal errors.
	ExitGeneralError = 1

	// ExitConfigurationError indicates an invalid target, area or request.
	ExitConfigurationError = 2

	// ExitVersionConflict indicates the release already exists.
	ExitVersionConflict = 3
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	// Code is the process exit code.
	Code int

	// Err is the underlying error.
	Err error

	// Printed records that the command layer already reported the error.
	Printed bool
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return ExitCodeName(e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCodeName returns the name of the exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitConfigurationError:
		return "Configuration Error"
	case ExitVersionConflict:
		return "Version Conflict"
	default:
		return "Unknown"
	}
}

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, ErrConfiguration):
		return ExitConfigurationError
	case errors.Is(err, ErrVersionConflict):
		return ExitVersionConflict
	default:
		return ExitGeneralError
	}
}
