// Package errors provides the error taxonomy and exit codes for the modrel CLI.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for known conditions.
var (
	// ErrConfiguration indicates an invalid area/OS/server/toolchain combination
	// or an invalid request. Raised before any mutating step runs.
	ErrConfiguration = errors.New("configuration error")

	// ErrVersionConflict indicates the requested release tag already exists.
	ErrVersionConflict = errors.New("version conflict")

	// ErrBuildFailure indicates the local test build exited non-zero.
	ErrBuildFailure = errors.New("build failure")

	// ErrVCS indicates a tag creation or push failure.
	ErrVCS = errors.New("vcs operation failed")

	// ErrSubmission indicates the queue write failed.
	ErrSubmission = errors.New("submission failed")
)

// DetailError captures structured error information for user-facing output.
type DetailError struct {
	// Type is the error category (required).
	Type string

	// Message is the specific description (required).
	Message string

	// Location is a file path or queue entry the error relates to (optional).
	Location string

	// Context contains additional key-value context (optional).
	Context map[string]string

	// Hint provides actionable guidance (optional).
	Hint string

	// Kind is the sentinel this error is classified as.
	Kind error

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
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	b.WriteString("\n")

	if e.Hint != "" {
		b.WriteString("\nHint: ")
		b.WriteString(e.Hint)
		b.WriteString("\n")
	}

	return b.String()
}

// Unwrap returns the sentinel kind and the underlying cause.
func (e *DetailError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// NewConfigurationError creates a configuration error with details.
func NewConfigurationError(message string, context map[string]string, hint string) error {
	return &DetailError{
		Type:    "invalid configuration",
		Message: message,
		Context: context,
		Hint:    hint,
		Kind:    ErrConfiguration,
	}
}

// NewVersionConflictError creates a version conflict error for an existing tag.
func NewVersionConflictError(module, version string) error {
	return &DetailError{
		Type:    "version conflict",
		Message: fmt.Sprintf("release %s of %s already exists", version, module),
		Context: map[string]string{"Module": module, "Version": version},
		Hint:    "Use --force to rebuild an existing release",
		Kind:    ErrVersionConflict,
	}
}

// NewBuildFailureError creates a local test build failure error.
// The workspace is preserved for diagnosis and reported as the location.
func NewBuildFailureError(exitCode int, workspace string, cause error) error {
	return &DetailError{
		Type:     "local test build failed",
		Message:  fmt.Sprintf("build script exited with status %d", exitCode),
		Location: workspace,
		Hint:     "Inspect the build directory for logs; it has not been removed",
		Kind:     ErrBuildFailure,
		Cause:    cause,
	}
}

// NewVCSError creates a VCS operation error.
func NewVCSError(message string, cause error) error {
	return &DetailError{
		Type:    "vcs operation failed",
		Message: message,
		Kind:    ErrVCS,
		Cause:   cause,
	}
}

// NewSubmissionError creates a queue submission error.
func NewSubmissionError(message, location string, cause error) error {
	return &DetailError{
		Type:     "job submission failed",
		Message:  message,
		Location: location,
		Kind:     ErrSubmission,
		Cause:    cause,
	}
}

// Wrap wraps an error with a sentinel error type.
func Wrap(sentinel error, message string) error {
	return fmt.Errorf("%s: %w", message, sentinel)
}
