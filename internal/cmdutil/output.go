package cmdutil

import (
	"errors"
	"strings"

	"github.com/modrel/cli/internal/config"
	oerrors "github.com/modrel/cli/internal/errors"
	"github.com/modrel/cli/internal/output"
	"github.com/modrel/cli/internal/target"
)

// PrintError reports err in a user-friendly format and returns it wrapped in
// an ExitError marked as printed, carrying the exit code for its category.
//
// Structured errors print a summary line followed by their details as plain
// text; anything else falls back to the key-value log format.
func PrintError(msg string, err error) error {
	var (
		detail    *oerrors.DetailError
		catalogVE *target.ValidationError
		configVE  *config.ValidationError
	)

	switch {
	case errors.As(err, &detail):
		output.Error(msg)
		output.Details(strings.TrimPrefix(detail.Error(), "Error: "))
	case errors.As(err, &catalogVE):
		output.Error(msg + ": catalog validation failed")
		output.Details(catalogVE.Details)
	case errors.As(err, &configVE):
		summary := msg + ": config validation failed"
		if configVE.File != "" {
			summary += " for " + configVE.File
		}
		output.Error(summary)
		output.Details(configVE.Details)
	default:
		output.Error(msg, "error", err)
	}

	return &oerrors.ExitError{
		Code:    oerrors.ExitCodeFromError(err),
		Err:     err,
		Printed: true,
	}
}
