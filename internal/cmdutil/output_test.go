package cmdutil

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modrel/cli/internal/config"
	oerrors "github.com/modrel/cli/internal/errors"
	"github.com/modrel/cli/internal/output"
	"github.com/modrel/cli/internal/target"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	output.SetupLogging(output.LogConfig{Timestamps: output.BoolPtr(false)})
	output.SetLogWriter(&buf)
	t.Cleanup(func() { output.SetupLogging(output.LogConfig{}) })
	return &buf
}

func assertExitError(t *testing.T, err, cause error, code int) {
	t.Helper()
	var exitErr *oerrors.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.True(t, exitErr.Printed)
	assert.Equal(t, code, exitErr.Code)
	assert.ErrorIs(t, err, cause)
}

func TestPrintError_DetailError(t *testing.T) {
	buf := captureOutput(t)

	cause := oerrors.NewConfigurationError("server 7 does not support toolchain R7.0.7",
		map[string]string{"Server": "redhat7-x86_64"}, "Supported toolchains: R3.14.12.7")
	err := PrintError("release failed", cause)

	out := buf.String()
	assert.Contains(t, out, "release failed")
	assert.Contains(t, out, "Server: redhat7-x86_64")
	assert.Contains(t, out, "Hint: Supported toolchains")
	assert.NotContains(t, out, "Error: configuration error")
	assertExitError(t, err, cause, oerrors.ExitConfigurationError)
}

func TestPrintError_ValidationErrors(t *testing.T) {
	t.Run("catalog", func(t *testing.T) {
		buf := captureOutput(t)
		cause := &target.ValidationError{Details: "oses.Linux.dialect: 2 errors in empty disjunction"}

		err := PrintError("loading catalog", cause)
		assert.Contains(t, buf.String(), "catalog validation failed")
		assert.Contains(t, buf.String(), "  oses.Linux.dialect")
		assertExitError(t, err, cause, oerrors.ExitGeneralError)
	})

	t.Run("config", func(t *testing.T) {
		buf := captureOutput(t)
		cause := &config.ValidationError{File: "/home/u/.modrel/config.yaml", Details: "namespace: field not allowed"}

		err := PrintError("config vet", cause)
		assert.Contains(t, buf.String(), "config validation failed for /home/u/.modrel/config.yaml")
		assert.Contains(t, buf.String(), "  namespace: field not allowed")
		assertExitError(t, err, cause, oerrors.ExitGeneralError)
	})
}

func TestPrintError_Plain(t *testing.T) {
	buf := captureOutput(t)
	cause := errors.New("disk full")

	err := PrintError("submitting job", cause)
	assert.Contains(t, buf.String(), "submitting job")
	assert.Contains(t, buf.String(), "disk full")
	assertExitError(t, err, cause, oerrors.ExitGeneralError)
}

func TestPrintError_VersionConflict(t *testing.T) {
	captureOutput(t)
	cause := oerrors.NewVersionConflictError("support/motion", "1-2")

	err := PrintError("release failed", cause)
	assertExitError(t, err, oerrors.ErrVersionConflict, oerrors.ExitVersionConflict)
}
