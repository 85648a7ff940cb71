package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/modrel/cli/internal/errors"
	"github.com/modrel/cli/internal/output"
	"github.com/modrel/cli/internal/queue"
	"github.com/modrel/cli/internal/target"
	"github.com/modrel/cli/internal/vcs"
)

const testCatalog = `
oses:
  Linux:
    dialect: shell
    root: /shared
    servers:
      redhat7-x86_64: [R3.14.12.3, R3.14.12.7]
      rhel8-x86_64: [R3.14.12.7, R7.0.7]
  Windows:
    dialect: batch
    root: "W:"
    defaultServer: windows6_3-AMD64
    servers:
      windows6_3-AMD64: [R3.14.12.7]
aliases:
  "7": redhat7-x86_64
  rhel7-x86_64: redhat7-x86_64
areas:
  support:
    toolchain: true
    scripts: {Linux: support, Windows: support}
  python3:
    layout: "{area}/{server}"
    scripts: {Linux: python3}
`

var testHost = target.Host{OS: target.OSLinux, Distro: "rhel", Major: "8", Arch: "x86_64", Toolchain: "R3.14.12.7"}

func testCatalogFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))
	return path
}

func parseTestCatalog(t *testing.T) *target.Catalog {
	t.Helper()
	c, err := target.Parse([]byte(testCatalog))
	require.NoError(t, err)
	return c
}

// captureLog redirects log output into a buffer for the duration of a test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	output.SetupLogging(output.LogConfig{Timestamps: output.BoolPtr(false)})
	output.SetLogWriter(&buf)
	t.Cleanup(func() { output.SetupLogging(output.LogConfig{}) })
	return &buf
}

func assertExitCode(t *testing.T, err error, code int) {
	t.Helper()
	var exitErr *oerrors.ExitError
	require.True(t, errors.As(err, &exitErr), "expected ExitError, got %v", err)
	assert.Equal(t, code, exitErr.Code)
	assert.True(t, exitErr.Printed)
}

func plain(b *bytes.Buffer) string {
	return ansi.Strip(b.String())
}

// fakeVCS serves canned tags and records tag calls.
type fakeVCS struct {
	tags     []string
	files    map[string]string
	listErr  error
	tagCalls []string
}

func (f *fakeVCS) ListReleases(_ context.Context, _ vcs.Coordinate) ([]string, error) {
	return slices.Clone(f.tags), f.listErr
}

func (f *fakeVCS) TagAndPush(_ context.Context, _ vcs.Coordinate, tag, ref, _ string) error {
	f.tagCalls = append(f.tagCalls, tag+"@"+ref)
	return nil
}

func (f *fakeVCS) ReadFileAt(_ context.Context, _ vcs.Coordinate, file, _ string) ([]byte, error) {
	content, ok := f.files[file]
	if !ok {
		return nil, fmt.Errorf("%s: %w", file, vcs.ErrNotFound)
	}
	return []byte(content), nil
}

func (f *fakeVCS) IsValidTag(tag string) bool {
	return tag != "" && tag[0] >= '0' && tag[0] <= '9'
}

func (f *fakeVCS) SourceParams(c vcs.Coordinate, ref string) map[string]string {
	if ref == "" {
		ref = "HEAD"
	}
	return map[string]string{vcs.SourceRepo: "ssh://git.example.com/" + c.Path(), vcs.SourceRef: ref}
}

// fakeBuilder stands in for the local test build runner.
type fakeBuilder struct {
	exitCode int
	ran      bool
}

func (f *fakeBuilder) Workspace() (queue.Workspace, error) {
	return queue.Workspace{ID: "ws", Dir: "/tmp/modrel-ws"}, nil
}

func (f *fakeBuilder) Run(_ context.Context, ws queue.Workspace, _ queue.Job) (queue.RunResult, error) {
	f.ran = true
	return queue.RunResult{ExitCode: f.exitCode, Workspace: ws.Dir, Preserved: f.exitCode != 0}, nil
}
