package queue

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modrel/cli/internal/script"
	"github.com/modrel/cli/internal/target"
	"github.com/modrel/cli/internal/vcs"
)

const etcCatalog = `
oses:
  Linux:
    dialect: shell
    root: /shared
    servers:
      rhel8-x86_64: [R7.0.7]
areas:
  etc:
    scripts: {Linux: etc}
`

var (
	etcHost   = target.Host{OS: target.OSLinux, Distro: "rhel", Major: "8", Arch: "x86_64"}
	etcTarget = target.Target{OS: target.OSLinux, Server: "rhel8-x86_64", Toolchain: "R7.0.7"}
	etcModule = vcs.Coordinate{Area: "etc", Module: "mymod"}
)

// moduleRepo is a module remote served from the local filesystem.
type moduleRepo struct {
	server string
	// first is the commit before the default branch head.
	first string
}

func requireTools(t *testing.T, tools ...string) {
	t.Helper()
	skipOnWindows(t)
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available", tool)
		}
	}
}

func gitCmd(t *testing.T, dir string, args ...string) string {
	t.Helper()
	args = append([]string{
		"-c", "user.name=Test", "-c", "user.email=test@example.com",
		"-c", "commit.gpgsign=false", "-c", "init.defaultBranch=main",
	}, args...)
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

func commitFile(t *testing.T, dir, name, content, message string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	gitCmd(t, dir, "add", name)
	gitCmd(t, dir, "commit", "--quiet", "-m", message)
}

// newModuleRepo creates a bare remote for etcModule holding two commits on
// main and one on a feature branch. VERSION names the commit's content.
func newModuleRepo(t *testing.T) moduleRepo {
	t.Helper()
	work := t.TempDir()
	gitCmd(t, work, "init", "--quiet")
	commitFile(t, work, "VERSION", "one\n", "first")
	first := gitCmd(t, work, "rev-parse", "HEAD")
	commitFile(t, work, "VERSION", "two\n", "second")

	gitCmd(t, work, "checkout", "--quiet", "-b", "feature")
	commitFile(t, work, "VERSION", "feature\n", "feature work")
	gitCmd(t, work, "checkout", "--quiet", "main")

	server := t.TempDir()
	bare := filepath.Join(server, etcModule.Path())
	require.NoError(t, os.MkdirAll(filepath.Dir(bare), 0o755))
	gitCmd(t, work, "clone", "--quiet", "--bare", work, bare)

	return moduleRepo{server: server, first: first}
}

// runEtcScript renders the etc script for ref, runs it and returns the
// install directory of version 1-0.
func runEtcScript(t *testing.T, repo moduleRepo, installRoot, ref string, force bool) (RunResult, string) {
	t.Helper()
	c, err := target.Parse([]byte(etcCatalog))
	require.NoError(t, err)

	coord := etcModule
	g := vcs.NewGit(vcs.Config{Server: "file://" + repo.server})
	p := script.Params{
		User:      "abc12345",
		Email:     "abc12345@example.com",
		Toolchain: etcTarget.Toolchain,
		BuildDir:  installRoot,
		Module:    coord.Module,
		Version:   "1-0",
		Area:      coord.Area,
		Force:     force,
		Server:    etcTarget.Server,
		Kind:      script.KindLocal,
		Timestamp: time.Date(2024, 3, 7, 14, 5, 9, 0, time.UTC),
		Source:    g.SourceParams(coord, ref),
	}
	p.BuildName = Name(p, p.Server)

	content, err := script.NewGenerator(c, etcHost).Render(etcTarget, "etc", p)
	require.NoError(t, err)

	r := NewLocalRunner(RunnerOptions{TempDir: t.TempDir(), Timeout: time.Minute, AllowEnv: []string{"PATH"}})
	ws, err := r.Workspace()
	require.NoError(t, err)

	result, err := r.Run(context.Background(), ws, Job{Name: p.BuildName, Script: content, Params: p})
	require.NoError(t, err)
	if !result.Succeeded() {
		log, _ := os.ReadFile(filepath.Join(ws.Dir, BuildLogName))
		t.Logf("build log:\n%s", log)
	}
	return result, filepath.Join(installRoot, coord.Module, "1-0")
}

func readVersion(t *testing.T, dir string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(dir, "VERSION"))
	require.NoError(t, err)
	return strings.TrimSpace(string(content))
}

func TestEtcScriptFetchesSource(t *testing.T) {
	requireTools(t, "git", "bash")
	repo := newModuleRepo(t)

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{name: "default branch", ref: "", want: "two"},
		{name: "commit", ref: repo.first, want: "one"},
		{name: "branch", ref: "feature", want: "feature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, dir := runEtcScript(t, repo, t.TempDir(), tt.ref, false)
			require.True(t, result.Succeeded(), "exit code %d", result.ExitCode)

			assert.Equal(t, tt.want, readVersion(t, dir))
			assert.NoDirExists(t, filepath.Join(dir, ".git"))
		})
	}
}

func TestEtcScriptRefusesExistingRelease(t *testing.T) {
	requireTools(t, "git", "bash")
	repo := newModuleRepo(t)
	installRoot := t.TempDir()
	existing := filepath.Join(installRoot, etcModule.Module, "1-0")
	require.NoError(t, os.MkdirAll(existing, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(existing, "VERSION"), []byte("old\n"), 0o644))

	result, dir := runEtcScript(t, repo, installRoot, "", false)
	assert.Equal(t, 1, result.ExitCode)
	assert.Equal(t, "old", readVersion(t, dir))
}

func TestEtcScriptForceReplacesReadOnlyRelease(t *testing.T) {
	requireTools(t, "git", "bash", "chmod")
	repo := newModuleRepo(t)
	installRoot := t.TempDir()
	t.Cleanup(func() {
		// A failed run may leave read-only directories behind.
		_ = exec.Command("chmod", "-R", "u+w", installRoot).Run()
	})

	// A previous farm build leaves the release read-only.
	existing := filepath.Join(installRoot, etcModule.Module, "1-0")
	require.NoError(t, os.MkdirAll(filepath.Join(existing, "db"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(existing, "db", "stale.db"), []byte("stale\n"), 0o644))
	require.NoError(t, exec.Command("chmod", "-R", "a-w", existing).Run())

	result, dir := runEtcScript(t, repo, installRoot, "", true)
	require.True(t, result.Succeeded(), "exit code %d", result.ExitCode)

	assert.Equal(t, "two", readVersion(t, dir))
	assert.NoFileExists(t, filepath.Join(dir, "db", "stale.db"))
}
