package release

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modrel/cli/internal/identity"
	"github.com/modrel/cli/internal/queue"
	"github.com/modrel/cli/internal/script"
	"github.com/modrel/cli/internal/target"
	"github.com/modrel/cli/internal/vcs"
)

// newEtcRemote creates a bare remote for etc/mymod under a fresh server
// directory and returns the server directory.
func newEtcRemote(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("local builds run POSIX shell scripts")
	}
	for _, tool := range []string{"git", "bash"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available", tool)
		}
	}

	git := func(dir string, args ...string) {
		t.Helper()
		args = append([]string{"-c", "user.name=Test", "-c", "user.email=test@example.com", "-c", "commit.gpgsign=false"}, args...)
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "%s", out)
	}

	work := t.TempDir()
	git(work, "init", "--quiet")
	require.NoError(t, os.WriteFile(filepath.Join(work, "motor.substitutions"), []byte("file motor.template {}\n"), 0o644))
	git(work, "add", ".")
	git(work, "commit", "--quiet", "-m", "initial")

	server := t.TempDir()
	bare := filepath.Join(server, "etc", "mymod")
	require.NoError(t, os.MkdirAll(filepath.Dir(bare), 0o755))
	git(work, "clone", "--quiet", "--bare", work, bare)
	return server
}

func TestReleaseLocalOnlyBuildsFromDefaultBranch(t *testing.T) {
	server := newEtcRemote(t)

	c, err := target.Parse([]byte(testCatalog + "  etc:\n    scripts: {Linux: etc}\n"))
	require.NoError(t, err)

	orch := New(Deps{
		Catalog:  c,
		Host:     host,
		VCS:      vcs.NewGit(vcs.Config{Server: "file://" + server}),
		Renderer: script.NewGenerator(c, host),
		Builder: queue.NewLocalRunner(queue.RunnerOptions{
			TempDir:  t.TempDir(),
			Timeout:  time.Minute,
			AllowEnv: []string{"PATH"},
		}),
		Requester: identity.Requester{User: "abc12345", Email: "abc12345@example.com"},
		Now:       func() time.Time { return fixedNow },
	})

	res, err := orch.Run(context.Background(), Options{Area: "etc", Module: "mymod", LocalOnly: true})
	require.NoError(t, err, "workspace %s", res.Workspace)
	assert.Equal(t, OutcomeLocalOnly, res.Outcome)
	assert.Equal(t, "0-1", res.Version)
	assert.Empty(t, res.Workspace, "a passing build removes its workspace")
}
