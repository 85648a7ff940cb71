package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/modrel/cli/internal/output"
)

// DefaultAllowEnv is the environment a local test build inherits when no
// allow-list is configured. The build needs the SSH agent to fetch sources.
var DefaultAllowEnv = []string{"SSH_*"}

// BuildLogName is the file in the workspace that receives the build output.
const BuildLogName = "build.log"

// Workspace is an isolated directory for one local test build.
type Workspace struct {
	// ID is unique per workspace.
	ID string

	// Dir is the absolute directory path.
	Dir string
}

// RunResult describes a finished local test build.
type RunResult struct {
	// ExitCode is the script's exit status, -1 if it was killed.
	ExitCode int

	// Workspace is the build directory.
	Workspace string

	// Preserved reports whether the workspace was kept for diagnosis.
	Preserved bool

	// Duration is how long the script ran.
	Duration time.Duration
}

// Succeeded reports whether the script exited with status 0.
func (r RunResult) Succeeded() bool {
	return r.ExitCode == 0
}

// RunnerOptions configures a LocalRunner.
type RunnerOptions struct {
	// TempDir is where workspaces are created. Empty uses os.TempDir.
	TempDir string

	// Timeout bounds a build. Zero waits forever.
	Timeout time.Duration

	// AllowEnv lists inherited variables. A trailing "*" matches a prefix.
	// nil uses DefaultAllowEnv.
	AllowEnv []string

	// Output additionally receives the build output, e.g. os.Stderr in
	// verbose mode.
	Output io.Writer
}

// LocalRunner executes test builds on the invoking host.
type LocalRunner struct {
	opts    RunnerOptions
	environ func() []string
}

// NewLocalRunner creates a runner.
func NewLocalRunner(opts RunnerOptions) *LocalRunner {
	if opts.AllowEnv == nil {
		opts.AllowEnv = DefaultAllowEnv
	}
	return &LocalRunner{opts: opts, environ: os.Environ}
}

// Workspace creates a fresh build directory.
func (r *LocalRunner) Workspace() (Workspace, error) {
	id := uuid.NewString()
	dir, err := os.MkdirTemp(r.opts.TempDir, "modrel-"+id[:8]+"-")
	if err != nil {
		return Workspace{}, fmt.Errorf("creating build workspace: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Workspace{}, fmt.Errorf("resolving build workspace: %w", err)
	}
	return Workspace{ID: id, Dir: abs}, nil
}

// Run writes the job's script into ws and executes it with a sanitized
// environment, blocking until it exits or the timeout expires. The
// workspace is removed when the script succeeds and kept otherwise.
//
// A non-zero exit is reported in the result, not as an error. The error is
// reserved for scripts that could not be started or did not finish.
func (r *LocalRunner) Run(ctx context.Context, ws Workspace, job Job) (RunResult, error) {
	result := RunResult{ExitCode: -1, Workspace: ws.Dir, Preserved: true}

	path, args := scriptCommand(ws.Dir, job.Name)
	if err := os.WriteFile(path, []byte(job.Script), 0o755); err != nil {
		return result, fmt.Errorf("writing build script: %w", err)
	}
	// WriteFile honours the umask.
	if err := os.Chmod(path, 0o755); err != nil {
		return result, fmt.Errorf("marking build script executable: %w", err)
	}

	logFile, err := os.Create(filepath.Join(ws.Dir, BuildLogName))
	if err != nil {
		return result, fmt.Errorf("creating build log: %w", err)
	}
	defer logFile.Close()

	var out io.Writer = logFile
	if r.opts.Output != nil {
		out = io.MultiWriter(logFile, r.opts.Output)
	}

	runCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	cmd.Dir = ws.Dir
	cmd.Env = sanitizeEnv(r.environ(), r.opts.AllowEnv)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = time.Second

	output.Debug("running local test build", "script", path, "timeout", r.opts.Timeout)
	start := time.Now()
	err = cmd.Run()
	result.Duration = time.Since(start)

	if runCtx.Err() != nil {
		return result, fmt.Errorf("local test build did not finish: %w", runCtx.Err())
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return result, fmt.Errorf("starting local test build: %w", err)
	}

	if result.Succeeded() {
		logFile.Close()
		if err := os.RemoveAll(ws.Dir); err != nil {
			output.Warn("could not remove build workspace", "path", ws.Dir, "err", err)
			return result, nil
		}
		result.Preserved = false
	}
	return result, nil
}

// scriptCommand returns where to write the script and how to execute it.
func scriptCommand(dir, name string) (string, []string) {
	if runtime.GOOS == "windows" {
		path := filepath.Join(dir, name+".bat")
		return path, []string{"cmd.exe", "/c", path}
	}
	path := filepath.Join(dir, name)
	return path, []string{path}
}

// sanitizeEnv keeps only the allowed variables of environ.
func sanitizeEnv(environ, allow []string) []string {
	env := []string{}
	for _, kv := range environ {
		name, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if envAllowed(name, allow) {
			env = append(env, kv)
		}
	}
	return env
}

func envAllowed(name string, allow []string) bool {
	for _, pattern := range allow {
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(name, prefix) {
				return true
			}
			continue
		}
		if name == pattern {
			return true
		}
	}
	return false
}
