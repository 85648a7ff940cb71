// Package release drives a module release from version resolution to job
// submission.
package release

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	oerrors "github.com/modrel/cli/internal/errors"
	"github.com/modrel/cli/internal/identity"
	"github.com/modrel/cli/internal/output"
	"github.com/modrel/cli/internal/queue"
	"github.com/modrel/cli/internal/script"
	"github.com/modrel/cli/internal/target"
	"github.com/modrel/cli/internal/vcs"
)

// Stage is a step of the release state machine.
type Stage int

// Stages in execution order.
const (
	StageResolveTarget Stage = iota
	StageResolveVersion
	StageValidateToolchain
	StageLocalTestBuild
	StagePrepareJob
	StageTagRelease
	StageSubmitJob
	StageDone
)

var stageNames = map[Stage]string{
	StageResolveTarget:     "resolve-target",
	StageResolveVersion:    "resolve-version",
	StageValidateToolchain: "validate-toolchain",
	StageLocalTestBuild:    "local-test-build",
	StagePrepareJob:        "prepare-job",
	StageTagRelease:        "tag-release",
	StageSubmitJob:         "submit-job",
	StageDone:              "done",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Outcome is how a release attempt ended.
type Outcome string

const (
	// OutcomeSubmitted means a job is in the queue.
	OutcomeSubmitted Outcome = "submitted"

	// OutcomeLocalOnly means the local test build passed and nothing else ran.
	OutcomeLocalOnly Outcome = "local-only"

	// OutcomeCancelled means the user declined a confirmation.
	OutcomeCancelled Outcome = "cancelled"

	// OutcomeFailed means a stage returned an error.
	OutcomeFailed Outcome = "failed"
)

// Options is one release request.
type Options struct {
	// Area and Module identify the module.
	Area   string
	Module string

	// Version is an explicit release version. Empty computes the next one.
	Version string

	// Branch is the source branch. Empty uses the default branch.
	Branch string

	// Commit pins the source to a commit. It takes precedence over Branch.
	Commit string

	// Force allows releasing a version that is already tagged.
	Force bool

	// SkipTest skips the local test build.
	SkipTest bool

	// LocalOnly stops after the local test build.
	LocalOnly bool

	// TestFarm builds on the farm into the work area without tagging.
	TestFarm bool

	// Target holds explicit OS, server and toolchain choices.
	Target target.Request

	// Message annotates the release tag.
	Message string
}

// ToolchainMismatch is the warning raised when a module declares a
// different toolchain than the target builds with.
type ToolchainMismatch struct {
	Module   string
	Declared string
	Target   string
}

// Prompt returns the question put to the user.
func (m ToolchainMismatch) Prompt() string {
	return fmt.Sprintf("%s declares toolchain %s but the build server uses %s. Continue?",
		m.Module, m.Declared, m.Target)
}

// ConfirmFunc asks the user to accept a toolchain mismatch.
type ConfirmFunc func(ToolchainMismatch) (bool, error)

// Renderer renders build scripts.
type Renderer interface {
	Render(t target.Target, scriptName string, p script.Params) (string, error)
}

// Submitter publishes jobs to the build farm queue.
type Submitter interface {
	Submit(job queue.Job) (queue.EntryID, error)
	Dir() string
}

// LocalBuilder runs test builds on the invoking host.
type LocalBuilder interface {
	Workspace() (queue.Workspace, error)
	Run(ctx context.Context, ws queue.Workspace, job queue.Job) (queue.RunResult, error)
}

// Deps are the orchestrator's collaborators. Submitter may be nil when
// every run is local-only.
type Deps struct {
	Catalog   *target.Catalog
	Host      target.Host
	VCS       vcs.VCS
	Renderer  Renderer
	Submitter Submitter
	Builder   LocalBuilder
	Requester identity.Requester
	Confirm   ConfirmFunc

	// Now defaults to time.Now.
	Now func() time.Time
}

// Result summarizes a release attempt.
type Result struct {
	// Stage is the last stage that ran.
	Stage   Stage
	Outcome Outcome

	Version string
	Target  target.Target

	// JobName and QueueDir locate the submitted queue entry.
	JobName  string
	QueueDir string

	// Workspace is a preserved local build directory, set when the local
	// test build failed.
	Workspace string

	// Tagged reports whether this attempt created a release tag.
	Tagged bool

	// ExitCode is the process exit code for this result.
	ExitCode int
}

// Orchestrator runs releases. It holds no per-release state and may be
// reused.
type Orchestrator struct {
	deps Deps
}

// New creates an orchestrator.
func New(deps Deps) *Orchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Confirm == nil {
		deps.Confirm = func(ToolchainMismatch) (bool, error) { return false, nil }
	}
	return &Orchestrator{deps: deps}
}

// step is the typed result of one stage: the stage to run next, or an
// outcome that ends the run early, or an error.
type step struct {
	next    Stage
	outcome Outcome
	err     error
}

func next(s Stage) step   { return step{next: s} }
func stop(o Outcome) step { return step{outcome: o} }
func fail(err error) step { return step{err: err} }

// run is the state of one release attempt.
type run struct {
	opts       Options
	coord      vcs.Coordinate
	scriptName string

	// sourceRef is what the release is cut from.
	sourceRef string
	tagExists bool

	job    queue.Job
	result *Result
	log    *log.Logger
}

// Run executes a release. The returned Result is always non-nil; on failure
// it records the stage that failed and the exit code for the error.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Result, error) {
	r := &run{
		opts: opts,
		coord: vcs.Coordinate{
			Area:   opts.Area,
			Module: opts.Module,
			Branch: opts.Branch,
		},
		result: &Result{Stage: StageResolveTarget},
		log:    output.ReleaseLogger(opts.Module),
	}

	stages := map[Stage]func(context.Context, *run) step{
		StageResolveTarget:     o.resolveTarget,
		StageResolveVersion:    o.resolveVersion,
		StageValidateToolchain: o.validateToolchain,
		StageLocalTestBuild:    o.localTestBuild,
		StagePrepareJob:        o.prepareJob,
		StageTagRelease:        o.tagRelease,
		StageSubmitJob:         o.submitJob,
	}

	stage := StageResolveTarget
	for stage != StageDone {
		r.result.Stage = stage
		r.log.Debug("stage", "name", stage)

		s := stages[stage](ctx, r)
		switch {
		case s.err != nil:
			r.result.Outcome = OutcomeFailed
			r.result.ExitCode = oerrors.ExitCodeFromError(s.err)
			return r.result, s.err
		case s.outcome != "":
			r.result.Outcome = s.outcome
			r.result.ExitCode = oerrors.ExitSuccess
			return r.result, nil
		}
		stage = s.next
	}

	r.result.Stage = StageDone
	r.result.Outcome = OutcomeSubmitted
	r.result.ExitCode = oerrors.ExitSuccess
	return r.result, nil
}
