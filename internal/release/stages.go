package release

import (
	"context"
	"errors"
	"fmt"
	"slices"

	oerrors "github.com/modrel/cli/internal/errors"
	"github.com/modrel/cli/internal/queue"
	"github.com/modrel/cli/internal/reltag"
	"github.com/modrel/cli/internal/script"
	"github.com/modrel/cli/internal/vcs"
)

// Build trees below the shared root.
const (
	TreeProd = "prod"
	TreeWork = "work"
)

// resolveTarget validates the request and picks the build target and area
// script. Nothing outside the catalog is touched.
func (o *Orchestrator) resolveTarget(_ context.Context, r *run) step {
	opts := r.opts
	switch {
	case opts.Area == "":
		return fail(oerrors.NewConfigurationError("no area given", nil, ""))
	case opts.Module == "":
		return fail(oerrors.NewConfigurationError("no module given", nil, ""))
	case opts.LocalOnly && opts.SkipTest:
		return fail(oerrors.NewConfigurationError("a local-only release cannot skip the test build",
			nil, "Drop --skip-test or --local-only"))
	case opts.LocalOnly && opts.TestFarm:
		return fail(oerrors.NewConfigurationError("a release cannot be both local-only and a farm test build",
			nil, "Choose one of --local-only and --test-farm"))
	}

	t, err := o.deps.Catalog.Resolve(o.deps.Host, opts.Target)
	if err != nil {
		return fail(err)
	}
	scriptName, err := o.deps.Catalog.Script(t.OS, opts.Area)
	if err != nil {
		return fail(err)
	}
	if opts.LocalOnly && !o.deps.Catalog.CanRunLocalTestBuild(o.deps.Host, t) {
		return fail(oerrors.NewConfigurationError(
			fmt.Sprintf("%s cannot be test-built on this host", t),
			map[string]string{"Target": t.String(), "Host": o.deps.Host.ServerName()},
			"Drop --local-only or target this host's own server and toolchain"))
	}

	r.result.Target = t
	r.scriptName = scriptName
	r.log.Info("resolved target", "os", t.OS, "server", t.Server, "toolchain", t.Toolchain)
	return next(StageResolveVersion)
}

// resolveVersion settles the release tag and where it is cut from.
func (o *Orchestrator) resolveVersion(ctx context.Context, r *run) step {
	tags, err := o.deps.VCS.ListReleases(ctx, r.coord)
	if err != nil {
		return fail(oerrors.NewVCSError("listing releases of "+r.coord.Path(), err))
	}

	version := reltag.Next(tags)
	if r.opts.Version != "" {
		version = reltag.NormalizeSeparators(r.opts.Version)
		if !o.deps.VCS.IsValidTag(version) {
			return fail(oerrors.NewConfigurationError(
				fmt.Sprintf("invalid release version %q", r.opts.Version),
				map[string]string{"Version": version},
				"Versions look like 1-2 or 4-5dls2-3"))
		}
	}

	r.tagExists = slices.Contains(tags, version)
	if r.tagExists && !r.opts.Force {
		return fail(oerrors.NewVersionConflictError(r.coord.Path(), version))
	}

	switch {
	case r.opts.Commit != "":
		r.sourceRef = r.opts.Commit
	case r.tagExists && !r.opts.TestFarm:
		// Rebuild the existing release from its own tag.
		r.sourceRef = version
	default:
		r.sourceRef = r.opts.Branch
	}

	r.result.Version = version
	r.log.Info("resolved version", "version", version, "existing", r.tagExists)

	if o.deps.Catalog.ToolchainMeaningful(r.opts.Area) {
		return next(StageValidateToolchain)
	}
	return next(StageLocalTestBuild)
}

// validateToolchain compares the toolchain the module declares with the
// target's and asks before building against a different one.
func (o *Orchestrator) validateToolchain(ctx context.Context, r *run) step {
	content, err := o.deps.VCS.ReadFileAt(ctx, r.coord, ReleaseFile, r.sourceRef)
	if errors.Is(err, vcs.ErrNotFound) {
		r.log.Debug("no release file, skipping toolchain check", "file", ReleaseFile)
		return next(StageLocalTestBuild)
	}
	if errors.Is(err, vcs.ErrUnknownRef) {
		return fail(oerrors.NewVCSError("source reference does not exist in "+r.coord.String(), err))
	}
	if err != nil {
		return fail(oerrors.NewVCSError("reading "+ReleaseFile, err))
	}

	declared := ExtractToolchain(content)
	if declared == "" || declared == r.result.Target.Toolchain {
		return next(StageLocalTestBuild)
	}

	mismatch := ToolchainMismatch{
		Module:   r.coord.Path(),
		Declared: declared,
		Target:   r.result.Target.Toolchain,
	}
	r.log.Warn("toolchain mismatch", "declared", declared, "target", mismatch.Target)
	ok, err := o.deps.Confirm(mismatch)
	if err != nil {
		return fail(fmt.Errorf("confirming toolchain mismatch: %w", err))
	}
	if !ok {
		r.log.Info("release cancelled")
		return stop(OutcomeCancelled)
	}
	return next(StageLocalTestBuild)
}

// localTestBuild compiles the release on this host when it can.
func (o *Orchestrator) localTestBuild(ctx context.Context, r *run) step {
	t := r.result.Target
	switch {
	case r.opts.SkipTest:
		r.log.Info("skipping local test build")
		return next(StagePrepareJob)
	case !o.deps.Catalog.CanRunLocalTestBuild(o.deps.Host, t):
		r.log.Info("target cannot be test-built on this host, skipping local test build", "target", t)
		return next(StagePrepareJob)
	}

	ws, err := o.deps.Builder.Workspace()
	if err != nil {
		return fail(fmt.Errorf("preparing local test build: %w", err))
	}

	job, err := o.job(r, script.KindLocal, ws.Dir, r.sourceRef)
	if err != nil {
		return fail(err)
	}

	r.log.Info("running local test build", "workspace", ws.Dir)
	res, err := o.deps.Builder.Run(ctx, ws, job)
	if err != nil || !res.Succeeded() {
		if res.Preserved {
			r.result.Workspace = res.Workspace
		}
		return fail(oerrors.NewBuildFailureError(res.ExitCode, res.Workspace, err))
	}
	r.log.Info("local test build passed", "duration", res.Duration)

	if r.opts.LocalOnly {
		return stop(OutcomeLocalOnly)
	}
	return next(StagePrepareJob)
}

// prepareJob renders the farm job before anything is tagged, so template
// and parameter errors cannot leave an orphan tag.
func (o *Orchestrator) prepareJob(_ context.Context, r *run) step {
	tree, ref := TreeProd, r.result.Version
	if r.opts.TestFarm {
		tree, ref = TreeWork, r.sourceRef
	}

	buildDir := o.deps.Catalog.BuildDir(o.sharedRoot(r), tree, r.result.Target, r.opts.Area)
	job, err := o.job(r, script.KindBuild, buildDir, ref)
	if err != nil {
		return fail(err)
	}
	r.job = job
	return next(StageTagRelease)
}

// tagRelease creates and pushes the release tag.
func (o *Orchestrator) tagRelease(ctx context.Context, r *run) step {
	switch {
	case r.opts.TestFarm:
		r.log.Info("farm test build, not tagging")
		return next(StageSubmitJob)
	case r.tagExists:
		r.log.Info("release already tagged, rebuilding", "tag", r.result.Version)
		return next(StageSubmitJob)
	}

	version := r.result.Version
	err := o.deps.VCS.TagAndPush(ctx, r.coord, version, r.sourceRef, r.opts.Message)
	switch {
	case errors.Is(err, vcs.ErrPush):
		return fail(oerrors.NewVCSError(
			fmt.Sprintf("tag %s was created but could not be pushed", version), err))
	case err != nil:
		return fail(oerrors.NewVCSError(fmt.Sprintf("could not create tag %s", version), err))
	}

	r.result.Tagged = true
	r.log.Info("tagged release", "tag", version)
	return next(StageSubmitJob)
}

// submitJob publishes the prepared job. A failure here leaves any tag
// created by tagRelease in place.
func (o *Orchestrator) submitJob(_ context.Context, r *run) step {
	id, err := o.deps.Submitter.Submit(r.job)
	if err != nil {
		if !errors.Is(err, oerrors.ErrSubmission) {
			err = oerrors.NewSubmissionError("could not submit job", o.deps.Submitter.Dir(), err)
		}
		return fail(err)
	}

	r.result.JobName = string(id)
	r.result.QueueDir = o.deps.Submitter.Dir()
	r.log.Info("submitted job", "name", id, "queue", r.result.QueueDir)
	return next(StageDone)
}

// job renders a job of the given kind.
func (o *Orchestrator) job(r *run, kind script.Kind, buildDir, ref string) (queue.Job, error) {
	t := r.result.Target
	p := script.Params{
		User:      o.deps.Requester.User,
		Email:     o.deps.Requester.Email,
		Toolchain: t.Toolchain,
		BuildDir:  buildDir,
		Module:    r.opts.Module,
		Version:   r.result.Version,
		Area:      r.opts.Area,
		Force:     r.opts.Force,
		Server:    t.Server,
		Kind:      kind,
		Timestamp: o.deps.Now(),
		Source:    o.deps.VCS.SourceParams(r.coord, ref),
	}
	p.BuildName = queue.Name(p, o.deps.Catalog.Extension(t))

	content, err := o.deps.Renderer.Render(t, r.scriptName, p)
	if err != nil {
		return queue.Job{}, fmt.Errorf("rendering %s script: %w", kind, err)
	}
	return queue.Job{Name: p.BuildName, Script: content, Params: p}, nil
}

// sharedRoot is the shared filesystem root as the invoking host sees it,
// falling back to the target's view for hosts outside the catalog.
func (o *Orchestrator) sharedRoot(r *run) string {
	if root := o.deps.Catalog.Root(o.deps.Host.OS); root != "" {
		return root
	}
	return o.deps.Catalog.Root(r.result.Target.OS)
}
