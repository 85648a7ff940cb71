package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/modrel/cli/internal/cmdtypes"
	"github.com/modrel/cli/internal/cmdutil"
	"github.com/modrel/cli/internal/config"
	oerrors "github.com/modrel/cli/internal/errors"
	"github.com/modrel/cli/internal/identity"
	"github.com/modrel/cli/internal/output"
	"github.com/modrel/cli/internal/queue"
	"github.com/modrel/cli/internal/release"
	"github.com/modrel/cli/internal/script"
)

// releaseFlags holds the release command's own flags.
type releaseFlags struct {
	force     bool
	skipTest  bool
	localOnly bool
	testFarm  bool
	yes       bool
	message   string

	target cmdutil.TargetFlags
	source cmdutil.SourceFlags
}

// depsBuilder constructs the orchestrator's collaborators from settings.
// The queue is only wired when submit is set.
type depsBuilder func(s *config.Settings, verbose, submit bool) (release.Deps, error)

// NewReleaseCmd creates the release command.
func NewReleaseCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	return newReleaseCmd(cfg, buildReleaseDeps)
}

func newReleaseCmd(cfg *cmdtypes.GlobalConfig, build depsBuilder) *cobra.Command {
	flags := &releaseFlags{}

	c := &cobra.Command{
		Use:   "release <area> <module> [version]",
		Short: "Release a module and submit it to the build farm",
		Long: `Release a module and submit it to the build farm.

Without a version the next release after the newest existing tag is used.
Versions are normalized so that 1.2 and 1-2 name the same release.

The release runs these steps, stopping at the first failure:
  1. Resolve the build target from --os, --server and --toolchain
  2. Resolve the release version and check it is not already tagged
  3. Compare the module's declared toolchain with the target's
  4. Run a local test build when this host can build for the target
  5. Tag the release and push the tag
  6. Write the build job to the shared build queue

Examples:
  # Release the next version of support/motion for this host's target
  modrel release support motion

  # Release 2.0 for RHEL 7 servers
  modrel release support motion 2.0 --server 7

  # Test-build only, from a branch
  modrel release support motion --local-only --branch fix-limits`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(c *cobra.Command, args []string) error {
			return runRelease(c, args, cfg, flags, build)
		},
	}

	c.Flags().BoolVarP(&flags.force, "force", "f", false,
		"Rebuild a release whose tag already exists")
	c.Flags().BoolVar(&flags.skipTest, "skip-test", false,
		"Skip the local test build")
	c.Flags().BoolVar(&flags.localOnly, "local-only", false,
		"Run the local test build only; do not tag or submit")
	c.Flags().BoolVar(&flags.testFarm, "test-farm", false,
		"Build on the farm into the work area without tagging")
	c.Flags().BoolVarP(&flags.yes, "yes", "y", false,
		"Accept a toolchain mismatch without asking")
	c.Flags().StringVarP(&flags.message, "message", "m", "",
		"Release tag annotation")
	flags.target.AddTo(c)
	flags.source.AddTo(c)

	return c
}

func runRelease(c *cobra.Command, args []string, cfg *cmdtypes.GlobalConfig, flags *releaseFlags, build depsBuilder) error {
	settings, err := cmdutil.RequireSettings(cfg)
	if err != nil {
		return cmdutil.PrintError("release failed", err)
	}

	deps, err := build(settings, cfg.Verbose, !flags.localOnly)
	if err != nil {
		return cmdutil.PrintError("release failed", err)
	}
	deps.Confirm = confirmMismatch(flags.yes)

	opts := release.Options{
		Area:      args[0],
		Module:    args[1],
		Branch:    flags.source.Branch,
		Commit:    flags.source.Commit,
		Force:     flags.force,
		SkipTest:  flags.skipTest,
		LocalOnly: flags.localOnly,
		TestFarm:  flags.testFarm,
		Target:    flags.target.Request(),
		Message:   flags.message,
	}
	if len(args) == 3 {
		opts.Version = args[2]
	}

	result, err := release.New(deps).Run(c.Context(), opts)
	printReleaseResult(c.OutOrStdout(), opts, result)
	if err != nil {
		return cmdutil.PrintError("release failed", err)
	}
	return nil
}

// confirmMismatch asks on the terminal unless yes is set. Without a
// terminal the mismatch cannot be accepted and the release stops.
func confirmMismatch(yes bool) release.ConfirmFunc {
	return func(m release.ToolchainMismatch) (bool, error) {
		if yes {
			output.Debug("toolchain mismatch accepted by --yes", "module", m.Module)
			return true, nil
		}
		ok, err := output.Confirm(m.Prompt())
		if errors.Is(err, output.ErrNotInteractive) {
			return false, oerrors.NewConfigurationError(
				"toolchain mismatch needs confirmation but there is no terminal",
				map[string]string{"Declared": m.Declared, "Target": m.Target},
				"Pass --yes to release anyway, or choose the toolchain with --toolchain")
		}
		return ok, err
	}
}

// printReleaseResult writes the release summary to out.
func printReleaseResult(out io.Writer, opts release.Options, r *release.Result) {
	if r == nil || r.Outcome == "" {
		return
	}

	label := opts.Area + "/" + opts.Module
	if r.Version != "" {
		label += " " + r.Version
	}
	fmt.Fprintln(out, output.FormatStatusLine(label, string(r.Outcome)))

	switch r.Outcome {
	case release.OutcomeSubmitted:
		fmt.Fprintln(out, output.FormatCheckmark("Job "+output.StyleNoun.Render(r.JobName)+" queued"))
		fmt.Fprintln(out, "  "+output.FormatField("Target", r.Target.String()))
		fmt.Fprintln(out, "  "+output.FormatField("Queue", r.QueueDir))
		if r.Tagged {
			fmt.Fprintln(out, "  "+output.FormatField("Tag", r.Version))
		}
	case release.OutcomeLocalOnly:
		fmt.Fprintln(out, output.FormatCheckmark("Local test build passed for "+r.Target.String()))
	case release.OutcomeFailed:
		fmt.Fprintln(out, "  "+output.FormatField("Stage", r.Stage.String()))
		if r.Workspace != "" {
			fmt.Fprintln(out, "  "+output.FormatField("Workspace", r.Workspace))
		}
		if r.Tagged {
			fmt.Fprintln(out, "  "+output.FormatField("Tag", r.Version+" (pushed, job not queued)"))
		}
	}
}

// buildReleaseDeps wires the production collaborators. A local-only
// release never submits, so it does not need a queue directory.
func buildReleaseDeps(s *config.Settings, verbose, submit bool) (release.Deps, error) {
	requester, err := identity.Resolve(s.Email, s.EmailDomain)
	if err != nil {
		return release.Deps{}, err
	}

	catalog, err := cmdutil.LoadCatalog(s)
	if err != nil {
		return release.Deps{}, err
	}

	host := cmdutil.DetectHost(s)

	v, err := cmdutil.NewVCS(s, requester)
	if err != nil {
		return release.Deps{}, err
	}

	var submitter release.Submitter
	if submit {
		queueDir, err := cmdutil.RequireQueueDir(s)
		if err != nil {
			return release.Deps{}, err
		}
		submitter = queue.NewWriter(queueDir, s.AuditLog)
	}

	runnerOpts := queue.RunnerOptions{
		TempDir:  s.TempDir,
		Timeout:  s.Timeout,
		AllowEnv: s.AllowEnv,
	}
	var builder release.LocalBuilder
	if verbose {
		runnerOpts.Output = os.Stderr
		builder = queue.NewLocalRunner(runnerOpts)
	} else {
		builder = spinnerBuilder{queue.NewLocalRunner(runnerOpts)}
	}

	return release.Deps{
		Catalog:   catalog,
		Host:      host,
		VCS:       v,
		Renderer:  script.NewGenerator(catalog, host),
		Submitter: submitter,
		Builder:   builder,
		Requester: requester,
	}, nil
}

// spinnerBuilder shows a spinner while a local test build runs.
type spinnerBuilder struct {
	release.LocalBuilder
}

func (b spinnerBuilder) Run(ctx context.Context, ws queue.Workspace, job queue.Job) (queue.RunResult, error) {
	var res queue.RunResult
	err := output.RunWithSpinner(ctx, func() error {
		var err error
		res, err = b.LocalBuilder.Run(ctx, ws, job)
		return err
	}, output.WithTitle("Building "+job.Name))
	return res, err
}
