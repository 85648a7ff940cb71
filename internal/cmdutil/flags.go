// Package cmdutil provides shared command utilities: flag groups, error
// reporting and construction of the release collaborators.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/modrel/cli/internal/target"
)

// TargetFlags holds the build target selection flags
// (release, next-version, targets).
type TargetFlags struct {
	OS        string
	Server    string
	Toolchain string
}

// AddTo registers the target flags on the given cobra command.
func (f *TargetFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.OS, "os", "",
		"Target operating system (default: this host's)")
	cmd.Flags().StringVarP(&f.Server, "server", "s", "",
		"Build server or shortcut, e.g. rhel8-x86_64 or 8 (default: this host's)")
	cmd.Flags().StringVarP(&f.Toolchain, "toolchain", "t", "",
		"Toolchain version, e.g. R7.0.7 (default: this host's, else the server's newest)")
}

// Request converts the flags into a target request.
func (f *TargetFlags) Request() target.Request {
	return target.Request{OS: f.OS, Server: f.Server, Toolchain: f.Toolchain}
}

// SourceFlags holds the source selection flags (release).
type SourceFlags struct {
	Branch string
	Commit string
}

// AddTo registers the source flags on the given cobra command.
func (f *SourceFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Branch, "branch", "b", "",
		"Release from this branch (default: the repository default branch)")
	cmd.Flags().StringVar(&f.Commit, "commit", "",
		"Release from this commit; takes precedence over --branch")
}
