package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modrel/cli/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show modrel version information.

Displays:
  - modrel version, commit, and build date
  - CUE SDK and go-git versions (embedded in the CLI)`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			fmt.Fprintln(c.OutOrStdout(), version.Get().String())
			return nil
		},
	}
}
