package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modrel/cli/internal/cmdtypes"
	"github.com/modrel/cli/internal/cmdutil"
	"github.com/modrel/cli/internal/config"
	"github.com/modrel/cli/internal/identity"
	"github.com/modrel/cli/internal/reltag"
	"github.com/modrel/cli/internal/vcs"
)

// vcsBuilder constructs the VCS backend from settings.
type vcsBuilder func(s *config.Settings) (vcs.VCS, error)

// NewNextVersionCmd creates the next-version command.
func NewNextVersionCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	return newNextVersionCmd(cfg, func(s *config.Settings) (vcs.VCS, error) {
		return cmdutil.NewVCS(s, identity.Requester{})
	})
}

func newNextVersionCmd(cfg *cmdtypes.GlobalConfig, build vcsBuilder) *cobra.Command {
	var list bool

	c := &cobra.Command{
		Use:   "next-version <area> <module>",
		Short: "Show the version the next release would get",
		Long: `Show the version the next release of a module would get.

The newest existing release tag is found by comparing tags number by number,
so 1-10 is newer than 1-9, and its last number is incremented. A module with
no releases starts at 0-1.

Use --list to also print the existing releases, oldest first.`,
		Args: cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			settings, err := cmdutil.RequireSettings(cfg)
			if err != nil {
				return cmdutil.PrintError("next-version failed", err)
			}
			v, err := build(settings)
			if err != nil {
				return cmdutil.PrintError("next-version failed", err)
			}

			coord := vcs.Coordinate{Area: args[0], Module: args[1]}
			tags, err := v.ListReleases(c.Context(), coord)
			if err != nil {
				return cmdutil.PrintError("next-version failed", err)
			}

			out := c.OutOrStdout()
			if list {
				for _, tag := range reltag.SortAscending(tags) {
					fmt.Fprintln(out, tag)
				}
			}
			fmt.Fprintln(out, reltag.Next(tags))
			return nil
		},
	}

	c.Flags().BoolVarP(&list, "list", "l", false, "Also list existing releases, oldest first")

	return c
}
