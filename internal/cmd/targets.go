package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modrel/cli/internal/cmdtypes"
	"github.com/modrel/cli/internal/cmdutil"
	oerrors "github.com/modrel/cli/internal/errors"
	"github.com/modrel/cli/internal/output"
	"github.com/modrel/cli/internal/target"
)

// targetEntry is one build server in the targets listing.
type targetEntry struct {
	OS         string   `json:"os"`
	Server     string   `json:"server"`
	Aliases    []string `json:"aliases,omitempty"`
	Toolchains []string `json:"toolchains"`
	Default    bool     `json:"default,omitempty"`
}

// areaListing is one area in the targets listing.
type areaListing struct {
	Name      string   `json:"name"`
	Toolchain bool     `json:"toolchain"`
	Layout    string   `json:"layout,omitempty"`
	OSes      []string `json:"oses"`
}

type targetsListing struct {
	Targets []targetEntry `json:"targets"`
	Areas   []areaListing `json:"areas"`
}

// NewTargetsCmd creates the targets command.
func NewTargetsCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "targets",
		Short: "List build servers, toolchains and areas",
		Long: `List the build servers, their toolchains and the module areas.

Toolchains are listed oldest first; the last one is used when a server is
chosen without --toolchain. The target this host releases to by default is
marked.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			f, ok := output.ParseOutputFormat(format)
			if !ok {
				return cmdutil.PrintError("targets failed", oerrors.NewConfigurationError(
					fmt.Sprintf("unknown output format %q", format), nil,
					"Valid formats: "+strings.Join(output.ValidFormats(), ", ")))
			}

			settings, err := cmdutil.RequireSettings(cfg)
			if err != nil {
				return cmdutil.PrintError("targets failed", err)
			}
			catalog, err := cmdutil.LoadCatalog(settings)
			if err != nil {
				return cmdutil.PrintError("targets failed", err)
			}

			listing := listTargets(catalog, cmdutil.DetectHost(settings))
			if f == output.FormatTable {
				fmt.Fprint(c.OutOrStdout(), renderTargets(listing))
				return nil
			}
			data, err := output.Marshal(f, listing)
			if err != nil {
				return cmdutil.PrintError("targets failed", err)
			}
			_, err = c.OutOrStdout().Write(data)
			return err
		},
	}

	c.Flags().StringVarP(&format, "output", "o", "table",
		"Output format ("+strings.Join(output.ValidFormats(), ", ")+")")

	return c
}

// listTargets flattens the catalog. The host's default target is marked
// when the host is one the catalog knows.
func listTargets(c *target.Catalog, host target.Host) targetsListing {
	aliases := map[string][]string{}
	for alias, server := range c.Aliases() {
		aliases[server] = append(aliases[server], alias)
	}

	def, err := c.DefaultTarget(host)
	if err != nil {
		output.Debug("no default target for this host", "error", err)
	}

	var listing targetsListing
	for _, osName := range c.OSNames() {
		for _, server := range c.Servers(osName) {
			a := aliases[server]
			sort.Strings(a)
			listing.Targets = append(listing.Targets, targetEntry{
				OS:         osName,
				Server:     server,
				Aliases:    a,
				Toolchains: c.Toolchains(osName, server),
				Default:    err == nil && def.OS == osName && def.Server == server,
			})
		}
	}

	for _, name := range c.AreaNames() {
		area, _ := c.Area(name)
		entry := areaListing{Name: name, Toolchain: area.Toolchain, Layout: area.Layout}
		for _, osName := range c.OSNames() {
			if _, err := c.Script(osName, name); err == nil {
				entry.OSes = append(entry.OSes, osName)
			}
		}
		listing.Areas = append(listing.Areas, entry)
	}

	return listing
}

func renderTargets(l targetsListing) string {
	servers := output.NewTable("OS", "SERVER", "ALIASES", "TOOLCHAINS", "DEFAULT")
	for _, t := range l.Targets {
		mark := ""
		if t.Default {
			mark = "*"
		}
		servers.Row(t.OS, t.Server, strings.Join(t.Aliases, " "), strings.Join(t.Toolchains, " "), mark)
	}

	areas := output.NewTable("AREA", "TOOLCHAIN", "LAYOUT", "OS")
	for _, a := range l.Areas {
		layout := a.Layout
		if layout == "" {
			layout = "{area}"
		}
		areas.Row(a.Name, fmt.Sprintf("%t", a.Toolchain), layout, strings.Join(a.OSes, " "))
	}

	return servers.String() + "\n" + areas.String() + "\n"
}
