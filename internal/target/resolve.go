package target

import (
	"fmt"
	"slices"
	"strings"

	oerrors "github.com/modrel/cli/internal/errors"
)

// Request carries the user's explicit target choices. Empty fields are
// filled from the host and the catalog.
type Request struct {
	OS        string
	Server    string
	Toolchain string
}

// DefaultTarget returns the target matching the invoking host.
func (c *Catalog) DefaultTarget(host Host) (Target, error) {
	return c.Resolve(host, Request{OS: host.OS})
}

// Resolve picks a valid target for the request. It returns a configuration
// error when the OS has no such server, the server does not support the
// requested toolchain, or no combination is compatible.
func (c *Catalog) Resolve(host Host, req Request) (Target, error) {
	osName := req.OS
	if osName == "" {
		osName = host.OS
	}
	o, ok := c.oses[osName]
	if !ok {
		return Target{}, unknownOS(osName, c.OSNames())
	}

	if req.Server != "" {
		server := c.ExpandAlias(req.Server)
		toolchains, ok := o.servers[server]
		if !ok {
			return Target{}, configError(
				fmt.Sprintf("no build server %q for %s", req.Server, osName),
				map[string]string{"OS": osName, "Server": req.Server},
				"Valid servers: "+strings.Join(c.Servers(osName), ", "))
		}
		toolchain := req.Toolchain
		if toolchain == "" {
			toolchain = preferredToolchain(toolchains, host.Toolchain)
		} else if !slices.Contains(toolchains, toolchain) {
			return Target{}, configError(
				fmt.Sprintf("server %s does not support toolchain %s", server, toolchain),
				map[string]string{"OS": osName, "Server": server, "Toolchain": toolchain},
				"Supported toolchains: "+strings.Join(toolchains, ", "))
		}
		return Target{OS: osName, Server: server, Toolchain: toolchain}, nil
	}

	def := c.defaultServer(osName, o, host)
	if req.Toolchain == "" {
		if def == "" {
			return Target{}, configError(
				fmt.Sprintf("no default build server for %s on this host", osName),
				map[string]string{"OS": osName, "Host": host.ServerName()},
				"Choose one with --server")
		}
		return Target{
			OS:        osName,
			Server:    def,
			Toolchain: preferredToolchain(o.servers[def], host.Toolchain),
		}, nil
	}

	if def != "" && slices.Contains(o.servers[def], req.Toolchain) {
		return Target{OS: osName, Server: def, Toolchain: req.Toolchain}, nil
	}
	for _, server := range c.Servers(osName) {
		if slices.Contains(o.servers[server], req.Toolchain) {
			return Target{OS: osName, Server: server, Toolchain: req.Toolchain}, nil
		}
	}
	return Target{}, configError(
		fmt.Sprintf("no %s build server supports toolchain %s", osName, req.Toolchain),
		map[string]string{"OS": osName, "Toolchain": req.Toolchain},
		"Run 'modrel targets' to list the compatibility matrix")
}

// defaultServer returns the OS's fixed default, or for the host's own OS
// the server named after the host. It returns "" when neither exists.
func (c *Catalog) defaultServer(osName string, o osEntry, host Host) string {
	if o.defaultServer != "" {
		return o.defaultServer
	}
	if osName != host.OS {
		return ""
	}
	server := c.ExpandAlias(host.ServerName())
	if _, ok := o.servers[server]; !ok {
		return ""
	}
	return server
}

// CanRunLocalTestBuild reports whether t can be test-built on the host
// itself, which is only the case for the host's own default target.
func (c *Catalog) CanRunLocalTestBuild(host Host, t Target) bool {
	def, err := c.DefaultTarget(host)
	if err != nil {
		return false
	}
	return def == t
}

// preferredToolchain is the host's toolchain when the server supports it,
// otherwise the newest the server lists.
func preferredToolchain(toolchains []string, hostToolchain string) string {
	if hostToolchain != "" && slices.Contains(toolchains, hostToolchain) {
		return hostToolchain
	}
	if len(toolchains) == 0 {
		return ""
	}
	return toolchains[len(toolchains)-1]
}

func unknownOS(osName string, valid []string) error {
	return configError(
		fmt.Sprintf("unknown operating system %q", osName),
		map[string]string{"OS": osName},
		"Valid: "+strings.Join(valid, ", "))
}

func configError(msg string, ctx map[string]string, hint string) error {
	return oerrors.NewConfigurationError(msg, ctx, hint)
}
