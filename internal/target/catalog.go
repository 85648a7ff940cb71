// Package target holds the build server compatibility catalog and resolves
// the (OS, server, toolchain) a release is built against.
package target

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Dialect is the scripting language a build server executes.
type Dialect string

const (
	// DialectShell is a POSIX shell script.
	DialectShell Dialect = "shell"

	// DialectBatch is a Windows batch file.
	DialectBatch Dialect = "batch"
)

// Target is the (OS, server, toolchain) triple a job is built against.
type Target struct {
	OS        string `json:"os"`
	Server    string `json:"server"`
	Toolchain string `json:"toolchain"`
}

// String returns a compact human-readable form.
func (t Target) String() string {
	return fmt.Sprintf("%s/%s@%s", t.OS, t.Server, t.Toolchain)
}

// Area describes one module category.
type Area struct {
	// Name is the area identifier, e.g. "support".
	Name string

	// Toolchain reports whether a toolchain version is meaningful for the area.
	Toolchain bool

	// Layout is the build directory layout below the tree root.
	Layout string
}

// file mirrors catalog.yaml. The json tags are what the CUE schema sees.
type file struct {
	OSes    map[string]osFile   `yaml:"oses" json:"oses"`
	Aliases map[string]string   `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Areas   map[string]areaFile `yaml:"areas" json:"areas"`
}

type osFile struct {
	Dialect       string              `yaml:"dialect" json:"dialect"`
	Root          string              `yaml:"root" json:"root"`
	DefaultServer string              `yaml:"defaultServer,omitempty" json:"defaultServer,omitempty"`
	Servers       map[string][]string `yaml:"servers" json:"servers"`
	Extensions    map[string]string   `yaml:"extensions,omitempty" json:"extensions,omitempty"`
}

type areaFile struct {
	Toolchain bool              `yaml:"toolchain,omitempty" json:"toolchain,omitempty"`
	Layout    string            `yaml:"layout,omitempty" json:"layout,omitempty"`
	Scripts   map[string]string `yaml:"scripts" json:"scripts"`
}

// Catalog is the immutable compatibility matrix. Build one with Load or
// Default and share it; nothing mutates it after construction.
type Catalog struct {
	oses    map[string]osEntry
	aliases map[string]string
	areas   map[string]areaEntry
}

type osEntry struct {
	dialect       Dialect
	root          string
	defaultServer string
	servers       map[string][]string
	extensions    map[string]string
}

type areaEntry struct {
	toolchain bool
	layout    string
	scripts   map[string]string
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(&f); err != nil {
		return nil, err
	}

	return build(&f)
}

// build freezes a validated file into a Catalog, checking the cross
// references the schema cannot express.
func build(f *file) (*Catalog, error) {
	c := &Catalog{
		oses:    make(map[string]osEntry, len(f.OSes)),
		aliases: make(map[string]string, len(f.Aliases)),
		areas:   make(map[string]areaEntry, len(f.Areas)),
	}

	for name, o := range f.OSes {
		entry := osEntry{
			dialect:       Dialect(o.Dialect),
			root:          strings.TrimRight(o.Root, "/\\"),
			defaultServer: o.DefaultServer,
			servers:       make(map[string][]string, len(o.Servers)),
			extensions:    make(map[string]string, len(o.Extensions)),
		}
		for server, toolchains := range o.Servers {
			entry.servers[server] = append([]string(nil), toolchains...)
		}
		for server, ext := range o.Extensions {
			if _, ok := o.Servers[server]; !ok {
				return nil, fmt.Errorf("os %s: extension for unknown server %q", name, server)
			}
			entry.extensions[server] = ext
		}
		if entry.defaultServer != "" {
			if _, ok := entry.servers[entry.defaultServer]; !ok {
				return nil, fmt.Errorf("os %s: default server %q is not listed", name, entry.defaultServer)
			}
		}
		c.oses[name] = entry
	}

	for alias, server := range f.Aliases {
		if !c.hasServer(server) {
			return nil, fmt.Errorf("alias %q refers to unknown server %q", alias, server)
		}
		c.aliases[alias] = server
	}

	for name, a := range f.Areas {
		entry := areaEntry{
			toolchain: a.Toolchain,
			layout:    a.Layout,
			scripts:   make(map[string]string, len(a.Scripts)),
		}
		if entry.layout == "" {
			entry.layout = "{area}"
			if entry.toolchain {
				entry.layout = "{toolchain}/{area}"
			}
		}
		for osName, script := range a.Scripts {
			if _, ok := c.oses[osName]; !ok {
				return nil, fmt.Errorf("area %s: script for unknown os %q", name, osName)
			}
			entry.scripts[osName] = script
		}
		c.areas[name] = entry
	}

	return c, nil
}

func (c *Catalog) hasServer(server string) bool {
	for _, o := range c.oses {
		if _, ok := o.servers[server]; ok {
			return true
		}
	}
	return false
}

// OSNames returns the catalog operating systems in sorted order.
func (c *Catalog) OSNames() []string {
	return sortedKeys(c.oses)
}

// Servers returns the servers of an OS in sorted order.
func (c *Catalog) Servers(osName string) []string {
	return sortedKeys(c.oses[osName].servers)
}

// Toolchains returns the toolchain versions a server supports, oldest first.
func (c *Catalog) Toolchains(osName, server string) []string {
	return append([]string(nil), c.oses[osName].servers[server]...)
}

// Aliases returns a copy of the server shortcut table.
func (c *Catalog) Aliases() map[string]string {
	out := make(map[string]string, len(c.aliases))
	for k, v := range c.aliases {
		out[k] = v
	}
	return out
}

// ExpandAlias maps a user-facing shortcut to a full server name.
// Unknown names are returned unchanged.
func (c *Catalog) ExpandAlias(server string) string {
	if full, ok := c.aliases[server]; ok {
		return full
	}
	return server
}

// Dialect returns the script dialect of an OS.
func (c *Catalog) Dialect(osName string) (Dialect, error) {
	o, ok := c.oses[osName]
	if !ok {
		return "", unknownOS(osName, c.OSNames())
	}
	return o.dialect, nil
}

// Root returns the shared filesystem root as seen from an OS, or "" if the
// OS is not in the catalog.
func (c *Catalog) Root(osName string) string {
	return c.oses[osName].root
}

// Roots returns the shared root of every OS.
func (c *Catalog) Roots() map[string]string {
	out := make(map[string]string, len(c.oses))
	for name, o := range c.oses {
		out[name] = o.root
	}
	return out
}

// Extension returns the queue file extension for a target's server.
// The build servers poll for their own name, so it defaults to the server.
func (c *Catalog) Extension(t Target) string {
	if ext, ok := c.oses[t.OS].extensions[t.Server]; ok {
		return ext
	}
	return t.Server
}

// AreaNames returns the known areas in sorted order.
func (c *Catalog) AreaNames() []string {
	return sortedKeys(c.areas)
}

// Area looks up an area by name.
func (c *Catalog) Area(name string) (Area, bool) {
	a, ok := c.areas[name]
	if !ok {
		return Area{}, false
	}
	return Area{Name: name, Toolchain: a.toolchain, Layout: a.layout}, true
}

// ToolchainMeaningful reports whether the toolchain version matters for an area.
func (c *Catalog) ToolchainMeaningful(area string) bool {
	return c.areas[area].toolchain
}

// Script returns the build script name for an area on an OS.
func (c *Catalog) Script(osName, area string) (string, error) {
	a, ok := c.areas[area]
	if !ok {
		return "", configError(fmt.Sprintf("unknown area %q", area),
			map[string]string{"Area": area},
			"Valid areas: "+strings.Join(c.AreaNames(), ", "))
	}
	script, ok := a.scripts[osName]
	if !ok {
		return "", configError(fmt.Sprintf("area %s cannot be built on %s", area, osName),
			map[string]string{"Area": area, "OS": osName},
			"Supported: "+strings.Join(sortedKeys(a.scripts), ", "))
	}
	return script, nil
}

// BuildDir returns the absolute directory a release is installed into,
// expressed with the given root. tree is "prod" or "work".
func (c *Catalog) BuildDir(root, tree string, t Target, area string) string {
	layout := c.areas[area].layout
	if layout == "" {
		layout = "{area}"
	}
	rel := strings.NewReplacer(
		"{area}", area,
		"{toolchain}", t.Toolchain,
		"{server}", t.Server,
		"{os}", t.OS,
	).Replace(layout)
	return path.Join(root, tree, rel)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
