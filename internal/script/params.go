package script

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind is the build kind encoded in the job name.
type Kind string

const (
	// KindLocal is a test build run on the invoking host.
	KindLocal Kind = "local"

	// KindBuild is a job for the build farm.
	KindBuild Kind = "build"
)

// sourceKeyRegex restricts VCS source keys to names usable as shell and
// batch variable suffixes.
var sourceKeyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Params is the fixed parameter set a build script receives.
type Params struct {
	// User is the requester's login name.
	User string

	// Email is where the build farm reports the result.
	Email string

	// Toolchain is the toolchain version the job builds against.
	Toolchain string

	// BuildDir is the absolute install directory, as seen from the invoking host.
	BuildDir string

	// Module is the module path within its area, e.g. "motion/pmac".
	Module string

	// Version is the release tag being built.
	Version string

	// Area is the module category.
	Area string

	// Force rebuilds an existing release in place.
	Force bool

	// BuildName is the job's own queue file name.
	BuildName string

	// Server is the target build server.
	Server string

	// Kind is KindLocal or KindBuild.
	Kind Kind

	// Timestamp is when the job was created.
	Timestamp time.Time

	// Source holds VCS-specific source location values, e.g. the clone URL.
	Source map[string]string
}

// Validate reports every missing or malformed value at once.
func (p Params) Validate() error {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"user", p.User},
		{"email", p.Email},
		{"toolchain", p.Toolchain},
		{"build directory", p.BuildDir},
		{"module", p.Module},
		{"version", p.Version},
		{"area", p.Area},
		{"build name", p.BuildName},
		{"server", p.Server},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if p.Timestamp.IsZero() {
		missing = append(missing, "timestamp")
	}
	if len(missing) > 0 {
		return fmt.Errorf("script parameters missing: %s", strings.Join(missing, ", "))
	}

	if p.Kind != KindLocal && p.Kind != KindBuild {
		return fmt.Errorf("invalid build kind %q: must be %q or %q", p.Kind, KindLocal, KindBuild)
	}
	for key := range p.Source {
		if !sourceKeyRegex.MatchString(key) {
			return fmt.Errorf("invalid source parameter name %q", key)
		}
	}
	return nil
}

// Define is one variable definition emitted at the top of a script.
type Define struct {
	Name  string
	Value string
}

// Defines returns the script variables in emission order: the fixed set
// first, then the source values sorted by key.
func (p Params) Defines() []Define {
	defines := []Define{
		{"_user", p.User},
		{"_email", p.Email},
		{"_epics", p.Toolchain},
		{"_build_dir", p.BuildDir},
		{"_module", p.Module},
		{"_version", p.Version},
		{"_area", p.Area},
		{"_force", strconv.FormatBool(p.Force)},
		{"_build_name", p.BuildName},
	}

	keys := make([]string, 0, len(p.Source))
	for k := range p.Source {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		defines = append(defines, Define{Name: "_" + k, Value: p.Source[k]})
	}
	return defines
}
