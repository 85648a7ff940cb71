// Package version provides version information for the modrel CLI.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build-time variables set via ldflags.
var (
	// Version is the CLI version (set via ldflags).
	Version = "v0.0.0-dev"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// Modules whose versions are reported alongside the CLI's.
const (
	cueModule    = "cuelang.org/go"
	goGitModule  = "github.com/go-git/go-git/v5"
	unknownValue = "unknown"
)

// Info contains version information.
type Info struct {
	// Version is the CLI version (set via ldflags).
	Version string `json:"version"`

	// GitCommit is the git commit hash.
	GitCommit string `json:"gitCommit"`

	// BuildDate is the build timestamp.
	BuildDate string `json:"buildDate"`

	// GoVersion is the Go version used to build.
	GoVersion string `json:"goVersion"`

	// CUESDKVersion is the CUE SDK validating catalogs and config.
	CUESDKVersion string `json:"cueSDKVersion"`

	// GoGitVersion is the git implementation used for tagging.
	GoGitVersion string `json:"goGitVersion"`
}

// Get returns the current version information.
func Get() Info {
	deps := dependencyVersions()
	return Info{
		Version:       Version,
		GitCommit:     GitCommit,
		BuildDate:     BuildDate,
		GoVersion:     runtime.Version(),
		CUESDKVersion: orUnknown(deps[cueModule]),
		GoGitVersion:  orUnknown(deps[goGitModule]),
	}
}

// String returns a human-readable version string.
func (i Info) String() string {
	return fmt.Sprintf("modrel:\n  Version:  %s\n  Build ID: %s/%s\n  Go:       %s\n\nLibraries:\n  CUE SDK: %s\n  go-git:  %s",
		i.Version, i.BuildDate, i.GitCommit, i.GoVersion, i.CUESDKVersion, i.GoGitVersion)
}

func dependencyVersions() map[string]string {
	out := map[string]string{}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	for _, dep := range bi.Deps {
		if dep.Replace != nil {
			dep = dep.Replace
		}
		out[dep.Path] = dep.Version
	}
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return unknownValue
	}
	return s
}
