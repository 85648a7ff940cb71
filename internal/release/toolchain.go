package release

import "regexp"

// ReleaseFile declares a module's dependencies, including the toolchain.
const ReleaseFile = "configure/RELEASE"

var (
	// baseAssignment matches the toolchain path assignment, e.g.
	// EPICS_BASE=/dls_sw/epics/R7.0.7/base.
	baseAssignment = regexp.MustCompile(`(?m)^\s*EPICS_BASE\s*[:?]?=.*?/(R\d+(?:\.\d+)+)`)

	// versionToken matches any toolchain version.
	versionToken = regexp.MustCompile(`\bR\d+\.\d+\.\d+(?:\.\d+)?\b`)

	commentLine = regexp.MustCompile(`(?m)^\s*#.*$`)
)

// ExtractToolchain finds the toolchain version a release file declares.
// It returns "" when none is declared.
func ExtractToolchain(content []byte) string {
	content = commentLine.ReplaceAll(content, nil)
	if m := baseAssignment.FindSubmatch(content); m != nil {
		return string(m[1])
	}
	return string(versionToken.Find(content))
}
