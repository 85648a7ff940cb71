// Package vcs is the version control collaborator of a release: it lists
// existing releases, creates and pushes release tags, and reads files at a
// source reference.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	oerrors "github.com/modrel/cli/internal/errors"
)

// Sentinel errors. Tag creation and push failures are distinct because a
// failed push leaves a local tag behind.
var (
	// ErrTagCreate is returned when the release tag could not be created.
	ErrTagCreate = errors.New("tag creation failed")

	// ErrPush is returned when a created tag could not be pushed.
	ErrPush = errors.New("push failed")

	// ErrNotFound is returned when a file does not exist at a reference.
	ErrNotFound = errors.New("not found")

	// ErrUnknownRef is returned when a branch, tag or commit cannot be
	// resolved.
	ErrUnknownRef = errors.New("unknown reference")
)

// Coordinate identifies a module in the repository.
type Coordinate struct {
	// Area is the module category, e.g. "support".
	Area string

	// Module is the module path within the area, e.g. "motion/pmac".
	Module string

	// Branch is the source branch. Empty means the default branch.
	Branch string
}

// Path returns "area/module".
func (c Coordinate) Path() string {
	return path.Join(c.Area, strings.Trim(c.Module, "/"))
}

// String returns a human-readable form.
func (c Coordinate) String() string {
	if c.Branch == "" {
		return c.Path()
	}
	return c.Path() + "@" + c.Branch
}

// VCS is the capability set a release needs from version control.
type VCS interface {
	// ListReleases returns every release tag of the module, unordered.
	ListReleases(ctx context.Context, c Coordinate) ([]string, error)

	// TagAndPush creates tag at ref and pushes it to the remote. Errors wrap
	// ErrTagCreate or ErrPush.
	TagAndPush(ctx context.Context, c Coordinate, tag, ref, message string) error

	// ReadFileAt returns the content of file at ref. A missing file wraps
	// ErrNotFound and an unresolvable ref wraps ErrUnknownRef.
	ReadFileAt(ctx context.Context, c Coordinate, file, ref string) ([]byte, error)

	// IsValidTag reports whether tag is an acceptable release tag name.
	IsValidTag(tag string) bool

	// SourceParams returns the values a build script needs to fetch the
	// source at ref.
	SourceParams(c Coordinate, ref string) map[string]string
}

// Backend names.
const (
	BackendGit = "git"
)

// Config selects and configures a backend.
type Config struct {
	// Backend is the backend name. Empty means git.
	Backend string

	// Server is the repository server prefix, e.g. "ssh://git@example.com/controls".
	Server string

	// TaggerName and TaggerEmail sign annotated release tags.
	TaggerName  string
	TaggerEmail string
}

// New returns the backend named by cfg.
func New(cfg Config) (VCS, error) {
	switch cfg.Backend {
	case "", BackendGit:
		if cfg.Server == "" {
			return nil, oerrors.NewConfigurationError("no repository server configured",
				map[string]string{"Key": "vcs.server"},
				"Set vcs.server in the config file or MODREL_VCS_SERVER")
		}
		return NewGit(cfg), nil
	default:
		return nil, oerrors.NewConfigurationError(
			fmt.Sprintf("unknown vcs backend %q", cfg.Backend),
			map[string]string{"Key": "vcs.backend"},
			"Valid backends: "+BackendGit)
	}
}
