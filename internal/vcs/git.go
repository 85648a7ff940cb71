package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/modrel/cli/internal/output"
)

// Source parameter keys supplied to build scripts.
const (
	SourceRepo = "git_repo"
	SourceRef  = "git_ref"
)

const remoteName = "origin"

// releaseTagRegex is the facility tag convention: a leading number followed
// by alphanumeric runs joined by '-', '.' or '_'.
var releaseTagRegex = regexp.MustCompile(`^[0-9][0-9A-Za-z]*([-._][0-9A-Za-z]+)*$`)

// Git is the go-git backend. Remotes live at {server}/{area}/{module}.
// Each module is mirrored into memory at most once per process.
type Git struct {
	cfg Config

	mu     sync.Mutex
	clones map[string]*git.Repository
}

// NewGit creates a git backend.
func NewGit(cfg Config) *Git {
	return &Git{cfg: cfg, clones: make(map[string]*git.Repository)}
}

// URL returns the remote URL of a module.
func (g *Git) URL(c Coordinate) string {
	return strings.TrimRight(g.cfg.Server, "/") + "/" + c.Path()
}

// ListReleases lists the remote's tags without cloning.
func (g *Git) ListReleases(ctx context.Context, c Coordinate) ([]string, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: remoteName,
		URLs: []string{g.URL(c)},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing tags of %s: %w", c, err)
	}

	seen := make(map[string]bool)
	var tags []string
	for _, ref := range refs {
		if !ref.Name().IsTag() {
			continue
		}
		name := ref.Name().Short()
		if !seen[name] {
			seen[name] = true
			tags = append(tags, name)
		}
	}
	output.Debug("listed releases", "module", c.Path(), "count", len(tags))
	return tags, nil
}

// ReadFileAt reads file from the commit ref resolves to. An empty ref
// means the coordinate's branch, or HEAD.
func (g *Git) ReadFileAt(ctx context.Context, c Coordinate, file, ref string) ([]byte, error) {
	repo, err := g.clone(ctx, c)
	if err != nil {
		return nil, err
	}

	commit, err := resolveCommit(repo, g.ref(c, ref))
	if err != nil {
		return nil, err
	}

	f, err := commit.File(file)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%s at %s: %w", file, g.ref(c, ref), ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}

	r, err := f.Reader()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// TagAndPush creates an annotated tag at ref and pushes only that tag.
func (g *Git) TagAndPush(ctx context.Context, c Coordinate, tag, ref, message string) error {
	repo, err := g.clone(ctx, c)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTagCreate, err)
	}

	commit, err := resolveCommit(repo, g.ref(c, ref))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTagCreate, err)
	}

	tagRef := plumbing.NewTagReferenceName(tag)
	if _, err := repo.Reference(tagRef, false); err == nil {
		return fmt.Errorf("%w: tag %s already exists", ErrTagCreate, tag)
	}

	if message == "" {
		message = "Release " + tag
	}
	_, err = repo.CreateTag(tag, commit.Hash, &git.CreateTagOptions{
		Tagger: &object.Signature{
			Name:  g.cfg.TaggerName,
			Email: g.cfg.TaggerEmail,
			When:  time.Now(),
		},
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTagCreate, err)
	}
	output.Debug("created tag", "tag", tag, "commit", commit.Hash.String())

	spec := config.RefSpec(tagRef.String() + ":" + tagRef.String())
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{spec},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("%w: pushing %s to %s: %w", ErrPush, tag, g.URL(c), err)
	}
	return nil
}

// IsValidTag reports whether tag is both a legal git reference and follows
// the release tag convention.
func (g *Git) IsValidTag(tag string) bool {
	if !releaseTagRegex.MatchString(tag) {
		return false
	}
	return plumbing.NewTagReferenceName(tag).Validate() == nil
}

// SourceParams returns the clone URL and the reference to check out.
func (g *Git) SourceParams(c Coordinate, ref string) map[string]string {
	return map[string]string{
		SourceRepo: g.URL(c),
		SourceRef:  g.ref(c, ref),
	}
}

func (g *Git) ref(c Coordinate, ref string) string {
	switch {
	case ref != "":
		return ref
	case c.Branch != "":
		return c.Branch
	default:
		return "HEAD"
	}
}

// clone mirrors the module's remote into memory, once per coordinate.
func (g *Git) clone(ctx context.Context, c Coordinate) (*git.Repository, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	url := g.URL(c)
	if repo, ok := g.clones[url]; ok {
		return repo, nil
	}

	output.Debug("cloning", "url", url)
	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, &git.CloneOptions{
		URL:        url,
		RemoteName: remoteName,
		Mirror:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("cloning %s: %w", url, err)
	}
	g.clones[url] = repo
	return repo, nil
}

func resolveCommit(repo *git.Repository, ref string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w: %w", ref, ErrUnknownRef, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ref, err)
	}
	return commit, nil
}
