package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"
)

// DefaultCacheDir is where dependencies are checked out when CINDER_CACHE is
// unset, relative to the package root.
const DefaultCacheDir = ".cinder/deps"

// ResolvedDependency is a dependency available on disk.
type ResolvedDependency struct {
	Name   string
	Dir    string
	Source string
	Commit string
}

// GitFetcher checks git dependencies out into a cache directory, one
// directory per name and pinned version.
type GitFetcher struct {
	CacheDir string
	Logger   *zap.Logger
}

func NewGitFetcher(cacheDir string, logger *zap.Logger) *GitFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitFetcher{CacheDir: cacheDir, Logger: logger}
}

// Fetch clones spec.Git and checks out the pinned revision. An existing
// checkout of an explicit rev is reused without touching the network.
func (g *GitFetcher) Fetch(name string, spec *DependencySpec) (*ResolvedDependency, error) {
	if g == nil || g.CacheDir == "" {
		return nil, errors.New("git fetcher unavailable")
	}
	url := strings.TrimSpace(spec.Git)
	if url == "" {
		return nil, fmt.Errorf("dependency %q: git URL required", name)
	}
	baseDir := filepath.Join(g.CacheDir, sanitizePathSegment(name))
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}

	if spec.Rev != "" {
		existing := filepath.Join(baseDir, sanitizePathSegment(spec.Rev))
		if info, err := os.Stat(existing); err == nil && info.IsDir() {
			g.Logger.Debug("dependency cached", zap.String("name", name), zap.String("dir", existing))
			return &ResolvedDependency{Name: name, Dir: existing, Source: "git+" + url, Commit: spec.Rev}, nil
		}
	}

	g.Logger.Debug("clone dependency", zap.String("name", name), zap.String("url", url))
	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	cleanup()

	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("git clone %s: %w", url, err)
	}
	revision, descriptor := gitRevision(spec)
	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("dependency %q: resolve revision %s: %w", name, revision, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		cleanup()
		return nil, fmt.Errorf("git checkout %s: %w", revision, err)
	}

	version := hash.String()
	if descriptor != "" && descriptor != version {
		version = descriptor + "@" + version
	}
	targetDir := filepath.Join(baseDir, sanitizePathSegment(version))
	if _, err := os.Stat(targetDir); err == nil {
		cleanup()
	} else if err := os.Rename(tmpDir, targetDir); err != nil {
		cleanup()
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}
	g.Logger.Debug("dependency ready", zap.String("name", name), zap.String("commit", hash.String()))
	return &ResolvedDependency{Name: name, Dir: targetDir, Source: "git+" + url, Commit: hash.String()}, nil
}

// gitRevision maps the pin to a revision that exists in a fresh clone.
// Branches other than the default only exist as remote-tracking refs.
func gitRevision(spec *DependencySpec) (plumbing.Revision, string) {
	switch {
	case spec.Rev != "":
		return plumbing.Revision(spec.Rev), spec.Rev
	case spec.Tag != "":
		return plumbing.Revision("refs/tags/" + spec.Tag), spec.Tag
	case spec.Branch != "":
		return plumbing.Revision("refs/remotes/origin/" + spec.Branch), spec.Branch
	default:
		return plumbing.Revision(plumbing.HEAD), ""
	}
}

// ResolveDependencies makes every manifest dependency available and returns
// them in name order. Path dependencies are resolved against the manifest's
// directory; git dependencies go through fetcher.
func ResolveDependencies(m *Manifest, fetcher *GitFetcher) ([]*ResolvedDependency, error) {
	out := make([]*ResolvedDependency, 0, len(m.Dependencies))
	for _, name := range m.DependencyNames() {
		spec := m.Dependencies[name]
		if spec.Path != "" {
			dir := m.resolve(spec.Path)
			info, err := os.Stat(dir)
			if err != nil {
				return nil, fmt.Errorf("dependency %q: %w", name, err)
			}
			if !info.IsDir() {
				return nil, fmt.Errorf("dependency %q: %s is not a directory", name, dir)
			}
			out = append(out, &ResolvedDependency{Name: name, Dir: dir, Source: "path:" + spec.Path})
			continue
		}
		dep, err := fetcher.Fetch(name, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, dep)
	}
	return out, nil
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
