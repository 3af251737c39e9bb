package polyfill

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CacheRoot returns the directory all polyfill repositories are cached
// under. MOONFALL_CACHE_DIR overrides the platform default, which keeps
// tests hermetic.
func CacheRoot() (string, error) {
	if dir := os.Getenv("MOONFALL_CACHE_DIR"); dir != "" {
		return filepath.Join(dir, "polyfills"), nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine cache directory: %w", err)
	}
	return filepath.Join(base, "moonfall", "polyfills"), nil
}

// cacheIdent derives the stable directory name for a repository locator:
// the host (or "local" for filesystem paths) plus a short hash of the
// normalized locator. Normalization lowercases and strips query and
// fragment so trivially different spellings of the same repository share
// one cache entry.
func cacheIdent(locator string) string {
	normalized := normalizeLocator(locator)
	sum := sha256.Sum256([]byte(normalized))
	host := "local"
	if u, err := url.Parse(normalized); err == nil && u.Host != "" {
		host = u.Host
		if h, _, ok := strings.Cut(host, ":"); ok {
			host = h
		}
	}
	return host + "-" + hex.EncodeToString(sum[:])[:16]
}

func normalizeLocator(locator string) string {
	s := strings.ToLower(strings.TrimSpace(locator))
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	return s
}

// Repository is a polyfill repository pinned to its local cache
// directory.
type Repository struct {
	Locator string
	Dir     string
}

// OpenRepository maps a locator to its cache directory without touching
// the network.
func OpenRepository(locator string) (*Repository, error) {
	root, err := CacheRoot()
	if err != nil {
		return nil, err
	}
	return &Repository{
		Locator: locator,
		Dir:     filepath.Join(root, cacheIdent(locator)),
	}, nil
}

// Resolve returns the repository, cloning it on first use. An existing
// cache directory is trusted as-is; Fetch forces an update.
func Resolve(locator string) (*Repository, error) {
	repo, err := OpenRepository(locator)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(repo.Dir); os.IsNotExist(err) {
		if err := repo.clone(); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

// Fetch updates the cached repository, cloning when absent. Any local
// drift in the cache is discarded.
func (r *Repository) Fetch() error {
	if _, err := os.Stat(filepath.Join(r.Dir, ".git")); os.IsNotExist(err) {
		return r.clone()
	}
	if out, err := r.git("fetch", "--depth", "1", "origin"); err != nil {
		return fmt.Errorf("git fetch %s: %s", r.Locator, out)
	}
	if out, err := r.git("reset", "--hard", "FETCH_HEAD"); err != nil {
		return fmt.Errorf("git reset %s: %s", r.Locator, out)
	}
	return nil
}

func (r *Repository) clone() error {
	if err := os.RemoveAll(r.Dir); err != nil {
		return fmt.Errorf("cleaning cache directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.Dir), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	args := []string{"clone", "--depth", "1", r.Locator, r.Dir}
	cmd := exec.Command("git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	output, err := cmd.CombinedOutput()
	if err != nil {
		// Shallow clone can fail against dumb HTTP servers; retry full.
		os.RemoveAll(r.Dir)
		cmd = exec.Command("git", "clone", r.Locator, r.Dir)
		cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
		output, err = cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("git clone %s: %s", r.Locator, strings.TrimSpace(string(output)))
		}
	}
	return nil
}

func (r *Repository) git(args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", r.Dir}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// Clean removes one repository's cache entry.
func Clean(locator string) error {
	repo, err := OpenRepository(locator)
	if err != nil {
		return err
	}
	return os.RemoveAll(repo.Dir)
}

// CleanAll removes every cached polyfill repository.
func CleanAll() error {
	root, err := CacheRoot()
	if err != nil {
		return err
	}
	return os.RemoveAll(root)
}
