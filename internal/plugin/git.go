package plugin

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauern/agentsync/internal/logging"
	"github.com/klauern/agentsync/internal/model"
)

// CommandRunner runs external commands. Tests substitute a fake.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args in dir and returns combined output.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	// #nosec G204 - git arguments come from the workspace configuration
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Fetcher keeps shallow clones of remote repositories in a cache directory.
// Each repository is fetched at most once until Reset is called, no matter
// how many sources point into it.
type Fetcher struct {
	CacheDir string
	Runner   CommandRunner
	// Offline uses existing clones only and never touches the network.
	Offline bool
	// Cache memoizes fetches per repository. A nil Cache is created on first use.
	Cache *Cache

	once sync.Once
}

// NewFetcher returns a Fetcher using git via os/exec.
func NewFetcher(cacheDir string, offline bool) *Fetcher {
	return &Fetcher{CacheDir: cacheDir, Runner: ExecRunner{}, Offline: offline, Cache: NewCache()}
}

func (f *Fetcher) cache() *Cache {
	f.once.Do(func() {
		if f.Cache == nil {
			f.Cache = NewCache()
		}
	})
	return f.Cache
}

// Reset forgets every memoized fetch so the next Ensure pulls again.
func (f *Fetcher) Reset() {
	f.cache().Invalidate()
}

// Ensure clones the repository for src if needed, or pulls an existing
// clone, and returns the clone directory. Pull failures fall back to the
// existing clone. Concurrent callers for the same repository wait for the
// first fetch and share its result.
func (f *Fetcher) Ensure(ctx context.Context, src model.PluginSource) (string, error) {
	if !src.IsRemote() {
		return "", fmt.Errorf("%q is not a remote repository", src.Raw)
	}
	return f.cache().Do("repo:"+src.CacheKey(), func() (string, error) {
		return f.fetch(ctx, src)
	})
}

func (f *Fetcher) fetch(ctx context.Context, src model.PluginSource) (string, error) {
	repoPath := filepath.Join(f.CacheDir, src.CacheKey())

	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err == nil {
		if f.Offline {
			return repoPath, nil
		}
		if out, err := f.Runner.Run(ctx, repoPath, "git", "pull", "--ff-only"); err != nil {
			logging.Debug("git pull failed, using existing clone",
				logging.Path(repoPath),
				logging.Err(gitError(err, out)),
			)
		}
		return repoPath, nil
	}

	if f.Offline {
		return "", fmt.Errorf("%s is not cached and offline mode is enabled", src.Raw)
	}
	if err := os.MkdirAll(f.CacheDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create plugin cache: %w", err)
	}

	url := cloneURL(src)
	logging.Info("cloning plugin repository", logging.Plugin(url), logging.Path(repoPath))
	if out, err := f.Runner.Run(ctx, f.CacheDir, "git", "clone", "--depth", "1", url, repoPath); err != nil {
		return "", fmt.Errorf("failed to clone %s: %w", url, gitError(err, out))
	}
	return repoPath, nil
}

func cloneURL(src model.PluginSource) string {
	raw := strings.TrimSpace(src.Raw)
	if strings.HasPrefix(raw, "git@") {
		return raw
	}
	return src.CloneURL()
}

func gitError(err error, out []byte) error {
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, msg)
}
