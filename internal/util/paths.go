package util

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// StateDirName is the per-root directory holding workspace config and sync state.
	StateDirName = ".agentsync"
	// HomeEnv overrides the agentsync home directory (~/.agentsync).
	HomeEnv = "AGENTSYNC_HOME"
)

// HomeDir returns the user's home directory
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// AgentsyncHome returns the directory for user-level agentsync data.
// AGENTSYNC_HOME takes precedence over ~/.agentsync.
func AgentsyncHome() string {
	if v := os.Getenv(HomeEnv); v != "" {
		return v
	}
	return filepath.Join(HomeDir(), StateDirName)
}

// PluginCachePath returns the directory remote plugins are cloned into.
func PluginCachePath() string {
	if v := os.Getenv("AGENTSYNC_PLUGIN_CACHE"); v != "" {
		return v
	}
	return filepath.Join(AgentsyncHome(), "plugins")
}

// MarketplacesFile returns the marketplace registry file.
func MarketplacesFile() string {
	return filepath.Join(AgentsyncHome(), "marketplaces.json")
}

// BackupsPath returns the directory hard-purge snapshots are written to.
func BackupsPath() string {
	return filepath.Join(AgentsyncHome(), "backups")
}

// StateDir returns the agentsync directory under a sync root.
func StateDir(root string) string {
	return filepath.Join(root, StateDirName)
}

// ExpandPath expands ~ and resolves relative paths against baseDir.
func ExpandPath(path, baseDir string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(HomeDir(), path[2:])
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}

// WithinRoot reports whether the slash-separated relative path rel stays
// inside its root once cleaned.
func WithinRoot(rel string) bool {
	if rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return false
	}
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(rel)))
	return clean != "." && clean != ".." && !strings.HasPrefix(clean, "../")
}
