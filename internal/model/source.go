package model

import (
	"fmt"
	"net/url"
	"strings"
)

// SourceKind classifies a plugin source string.
type SourceKind string

const (
	// SourceLocal is a filesystem path, absolute or relative to the sync root.
	SourceLocal SourceKind = "local"
	// SourceGit is a remote git repository (URL, SSH remote, or github: shorthand).
	SourceGit SourceKind = "git"
	// SourceMarketplace is a plugin@marketplace reference.
	SourceMarketplace SourceKind = "marketplace"
)

const githubPrefix = "github:"

// PluginSource is the parsed form of a plugin source string.
type PluginSource struct {
	Raw  string
	Kind SourceKind

	// Host, Org and Repo are set for remote references.
	Host string
	Org  string
	Repo string
	// Subpath is the plugin directory inside a remote repository.
	Subpath string

	// Plugin and Marketplace are set for SourceMarketplace.
	Plugin      string
	Marketplace string
}

// ParseSource classifies a plugin source string. It never fails: anything that
// is not recognisably remote or a marketplace reference is a local path.
func ParseSource(raw string) PluginSource {
	s := strings.TrimSpace(raw)
	src := PluginSource{Raw: raw, Kind: SourceLocal}

	switch {
	case strings.HasPrefix(s, githubPrefix):
		parseRepoPath(&src, "github.com", strings.TrimPrefix(s, githubPrefix))
	case strings.HasPrefix(s, "git@"):
		// git@host:org/repo.git
		rest := strings.TrimPrefix(s, "git@")
		host, path, ok := strings.Cut(rest, ":")
		if ok {
			parseRepoPath(&src, host, path)
		}
	case strings.Contains(s, "://"):
		u, err := url.Parse(s)
		if err == nil && u.Host != "" {
			parseRepoPath(&src, u.Host, strings.TrimPrefix(u.Path, "/"))
		}
	case isMarketplaceRef(s):
		plugin, market, _ := strings.Cut(s, "@")
		src.Kind = SourceMarketplace
		src.Plugin = plugin
		src.Marketplace = market
		// plugin@owner/repo names a GitHub-hosted marketplace.
		if org, repo, ok := strings.Cut(market, "/"); ok && org != "" && repo != "" {
			src.Host = "github.com"
			src.Org = org
			src.Repo = repo
		}
	}
	return src
}

// GitHubShorthand converts a bare "owner/repo" into "github:owner/repo".
// Sources that look like paths or carry more segments are rejected.
func GitHubShorthand(spec string) (string, bool) {
	spec = strings.TrimSpace(spec)
	if strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") || strings.HasPrefix(spec, "~") {
		return "", false
	}
	parts := strings.Split(spec, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	return githubPrefix + spec, true
}

func isMarketplaceRef(s string) bool {
	if strings.HasPrefix(s, ".") || strings.HasPrefix(s, "/") || strings.HasPrefix(s, "~") {
		return false
	}
	plugin, market, ok := strings.Cut(s, "@")
	return ok && plugin != "" && market != "" && !strings.Contains(plugin, "/")
}

func parseRepoPath(src *PluginSource, host, path string) {
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return
	}
	src.Kind = SourceGit
	src.Host = host
	src.Org = parts[0]
	src.Repo = strings.TrimSuffix(parts[1], ".git")
	rest := parts[2:]
	// https://github.com/org/repo/tree/<branch>/<subpath>
	if len(rest) >= 2 && rest[0] == "tree" {
		rest = rest[2:]
	}
	src.Subpath = strings.Join(rest, "/")
}

// IsRemote reports whether the source has a parseable hosting organization.
func (s PluginSource) IsRemote() bool {
	return s.Org != ""
}

// CloneURL returns the URL to clone for remote sources.
func (s PluginSource) CloneURL() string {
	if s.Org == "" {
		return ""
	}
	return fmt.Sprintf("https://%s/%s/%s.git", s.Host, s.Org, s.Repo)
}

// CacheKey returns a filesystem-safe directory name for a remote repository.
func (s PluginSource) CacheKey() string {
	if s.Org == "" {
		return ""
	}
	return strings.ReplaceAll(s.Host, ".", "-") + "-" + s.Org + "-" + s.Repo
}
