package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	manifestDir         = ".claude-plugin"
	pluginManifest      = "plugin.json"
	marketplaceManifest = "marketplace.json"
)

// Manifest is a plugin's .claude-plugin/plugin.json file.
type Manifest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Author      struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"author"`
}

// MarketplaceManifest is a marketplace's .claude-plugin/marketplace.json file.
type MarketplaceManifest struct {
	Name  string `json:"name"`
	Owner struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"owner"`
	Metadata struct {
		Description string `json:"description"`
		Version     string `json:"version"`
		PluginRoot  string `json:"pluginRoot"`
	} `json:"metadata"`
	Plugins []Ref `json:"plugins"`
}

// Ref is one plugin listed by a marketplace.
type Ref struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Source      RefSource `json:"source"`
}

// RefSource is a marketplace plugin source. It is either a path relative to
// the marketplace root or an object naming a remote repository.
type RefSource struct {
	Path string
	Repo string
	URL  string
}

// UnmarshalJSON accepts "./path", {"source":"github","repo":"o/r"} and
// {"source":"url","url":"https://..."}.
func (s *RefSource) UnmarshalJSON(data []byte) error {
	var path string
	if err := json.Unmarshal(data, &path); err == nil {
		s.Path = path
		return nil
	}
	var obj struct {
		Source string `json:"source"`
		Repo   string `json:"repo"`
		URL    string `json:"url"`
		Path   string `json:"path"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("plugin source must be a string or object: %w", err)
	}
	s.Repo, s.URL, s.Path = obj.Repo, obj.URL, obj.Path
	return nil
}

// Spec returns a plugin source string resolvable by a Resolver, with relative
// paths joined onto root.
func (s RefSource) Spec(root string) string {
	switch {
	case s.Repo != "":
		return "github:" + strings.TrimSuffix(s.Repo, ".git")
	case s.URL != "":
		return s.URL
	default:
		return filepath.Join(root, filepath.FromSlash(s.Path))
	}
}

// ReadManifest reads <dir>/.claude-plugin/plugin.json. A missing manifest is
// not an error and yields nil.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, manifestDir, pluginManifest)
	// #nosec G304 - path is built from a resolved plugin directory
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &m, nil
}

// ReadMarketplace reads <dir>/.claude-plugin/marketplace.json.
func ReadMarketplace(dir string) (*MarketplaceManifest, error) {
	path := filepath.Join(dir, manifestDir, marketplaceManifest)
	// #nosec G304 - path is built from a registered marketplace directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("marketplace.json not found in %s: %w", dir, err)
	}
	var m MarketplaceManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &m, nil
}

// Find returns the plugin named name.
func (m *MarketplaceManifest) Find(name string) (Ref, bool) {
	for _, r := range m.Plugins {
		if r.Name == name {
			return r, true
		}
	}
	return Ref{}, false
}

// Root returns the directory plugin paths are relative to.
func (m *MarketplaceManifest) Root(dir string) string {
	if m.Metadata.PluginRoot == "" {
		return dir
	}
	return filepath.Join(dir, filepath.FromSlash(m.Metadata.PluginRoot))
}
