package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Marketplace is one registered plugin catalog.
type Marketplace struct {
	// Name is the manifest name of the marketplace, if known.
	Name string `json:"name,omitempty"`
	// Source is the repository or path it was registered from.
	Source string `json:"source"`
	// Path is the local directory holding .claude-plugin/marketplace.json.
	Path    string    `json:"path"`
	AddedAt time.Time `json:"addedAt"`
}

// Registry persists registered marketplaces in a JSON file.
type Registry struct {
	Path string
}

type registryFile struct {
	Marketplaces map[string]Marketplace `json:"marketplaces"`
}

// NewRegistry returns a Registry backed by path.
func NewRegistry(path string) *Registry {
	return &Registry{Path: path}
}

// Load reads every registered marketplace keyed by reference. A missing file
// yields an empty map.
func (r *Registry) Load() (map[string]Marketplace, error) {
	// #nosec G304 - registry path comes from the agentsync home
	data, err := os.ReadFile(r.Path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]Marketplace), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read marketplace registry: %w", err)
	}
	var f registryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse marketplace registry %s: %w", r.Path, err)
	}
	if f.Marketplaces == nil {
		f.Marketplaces = make(map[string]Marketplace)
	}
	return f.Marketplaces, nil
}

// Lookup finds a marketplace by reference key or manifest name.
func (r *Registry) Lookup(ref string) (Marketplace, bool, error) {
	all, err := r.Load()
	if err != nil {
		return Marketplace{}, false, err
	}
	if m, ok := all[ref]; ok {
		return m, true, nil
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if all[k].Name == ref {
			return all[k], true, nil
		}
	}
	return Marketplace{}, false, nil
}

// Add registers a marketplace under ref, replacing any previous entry.
func (r *Registry) Add(ref string, m Marketplace) error {
	all, err := r.Load()
	if err != nil {
		return err
	}
	if m.AddedAt.IsZero() {
		m.AddedAt = time.Now().UTC()
	}
	all[ref] = m

	if err := os.MkdirAll(filepath.Dir(r.Path), 0o750); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}
	data, err := json.MarshalIndent(registryFile{Marketplaces: all}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal marketplace registry: %w", err)
	}
	// #nosec G306 - registry is user metadata
	if err := os.WriteFile(r.Path, append(data, '\n'), 0o640); err != nil {
		return fmt.Errorf("failed to write marketplace registry: %w", err)
	}
	return nil
}
