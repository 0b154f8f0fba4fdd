// Package state persists the manifest of artifacts the last successful sync
// produced. The manifest drives the next run's purge set and is always
// replaced wholesale, never merged.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/util"
)

const (
	// Version is the current state file format version.
	Version = 1
	// FileName is the state file name inside the root's state directory.
	FileName = "sync-state.json"
)

// State is the persisted sync manifest. Paths are slash-separated and
// relative to the sync root.
type State struct {
	Version    int                       `json:"version"`
	LastSync   time.Time                 `json:"lastSync"`
	Files      map[model.Client][]string `json:"files"`
	MCPServers map[model.Scope][]string  `json:"mcpServers,omitempty"`
}

// New returns an empty state.
func New() *State {
	return &State{
		Version: Version,
		Files:   make(map[model.Client][]string),
	}
}

// IsEmpty reports whether the state records no artifacts.
func (s *State) IsEmpty() bool {
	if s == nil {
		return true
	}
	for _, paths := range s.Files {
		if len(paths) > 0 {
			return false
		}
	}
	return len(s.MCPServers) == 0
}

// Clients returns the clients recorded in the state, sorted.
func (s *State) Clients() []model.Client {
	clients := make([]model.Client, 0, len(s.Files))
	for c := range s.Files {
		clients = append(clients, c)
	}
	slices.Sort(clients)
	return clients
}

// Add records paths for a client.
func (s *State) Add(client model.Client, paths ...string) {
	if s.Files == nil {
		s.Files = make(map[model.Client][]string)
	}
	s.Files[client] = append(s.Files[client], paths...)
}

// Owned returns the set of every path recorded for any client.
func (s *State) Owned() map[string]struct{} {
	owned := make(map[string]struct{})
	if s == nil {
		return owned
	}
	for _, paths := range s.Files {
		for _, p := range paths {
			owned[p] = struct{}{}
		}
	}
	return owned
}

// Servers returns the MCP server names recorded for a scope.
func (s *State) Servers(scope model.Scope) []string {
	if s == nil {
		return nil
	}
	return s.MCPServers[scope]
}

// SetServers records MCP server names for a scope.
func (s *State) SetServers(scope model.Scope, names []string) {
	if len(names) == 0 {
		delete(s.MCPServers, scope)
		return
	}
	if s.MCPServers == nil {
		s.MCPServers = make(map[model.Scope][]string)
	}
	s.MCPServers[scope] = names
}

// Normalize sorts and de-duplicates every path list and drops empty entries.
func (s *State) Normalize() {
	for c, paths := range s.Files {
		if len(paths) == 0 {
			delete(s.Files, c)
			continue
		}
		s.Files[c] = sortedUnique(paths)
	}
	for scope, names := range s.MCPServers {
		if len(names) == 0 {
			delete(s.MCPServers, scope)
			continue
		}
		s.MCPServers[scope] = sortedUnique(names)
	}
}

// Orphans returns paths prev recorded that next no longer records for the
// same client. A path still recorded for any client in next is kept.
// The result is sorted and unique.
func Orphans(prev, next *State) []string {
	if prev == nil {
		return nil
	}
	still := next.Owned()
	set := make(map[string]struct{})
	for client, paths := range prev.Files {
		current := make(map[string]struct{})
		if next != nil {
			for _, p := range next.Files[client] {
				current[p] = struct{}{}
			}
		}
		for _, p := range paths {
			if _, ok := current[p]; ok {
				continue
			}
			if _, ok := still[p]; ok {
				continue
			}
			set[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func sortedUnique(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}

// Store reads and writes the state file for one sync root.
type Store struct {
	Path string
	// Now stamps LastSync on save.
	Now func() time.Time
}

// NewStore returns a Store for <root>/.agentsync/sync-state.json.
func NewStore(root string) *Store {
	return &Store{
		Path: filepath.Join(util.StateDir(root), FileName),
		Now:  time.Now,
	}
}

// NewStoreIn returns a Store for <dir>/sync-state.json.
func NewStoreIn(dir string) *Store {
	return &Store{
		Path: filepath.Join(dir, FileName),
		Now:  time.Now,
	}
}

// StoreFor returns the store of a sync root. User-scope state lives in the
// agentsync home directory rather than under the home directory root.
func StoreFor(root string, scope model.Scope) *Store {
	if scope == model.ScopeUser {
		return NewStoreIn(util.AgentsyncHome())
	}
	return NewStore(root)
}

// Exists reports whether a state file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}

// Load reads the state file. A missing file yields an empty state.
func (s *Store) Load() (*State, error) {
	// #nosec G304 - path is built from the sync root
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync state: %w", err)
	}

	st := New()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("failed to parse sync state %s: %w", s.Path, err)
	}
	if st.Version > Version {
		return nil, fmt.Errorf("sync state %s has unsupported version %d", s.Path, st.Version)
	}
	if st.Files == nil {
		st.Files = make(map[model.Client][]string)
	}
	return st, nil
}

// Save replaces the state file atomically. It stamps Version and LastSync.
func (s *Store) Save(st *State) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	st.Version = Version
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	st.LastSync = now().UTC()
	st.Normalize()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write sync state: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("failed to replace sync state: %w", err)
	}
	return nil
}

// Remove deletes the state file if present.
func (s *Store) Remove() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove sync state: %w", err)
	}
	return nil
}
