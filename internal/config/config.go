// Package config loads the workspace configuration that declares which
// plugins are synchronized into which clients. YAML, TOML and JSON files are
// supported; the format is chosen by extension.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/plugin"
	"github.com/klauern/agentsync/internal/util"
)

// SyncMode controls how skill directories are materialized.
type SyncMode string

const (
	// SyncModeCopy copies skill directories.
	SyncModeCopy SyncMode = "copy"
	// SyncModeSymlink links skill directories back to the plugin.
	SyncModeSymlink SyncMode = "symlink"
)

// IsValid reports whether m is a known mode. Empty means copy.
func (m SyncMode) IsValid() bool {
	return m == "" || m == SyncModeCopy || m == SyncModeSymlink
}

// Config is a workspace configuration file.
type Config struct {
	Plugins        []PluginEntry `yaml:"plugins" toml:"plugins" json:"plugins"`
	Clients        []string      `yaml:"clients" toml:"clients" json:"clients"`
	DisabledSkills []string      `yaml:"disabledSkills,omitempty" toml:"disabledSkills" json:"disabledSkills,omitempty"`
	SyncMode       SyncMode      `yaml:"syncMode,omitempty" toml:"syncMode" json:"syncMode,omitempty"`
	Workspace      *Workspace    `yaml:"workspace,omitempty" toml:"workspace" json:"workspace,omitempty"`
	Repositories   []Repository  `yaml:"repositories,omitempty" toml:"repositories" json:"repositories,omitempty"`
	Backup         Backup        `yaml:"backup,omitempty" toml:"backup" json:"backup,omitempty"`
	// VSCode is carried through unchanged; agentsync does not generate IDE files.
	VSCode *VSCode `yaml:"vscode,omitempty" toml:"vscode" json:"vscode,omitempty"`

	// Path is the file the configuration was loaded from.
	Path string `yaml:"-" toml:"-" json:"-"`
}

// Workspace declares files copied into the sync root and the rules block
// written into every agent file.
type Workspace struct {
	// Source is the directory files are selected from, relative to the root.
	Source string      `yaml:"source,omitempty" toml:"source" json:"source,omitempty"`
	Files  []FileEntry `yaml:"files,omitempty" toml:"files" json:"files,omitempty"`
	Rules  string      `yaml:"rules,omitempty" toml:"rules" json:"rules,omitempty"`
}

// Repository is a related repository listed for context.
type Repository struct {
	Path        string `yaml:"path" toml:"path" json:"path"`
	Description string `yaml:"description,omitempty" toml:"description" json:"description,omitempty"`
}

// Backup configures hard-purge snapshots.
type Backup struct {
	// MaxBackups is how many snapshots to keep. Zero means 10.
	MaxBackups int `yaml:"maxBackups,omitempty" toml:"maxBackups" json:"maxBackups,omitempty"`
}

// VSCode holds the IDE workspace template.
type VSCode struct {
	Template map[string]any `yaml:"template,omitempty" toml:"template" json:"template,omitempty"`
}

// Error is a missing or invalid configuration file.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Format is a configuration file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatTOML
	FormatJSON
)

// DetectFormat returns the format implied by a file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatUnknown
	}
}

// Load reads, parses and validates a configuration file, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	// #nosec G304 - path is the workspace config chosen by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	cfg, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvironment()
	if err := cfg.Validate(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return cfg, nil
}

// Parse decodes data according to the format of path without validating.
func Parse(path string, data []byte) (*Config, error) {
	cfg := &Config{Path: path}
	var err error
	switch DetectFormat(path) {
	case FormatYAML:
		err = yaml.Unmarshal(data, cfg)
	case FormatTOML:
		err = toml.Unmarshal(data, cfg)
	case FormatJSON:
		err = json.Unmarshal(data, cfg)
	default:
		err = fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return cfg, nil
}

// candidates are checked in order when locating a config file.
var candidates = []string{"workspace.yaml", "workspace.yml", "workspace.toml", "workspace.json"}

// Find returns the first workspace config file present in dir.
func Find(dir string) (string, error) {
	for _, name := range candidates {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", &Error{
		Path: filepath.Join(dir, candidates[0]),
		Err:  fmt.Errorf("no workspace config found: %w", os.ErrNotExist),
	}
}

// ProjectDir returns where a project's config lives.
func ProjectDir(root string) string {
	return util.StateDir(root)
}

// UserDir returns where the user-scope config lives.
func UserDir() string {
	return util.AgentsyncHome()
}

// IsNotExist reports whether err means no configuration file was found.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// PluginSpecs converts plugin entries for the validator.
func (c *Config) PluginSpecs() []plugin.Spec {
	specs := make([]plugin.Spec, len(c.Plugins))
	for i, p := range c.Plugins {
		specs[i] = plugin.Spec{Source: p.Source, Alias: p.Dest}
	}
	return specs
}

// ClientList returns the configured clients in order with duplicates
// removed. Call only after Validate.
func (c *Config) ClientList() []model.Client {
	seen := make(map[model.Client]bool)
	var out []model.Client
	for _, name := range c.Clients {
		cl, err := model.ParseClient(name)
		if err != nil || seen[cl] {
			continue
		}
		seen[cl] = true
		out = append(out, cl)
	}
	return out
}

// Mode returns the sync mode, defaulting to copy.
func (c *Config) Mode() SyncMode {
	if c.SyncMode == "" {
		return SyncModeCopy
	}
	return c.SyncMode
}

// MaxBackups returns the snapshot retention count.
func (c *Config) MaxBackups() int {
	if c.Backup.MaxBackups <= 0 {
		return 10
	}
	return c.Backup.MaxBackups
}

// applyEnvironment applies AGENTSYNC_* overrides.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("AGENTSYNC_SYNC_MODE"); v != "" {
		c.SyncMode = SyncMode(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv("AGENTSYNC_CLIENTS"); v != "" {
		c.Clients = splitList(v)
	}
}

// splitList splits a comma-separated list, dropping empty items.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
