package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// PluginEntry is a plugin source, written either as a bare string or as
// {source, dest} where dest names the plugin.
type PluginEntry struct {
	Source string `yaml:"source" toml:"source" json:"source"`
	Dest   string `yaml:"dest,omitempty" toml:"dest" json:"dest,omitempty"`
}

// UnmarshalYAML accepts a scalar or a mapping node.
func (p *PluginEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		p.Source = node.Value
		return nil
	}
	type raw PluginEntry
	var r raw
	if err := node.Decode(&r); err != nil {
		return fmt.Errorf("line %d: plugin entry must be a string or {source, dest}: %w", node.Line, err)
	}
	*p = PluginEntry(r)
	return nil
}

// UnmarshalTOML accepts a string or an inline table.
func (p *PluginEntry) UnmarshalTOML(v any) error {
	src, dest, err := pairFromTOML(v, "plugin")
	if err != nil {
		return err
	}
	p.Source, p.Dest = src, dest
	return nil
}

// UnmarshalJSON accepts a string or an object.
func (p *PluginEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Source = s
		return nil
	}
	type raw PluginEntry
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("plugin entry must be a string or {source, dest}: %w", err)
	}
	*p = PluginEntry(r)
	return nil
}

// MarshalYAML writes the short form when there is no alias.
func (p PluginEntry) MarshalYAML() (any, error) {
	if p.Dest == "" {
		return p.Source, nil
	}
	type raw PluginEntry
	return raw(p), nil
}

// FileEntry is a workspace file rule: a glob pattern, or an explicit
// {source, dest} pair copied without pattern expansion.
type FileEntry struct {
	Pattern string `yaml:"-" toml:"-" json:"-"`
	Source  string `yaml:"source,omitempty" toml:"source" json:"source,omitempty"`
	Dest    string `yaml:"dest,omitempty" toml:"dest" json:"dest,omitempty"`
}

// IsPattern reports whether the entry is a glob pattern.
func (f FileEntry) IsPattern() bool {
	return f.Pattern != ""
}

// UnmarshalYAML accepts a scalar pattern or a {source, dest} mapping.
func (f *FileEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.Pattern = node.Value
		return nil
	}
	var pair struct {
		Source string `yaml:"source"`
		Dest   string `yaml:"dest"`
	}
	if err := node.Decode(&pair); err != nil {
		return fmt.Errorf("line %d: file entry must be a pattern or {source, dest}: %w", node.Line, err)
	}
	f.Source, f.Dest = pair.Source, pair.Dest
	return nil
}

// UnmarshalTOML accepts a string pattern or an inline table.
func (f *FileEntry) UnmarshalTOML(v any) error {
	if s, ok := v.(string); ok {
		f.Pattern = s
		return nil
	}
	src, dest, err := pairFromTOML(v, "file")
	if err != nil {
		return err
	}
	f.Source, f.Dest = src, dest
	return nil
}

// UnmarshalJSON accepts a string pattern or an object.
func (f *FileEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Pattern = s
		return nil
	}
	var pair struct {
		Source string `json:"source"`
		Dest   string `json:"dest"`
	}
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("file entry must be a pattern or {source, dest}: %w", err)
	}
	f.Source, f.Dest = pair.Source, pair.Dest
	return nil
}

// MarshalYAML writes patterns as scalars.
func (f FileEntry) MarshalYAML() (any, error) {
	if f.Pattern != "" {
		return f.Pattern, nil
	}
	return map[string]string{"source": f.Source, "dest": f.Dest}, nil
}

func pairFromTOML(v any, what string) (string, string, error) {
	switch t := v.(type) {
	case string:
		return t, "", nil
	case map[string]any:
		src, _ := t["source"].(string)
		dest, _ := t["dest"].(string)
		return src, dest, nil
	default:
		return "", "", fmt.Errorf("%s entry must be a string or table, got %T", what, v)
	}
}
