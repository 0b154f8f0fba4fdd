// Package mcp merges the MCP server definitions plugins ship in their
// .mcp.json into the workspace's .mcp.json. The first plugin to define a
// server name wins. Servers already present in the workspace file that
// agentsync did not put there are never overwritten.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauern/agentsync/internal/logging"
	"github.com/klauern/agentsync/internal/model"
)

// FileName is the MCP configuration file read from plugins and written to
// the sync root.
const FileName = ".mcp.json"

// pluginRootVar is expanded to the plugin directory in server definitions.
const pluginRootVar = "${CLAUDE_PLUGIN_ROOT}"

// Result describes one merge.
type Result struct {
	// Servers are the names agentsync now owns in the target file, sorted.
	Servers []string
	Added   []string
	Removed []string
	// Warnings record first-wins collisions.
	Warnings []string
	// Changed reports whether the target file was (or would be) rewritten.
	Changed bool
}

// Merger merges plugin MCP servers into a root.
type Merger interface {
	Merge(ctx context.Context, root string, plugins []model.ResolvedPlugin, previous []string, dryRun bool) (*Result, error)
}

// JSONMerger implements Merger for .mcp.json files.
type JSONMerger struct{}

// Merge removes previously owned servers from <root>/.mcp.json, then adds
// each plugin's servers in plugin order. previous lists the names the last
// run owned.
func (JSONMerger) Merge(ctx context.Context, root string, plugins []model.ResolvedPlugin, previous []string, dryRun bool) (*Result, error) {
	target := filepath.Join(root, FileName)
	doc, servers, existed, err := readTarget(target)
	if err != nil {
		return nil, err
	}

	owned := make(map[string]bool, len(previous))
	for _, name := range previous {
		owned[name] = true
	}
	before := make(map[string]json.RawMessage, len(servers))
	for name, def := range servers {
		before[name] = def
	}
	for name := range owned {
		delete(servers, name)
	}

	res := &Result{}
	from := make(map[string]string)
	for _, p := range plugins {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		defs, err := readPluginServers(p)
		if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			continue
		}
		for _, name := range sortedKeys(defs) {
			if first, ok := from[name]; ok {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"MCP server %q from %s ignored; already provided by %s", name, p.Name, first))
				continue
			}
			if _, userOwned := servers[name]; userOwned {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"MCP server %q from %s ignored; %s already defines it", name, p.Name, FileName))
				continue
			}
			servers[name] = defs[name]
			from[name] = p.Name
		}
	}

	res.Servers = sortedKeys(from)
	for _, name := range res.Servers {
		if !owned[name] {
			res.Added = append(res.Added, name)
		}
	}
	for _, name := range sortedKeys(owned) {
		if _, still := from[name]; !still {
			res.Removed = append(res.Removed, name)
		}
	}
	res.Changed = !sameServers(before, servers)

	if !res.Changed || dryRun {
		return res, nil
	}

	if len(servers) == 0 && len(doc) == 0 {
		if existed {
			if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to remove %s: %w", target, err)
			}
		}
		return res, nil
	}

	if err := writeTarget(target, doc, servers); err != nil {
		return nil, err
	}
	logging.Debug("merged MCP servers",
		logging.Path(target),
		logging.Count(len(res.Servers)),
	)
	return res, nil
}

// readTarget returns the other top-level keys, the mcpServers map, and
// whether the file existed.
func readTarget(path string) (map[string]json.RawMessage, map[string]json.RawMessage, bool, error) {
	doc := make(map[string]json.RawMessage)
	servers := make(map[string]json.RawMessage)

	// #nosec G304 - path is inside the sync root
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, servers, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, servers, true, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, false, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if raw, ok := doc["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &servers); err != nil {
			return nil, nil, false, fmt.Errorf("failed to parse mcpServers in %s: %w", path, err)
		}
		delete(doc, "mcpServers")
	}
	return doc, servers, true, nil
}

func writeTarget(path string, doc, servers map[string]json.RawMessage) error {
	out := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out["mcpServers"] = servers
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	// #nosec G306 - MCP config is project metadata
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readPluginServers(p model.ResolvedPlugin) (map[string]json.RawMessage, error) {
	path := filepath.Join(p.Path, FileName)
	// #nosec G304 - path is inside a resolved plugin
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file struct {
		MCPServers map[string]json.RawMessage `json:"mcpServers"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	root, _ := json.Marshal(p.Path)
	escaped := strings.Trim(string(root), `"`)
	for name, def := range file.MCPServers {
		if bytes.Contains(def, []byte(pluginRootVar)) {
			file.MCPServers[name] = bytes.ReplaceAll(def, []byte(pluginRootVar), []byte(escaped))
		}
	}
	return file.MCPServers, nil
}

func sameServers(a, b map[string]json.RawMessage) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !jsonEqual(v, w) {
			return false
		}
	}
	return true
}

func jsonEqual(a, b json.RawMessage) bool {
	var x, y bytes.Buffer
	if json.Compact(&x, a) != nil || json.Compact(&y, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(x.Bytes(), y.Bytes())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
