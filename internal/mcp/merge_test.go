package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/util"
)

func pluginWithServers(t *testing.T, name, servers string) model.ResolvedPlugin {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	util.WriteFile(t, filepath.Join(dir, FileName), `{"mcpServers": `+servers+`}`)
	return model.ResolvedPlugin{Spec: "./" + name, Path: dir, Name: name}
}

func readServers(t *testing.T, root string) map[string]map[string]any {
	t.Helper()
	var doc struct {
		MCPServers map[string]map[string]any `json:"mcpServers"`
	}
	require.NoError(t, json.Unmarshal([]byte(util.ReadFile(t, filepath.Join(root, FileName))), &doc))
	return doc.MCPServers
}

func TestJSONMerger_FirstWins(t *testing.T) {
	root := t.TempDir()
	alpha := pluginWithServers(t, "alpha", `{"fetch": {"command": "alpha-fetch"}, "db": {"command": "${CLAUDE_PLUGIN_ROOT}/bin/db"}}`)
	beta := pluginWithServers(t, "beta", `{"fetch": {"command": "beta-fetch"}, "search": {"command": "s"}}`)

	res, err := JSONMerger{}.Merge(context.Background(), root, []model.ResolvedPlugin{alpha, beta}, nil, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"db", "fetch", "search"}, res.Servers)
	assert.Equal(t, res.Servers, res.Added)
	assert.True(t, res.Changed)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], `"fetch" from beta ignored`)

	servers := readServers(t, root)
	assert.Equal(t, "alpha-fetch", servers["fetch"]["command"])
	assert.Equal(t, alpha.Path+"/bin/db", servers["db"]["command"])
}

func TestJSONMerger_KeepsUserServersAndOtherKeys(t *testing.T) {
	root := t.TempDir()
	util.WriteFile(t, filepath.Join(root, FileName), `{"$schema": "x", "mcpServers": {"fetch": {"command": "mine"}}}`)
	alpha := pluginWithServers(t, "alpha", `{"fetch": {"command": "alpha"}, "db": {"command": "db"}}`)

	res, err := JSONMerger{}.Merge(context.Background(), root, []model.ResolvedPlugin{alpha}, nil, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"db"}, res.Servers)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "already defines it")

	servers := readServers(t, root)
	assert.Equal(t, "mine", servers["fetch"]["command"])
	assert.Contains(t, util.ReadFile(t, filepath.Join(root, FileName)), `"$schema"`)
}

func TestJSONMerger_RemovesNoLongerProduced(t *testing.T) {
	root := t.TempDir()
	alpha := pluginWithServers(t, "alpha", `{"db": {"command": "db"}}`)
	beta := pluginWithServers(t, "beta", `{"search": {"command": "s"}}`)

	first, err := JSONMerger{}.Merge(context.Background(), root, []model.ResolvedPlugin{alpha, beta}, nil, false)
	require.NoError(t, err)

	second, err := JSONMerger{}.Merge(context.Background(), root, []model.ResolvedPlugin{alpha}, first.Servers, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"db"}, second.Servers)
	assert.Equal(t, []string{"search"}, second.Removed)
	assert.Empty(t, second.Added)
	assert.NotContains(t, readServers(t, root), "search")

	third, err := JSONMerger{}.Merge(context.Background(), root, nil, second.Servers, false)
	require.NoError(t, err)
	assert.True(t, third.Changed)
	util.AssertNotExists(t, filepath.Join(root, FileName))
}

func TestJSONMerger_IdempotentAndDryRun(t *testing.T) {
	root := t.TempDir()
	alpha := pluginWithServers(t, "alpha", `{"db": {"command": "db"}}`)

	dry, err := JSONMerger{}.Merge(context.Background(), root, []model.ResolvedPlugin{alpha}, nil, true)
	require.NoError(t, err)
	assert.True(t, dry.Changed)
	util.AssertNotExists(t, filepath.Join(root, FileName))

	first, err := JSONMerger{}.Merge(context.Background(), root, []model.ResolvedPlugin{alpha}, nil, false)
	require.NoError(t, err)
	again, err := JSONMerger{}.Merge(context.Background(), root, []model.ResolvedPlugin{alpha}, first.Servers, false)
	require.NoError(t, err)
	assert.False(t, again.Changed)
}

func TestJSONMerger_BrokenPluginFileIsWarning(t *testing.T) {
	root := t.TempDir()
	dir := t.TempDir()
	util.WriteFile(t, filepath.Join(dir, FileName), "{broken")

	res, err := JSONMerger{}.Merge(context.Background(), root, []model.ResolvedPlugin{{Path: dir, Name: "bad"}}, nil, false)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.False(t, res.Changed)
}
