package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klauern/agentsync/internal/util"
)

func TestStatusCommand_NeverSynced(t *testing.T) {
	root := newProject(t, demoConfig)

	output, err := runCLI(t, "status", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, output, "Project Scope")
	assert.Contains(t, output, "workspace.yaml")
	assert.Contains(t, output, "never")
}

func TestStatusCommand_AfterSync(t *testing.T) {
	root := newProject(t, demoConfig)
	_, err := runCLI(t, "sync", "--root", root)
	require.NoError(t, err)

	output, err := runCLI(t, "status", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, output, "claude")
	assert.Contains(t, output, "2 path(s)")
	assert.NotContains(t, output, "never")
}

func TestStatusCommand_JSON(t *testing.T) {
	root := newProject(t, demoConfig)
	_, err := runCLI(t, "sync", "--root", root)
	require.NoError(t, err)

	output, err := runCLI(t, "status", "--root", root, "--json")
	require.NoError(t, err)

	var reports []statusReport
	require.NoError(t, json.Unmarshal([]byte(output), &reports))
	require.Len(t, reports, 1)
	r := reports[0]
	assert.True(t, r.Synced)
	assert.NotNil(t, r.LastSync)
	assert.Equal(t, 1, r.Plugins)
	assert.Equal(t, []string{"claude"}, r.Clients)
	assert.ElementsMatch(t, []string{".claude/commands/greet.md", ".claude/skills/hello"}, r.Files["claude"])
}

func TestStatusCommand_WithoutConfig(t *testing.T) {
	t.Setenv(util.HomeEnv, t.TempDir())
	root := t.TempDir()

	output, err := runCLI(t, "status", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, output, "none")
	assert.Contains(t, output, "never")
}
