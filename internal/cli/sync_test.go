package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klauern/agentsync/internal/config"
	"github.com/klauern/agentsync/internal/state"
	"github.com/klauern/agentsync/internal/sync"
	"github.com/klauern/agentsync/internal/util"
)

func TestSyncCommand(t *testing.T) {
	root := newProject(t, demoConfig)

	output, err := runCLI(t, "sync", "--root", root)
	require.NoError(t, err)

	util.AssertExists(t, filepath.Join(root, ".claude", "skills", "hello", "SKILL.md"))
	util.AssertExists(t, filepath.Join(root, ".claude", "commands", "greet.md"))
	util.AssertExists(t, filepath.Join(root, util.StateDirName, state.FileName))

	assert.Contains(t, output, "Project Scope")
	assert.Contains(t, output, "copied .claude/skills/hello")
	assert.Contains(t, output, "Summary")
}

func TestSyncCommand_SecondRunSkips(t *testing.T) {
	root := newProject(t, demoConfig)

	_, err := runCLI(t, "sync", "--root", root)
	require.NoError(t, err)

	output, err := runCLI(t, "sync", "--root", root, "--json")
	require.NoError(t, err)

	var res sync.SyncResult
	require.NoError(t, json.Unmarshal([]byte(output), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.TotalCopied)
	assert.Equal(t, 2, res.TotalSkipped)
}

func TestSyncCommand_JSON(t *testing.T) {
	root := newProject(t, demoConfig)

	output, err := runCLI(t, "sync", "--root", root, "--json")
	require.NoError(t, err)

	var res sync.SyncResult
	require.NoError(t, json.Unmarshal([]byte(output), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "project", string(res.Scope))
	assert.Equal(t, 2, res.TotalCopied)
	require.Len(t, res.PluginResults, 1)
	assert.Equal(t, "demo", res.PluginResults[0].Plugin)
}

func TestSyncCommand_DryRun(t *testing.T) {
	root := newProject(t, demoConfig)

	output, err := runCLI(t, "sync", "--root", root, "--dry-run")
	require.NoError(t, err)

	util.AssertNotExists(t, filepath.Join(root, ".claude"))
	util.AssertNotExists(t, filepath.Join(root, util.StateDirName, state.FileName))
	assert.Contains(t, output, "(dry run)")
}

func TestSyncCommand_UnresolvablePlugin(t *testing.T) {
	root := newProject(t, demoConfig)
	util.WriteFile(t, filepath.Join(root, util.StateDirName, "workspace.yaml"), `plugins:
  - ./plugins/demo
  - ./plugins/missing
clients:
  - claude
`)

	output, err := runCLI(t, "sync", "--root", root)
	require.Error(t, err)
	assert.True(t, sync.IsAborted(err))
	assert.Contains(t, output, "./plugins/missing")

	util.AssertNotExists(t, filepath.Join(root, ".claude"))
	util.AssertNotExists(t, filepath.Join(root, util.StateDirName, state.FileName))
}

func TestSyncCommand_MissingConfig(t *testing.T) {
	t.Setenv(util.HomeEnv, t.TempDir())
	root := t.TempDir()

	_, err := runCLI(t, "sync", "--root", root)
	require.Error(t, err)
	assert.True(t, config.IsNotExist(err))
}

func TestSyncCommand_ExplicitConfig(t *testing.T) {
	root := newProject(t, demoConfig)
	alt := filepath.Join(t.TempDir(), "alt.toml")
	util.WriteFile(t, alt, `plugins = ["./plugins/demo"]
clients = ["codex"]
`)

	_, err := runCLI(t, "sync", "--root", root, "--config", alt)
	require.NoError(t, err)

	util.AssertExists(t, filepath.Join(root, ".agents", "skills", "hello", "SKILL.md"))
	util.AssertNotExists(t, filepath.Join(root, ".claude"))
}

func TestSyncCommand_ScopeAllSkipsUnconfiguredScopes(t *testing.T) {
	root := newProject(t, demoConfig)

	output, err := runCLI(t, "sync", "--root", root, "--scope", "all")
	require.NoError(t, err)

	util.AssertExists(t, filepath.Join(root, ".claude", "skills", "hello"))
	assert.Contains(t, output, "Project Scope")
	assert.NotContains(t, output, "User Scope")
}

func TestSyncCommand_ScopeAllRunsUserAfterProjectAborts(t *testing.T) {
	root := newProject(t, `plugins:
  - ./plugins/missing
clients:
  - claude
`)
	home := t.TempDir()
	t.Setenv("HOME", home)
	util.WriteFile(t, filepath.Join(util.AgentsyncHome(), "workspace.yaml"), "plugins:\n  - "+
		filepath.Join(root, "plugins", "demo")+"\nclients:\n  - claude\n")

	output, err := runCLI(t, "sync", "--root", root, "--scope", "all")
	require.Error(t, err)
	assert.True(t, sync.IsAborted(err))
	assert.Contains(t, err.Error(), "project scope")
	assert.NotContains(t, err.Error(), "user scope")

	util.AssertNotExists(t, filepath.Join(root, ".claude"))
	util.AssertExists(t, filepath.Join(home, ".claude", "skills", "hello", "SKILL.md"))
	util.AssertExists(t, filepath.Join(util.AgentsyncHome(), state.FileName))
	assert.Contains(t, output, "User Scope")
}

func TestSyncCommand_FlagErrors(t *testing.T) {
	root := newProject(t, demoConfig)

	tests := map[string]struct {
		args    []string
		wantErr string
	}{
		"unknown scope": {
			args:    []string{"sync", "--root", root, "--scope", "galaxy"},
			wantErr: "invalid scope",
		},
		"config with every scope": {
			args:    []string{"sync", "--root", root, "--scope", "all", "--config", "x.yaml"},
			wantErr: "--config cannot be combined",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSyncCommand_RemovedPluginIsPurged(t *testing.T) {
	root := newProject(t, demoConfig)

	_, err := runCLI(t, "sync", "--root", root)
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(filepath.Join(root, "plugins", "demo", "commands")))
	output, err := runCLI(t, "sync", "--root", root)
	require.NoError(t, err)

	util.AssertNotExists(t, filepath.Join(root, ".claude", "commands", "greet.md"))
	util.AssertExists(t, filepath.Join(root, ".claude", "skills", "hello"))
	assert.Contains(t, output, "purged .claude/commands/greet.md")
}
