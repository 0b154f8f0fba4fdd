package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/plugin"
	"github.com/klauern/agentsync/internal/util"
)

const yamlConfig = `plugins:
  - ./plugins/alpha
  - source: github:acme/tools
    dest: acme-tools
clients: [claude, copilot, vscode, claude]
disabledSkills: ["alpha:legacy"]
syncMode: symlink
workspace:
  source: ./ws
  files:
    - "**/*.md"
    - "!docs/**"
    - source: templates/agents.md
      dest: AGENTS.md
  rules: |
    Always run tests.
repositories:
  - path: ../api
    description: Backend
vscode:
  template:
    settings:
      editor.formatOnSave: true
`

const tomlConfig = `plugins = ["./plugins/alpha", { source = "github:acme/tools", dest = "acme-tools" }]
clients = ["claude", "copilot", "vscode", "claude"]
disabledSkills = ["alpha:legacy"]
syncMode = "symlink"

[workspace]
source = "./ws"
files = ["**/*.md", "!docs/**", { source = "templates/agents.md", dest = "AGENTS.md" }]
rules = "Always run tests.\n"

[[repositories]]
path = "../api"
description = "Backend"

[vscode.template.settings]
"editor.formatOnSave" = true
`

const jsonConfig = `{
  "plugins": ["./plugins/alpha", {"source": "github:acme/tools", "dest": "acme-tools"}],
  "clients": ["claude", "copilot", "vscode", "claude"],
  "disabledSkills": ["alpha:legacy"],
  "syncMode": "symlink",
  "workspace": {
    "source": "./ws",
    "files": ["**/*.md", "!docs/**", {"source": "templates/agents.md", "dest": "AGENTS.md"}],
    "rules": "Always run tests.\n"
  },
  "repositories": [{"path": "../api", "description": "Backend"}],
  "vscode": {"template": {"settings": {"editor.formatOnSave": true}}}
}`

func TestLoad_AllFormats(t *testing.T) {
	for name, content := range map[string]string{
		"workspace.yaml": yamlConfig,
		"workspace.toml": tomlConfig,
		"workspace.json": jsonConfig,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			util.WriteFile(t, path, content)

			cfg, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, path, cfg.Path)
			assert.Equal(t, []plugin.Spec{
				{Source: "./plugins/alpha"},
				{Source: "github:acme/tools", Alias: "acme-tools"},
			}, cfg.PluginSpecs())
			assert.Equal(t, []model.Client{model.Claude, model.Copilot, model.VSCode}, cfg.ClientList())
			assert.Equal(t, SyncModeSymlink, cfg.Mode())
			assert.Equal(t, []string{"alpha:legacy"}, cfg.DisabledSkills)

			require.NotNil(t, cfg.Workspace)
			assert.Equal(t, "./ws", cfg.Workspace.Source)
			require.Len(t, cfg.Workspace.Files, 3)
			assert.Equal(t, "**/*.md", cfg.Workspace.Files[0].Pattern)
			assert.Equal(t, "!docs/**", cfg.Workspace.Files[1].Pattern)
			assert.False(t, cfg.Workspace.Files[2].IsPattern())
			assert.Equal(t, "AGENTS.md", cfg.Workspace.Files[2].Dest)
			assert.Equal(t, "Always run tests.\n", cfg.Workspace.Rules)

			assert.Equal(t, []Repository{{Path: "../api", Description: "Backend"}}, cfg.Repositories)
			require.NotNil(t, cfg.VSCode)
			assert.Contains(t, cfg.VSCode.Template, "settings")
			assert.Equal(t, 10, cfg.MaxBackups())
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "workspace.yaml"))
		require.Error(t, err)
		var cfgErr *Error
		require.ErrorAs(t, err, &cfgErr)
		assert.True(t, IsNotExist(err))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "workspace.ini")
		util.WriteFile(t, path, "x=1")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported config format")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "workspace.yaml")
		util.WriteFile(t, path, "plugins: [unterminated")
		_, err := Load(path)
		var cfgErr *Error
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("invalid values reported together", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "workspace.yaml")
		util.WriteFile(t, path, `plugins: [{dest: x}]
clients: [claud, nonsense]
disabledSkills: [justaskill]
syncMode: hardlink
workspace:
  files:
    - source: only-source
`)
		_, err := Load(path)
		require.Error(t, err)
		msg := err.Error()
		assert.Contains(t, msg, `unknown client "claud" (did you mean "claude"?)`)
		assert.Contains(t, msg, `unknown client "nonsense"`)
		assert.Contains(t, msg, "plugins[0]")
		assert.Contains(t, msg, "plugin:skill")
		assert.Contains(t, msg, "hardlink")
		assert.Contains(t, msg, "workspace.files[0]")
	})

	t.Run("no clients", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "workspace.yaml")
		util.WriteFile(t, path, "plugins: [./a]\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one client")
	})
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.yaml")
	util.WriteFile(t, path, "plugins: [./a]\nclients: [claude]\n")
	t.Setenv("AGENTSYNC_CLIENTS", "cursor, gemini,,")
	t.Setenv("AGENTSYNC_SYNC_MODE", "SYMLINK")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []model.Client{model.Cursor, model.Gemini}, cfg.ClientList())
	assert.Equal(t, SyncModeSymlink, cfg.Mode())
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	_, err := Find(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	util.WriteFile(t, filepath.Join(dir, "workspace.toml"), "")
	util.WriteFile(t, filepath.Join(dir, "workspace.yml"), "")
	got, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "workspace.yml"), got)
}

func TestDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("AGENTSYNC_HOME", home)
	assert.Equal(t, home, UserDir())
	assert.Equal(t, filepath.Join("/repo", ".agentsync"), ProjectDir("/repo"))
}

func TestSuggestClient(t *testing.T) {
	assert.Equal(t, "claude", SuggestClient("claud"))
	assert.Equal(t, "copilot", SuggestClient("copilto"))
	assert.Equal(t, "", SuggestClient("zz"))
}

func TestPluginEntry_MarshalYAML(t *testing.T) {
	out, err := yaml.Marshal([]PluginEntry{{Source: "./a"}, {Source: "./b", Dest: "bee"}})
	require.NoError(t, err)
	assert.Equal(t, "- ./a\n- source: ./b\n  dest: bee\n", string(out))
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("a.YML"))
	assert.Equal(t, FormatTOML, DetectFormat("a.toml"))
	assert.Equal(t, FormatJSON, DetectFormat("a.json"))
	assert.Equal(t, FormatUnknown, DetectFormat("a"))
}
