package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/ui"
)

func TestClientsCommand(t *testing.T) {
	tests := map[string]struct {
		args       []string
		wantOutput []string
	}{
		"project scope": {
			args: []string{"clients"},
			wantOutput: []string{
				"Project Scope",
				"claude",
				".claude/skills",
				"CLAUDE.md (or AGENTS.md)",
				".github/skills",
			},
		},
		"every scope": {
			args:       []string{"clients", "--scope", "all"},
			wantOutput: []string{"Project Scope", "User Scope"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			output, err := runCLI(t, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.wantOutput {
				assert.Contains(t, output, want)
			}
		})
	}
}

func TestClientsCommand_JSON(t *testing.T) {
	output, err := runCLI(t, "clients", "--json")
	require.NoError(t, err)

	var got map[model.Scope]model.MappingTable
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	require.Contains(t, got, model.ScopeProject)
	assert.Equal(t, ".claude/skills", got[model.ScopeProject][model.Claude].SkillsPath)
}

func TestMappingRows(t *testing.T) {
	rows := mappingRows(model.ClientMapping{SkillsPath: ".cursor/skills", AgentFile: "AGENTS.md"})
	assert.Equal(t, []ui.Row{
		{Label: "skills", Value: ".cursor/skills"},
		{Label: "agent file", Value: "AGENTS.md"},
	}, rows)
}
