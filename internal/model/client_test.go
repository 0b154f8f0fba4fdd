package model

import "testing"

func TestParseClient(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    Client
		wantErr bool
	}{
		"exact":       {input: "claude", want: Claude},
		"mixed case":  {input: "Copilot", want: Copilot},
		"alias":       {input: "claude-code", want: Claude},
		"amp alias":   {input: "amp", want: Ampcode},
		"unknown":     {input: "emacs", wantErr: true},
		"empty":       {input: "", wantErr: true},
		"padded name": {input: " cursor ", want: Cursor},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseClient(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClient(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseClient(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMappings_EveryClientHasSkillsPath(t *testing.T) {
	for _, scope := range AllScopes() {
		table := Mappings(scope)
		for _, c := range AllClients() {
			m, ok := table.Lookup(c)
			if !ok {
				t.Errorf("%s: client %q missing from mapping table", scope, c)
				continue
			}
			if m.SkillsPath == "" || m.AgentFile == "" {
				t.Errorf("%s: client %q needs skillsPath and agentFile", scope, c)
			}
		}
	}
}

func TestMappings_SharedSkillsPaths(t *testing.T) {
	project := Mappings(ScopeProject)
	if project[Copilot].SkillsPath != project[VSCode].SkillsPath {
		t.Error("copilot and vscode should share a skills directory")
	}
	if project[Codex].SkillsPath != project[Ampcode].SkillsPath {
		t.Error("codex and ampcode should share a skills directory")
	}
}

func TestClientMapping_PathForAndFootprint(t *testing.T) {
	m := Mappings(ScopeProject)[Claude]

	if got := m.PathFor(KindCommands); got != ".claude/commands" {
		t.Errorf("PathFor(commands) = %q", got)
	}
	if got := m.PathFor(KindGithub); got != "" {
		t.Errorf("PathFor(github) = %q, want empty", got)
	}

	fp := m.Footprint()
	if len(fp) != 5 {
		t.Fatalf("Footprint() = %v, want 5 entries", fp)
	}
	if fp[len(fp)-1] != "CLAUDE.md" {
		t.Errorf("Footprint() should end with the agent file, got %v", fp)
	}
}

func TestSkillEntry_Keys(t *testing.T) {
	e := SkillEntry{FolderName: "common", PluginName: "alpha", PluginSource: "./alpha"}
	if got := e.DisabledKey(); got != "alpha:common" {
		t.Errorf("DisabledKey() = %q", got)
	}
	other := e
	other.PluginSource = "./other/alpha"
	if e.Key() == other.Key() {
		t.Error("entries from different sources must have different keys")
	}
}

func TestCopyResult_Produced(t *testing.T) {
	tests := []struct {
		name string
		r    CopyResult
		want bool
	}{
		{"copied", CopyResult{Destination: "a", Action: ActionCopied}, true},
		{"generated", CopyResult{Destination: "a", Action: ActionGenerated}, true},
		{"unchanged", CopyResult{Destination: "a", Action: ActionSkipped}, true},
		{"disabled", CopyResult{Action: ActionSkipped}, false},
		{"failed", CopyResult{Destination: "a", Action: ActionFailed}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Produced(); got != tt.want {
				t.Errorf("Produced() = %v, want %v", got, tt.want)
			}
		})
	}
}
