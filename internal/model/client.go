package model

import (
	"fmt"
	"sort"
	"strings"
)

// Client identifies a target tool whose directory layout is described by a ClientMapping.
type Client string

const (
	Claude   Client = "claude"
	Copilot  Client = "copilot"
	Codex    Client = "codex"
	Cursor   Client = "cursor"
	OpenCode Client = "opencode"
	Gemini   Client = "gemini"
	Factory  Client = "factory"
	Ampcode  Client = "ampcode"
	VSCode   Client = "vscode"
)

// ClientMapping describes where a client reads each content kind from,
// relative to the sync root. Empty paths mean the client has no such kind.
type ClientMapping struct {
	CommandsPath      string `json:"commandsPath,omitempty" yaml:"commandsPath,omitempty"`
	SkillsPath        string `json:"skillsPath" yaml:"skillsPath"`
	AgentsPath        string `json:"agentsPath,omitempty" yaml:"agentsPath,omitempty"`
	AgentFile         string `json:"agentFile" yaml:"agentFile"`
	AgentFileFallback string `json:"agentFileFallback,omitempty" yaml:"agentFileFallback,omitempty"`
	HooksPath         string `json:"hooksPath,omitempty" yaml:"hooksPath,omitempty"`
	GithubPath        string `json:"githubPath,omitempty" yaml:"githubPath,omitempty"`
}

// MappingTable is a read-only lookup from client to its layout.
type MappingTable map[Client]ClientMapping

var projectMappings = MappingTable{
	Claude: {
		CommandsPath:      ".claude/commands",
		SkillsPath:        ".claude/skills",
		AgentsPath:        ".claude/agents",
		AgentFile:         "CLAUDE.md",
		AgentFileFallback: "AGENTS.md",
		HooksPath:         ".claude/hooks",
	},
	Copilot: {
		SkillsPath: ".github/skills",
		AgentFile:  "AGENTS.md",
		GithubPath: ".github",
	},
	Codex: {
		SkillsPath: ".agents/skills",
		AgentFile:  "AGENTS.md",
	},
	Cursor: {
		SkillsPath: ".cursor/skills",
		AgentFile:  "AGENTS.md",
	},
	OpenCode: {
		CommandsPath: ".opencode/commands",
		SkillsPath:   ".opencode/skills",
		AgentsPath:   ".opencode/agents",
		AgentFile:    "AGENTS.md",
	},
	Gemini: {
		CommandsPath:      ".gemini/commands",
		SkillsPath:        ".gemini/skills",
		AgentFile:         "GEMINI.md",
		AgentFileFallback: "AGENTS.md",
	},
	Factory: {
		SkillsPath: ".factory/skills",
		AgentsPath: ".factory/droids",
		AgentFile:  "AGENTS.md",
	},
	Ampcode: {
		SkillsPath: ".agents/skills",
		AgentFile:  "AGENTS.md",
	},
	VSCode: {
		SkillsPath: ".github/skills",
		AgentFile:  "AGENTS.md",
		GithubPath: ".github",
	},
}

var userMappings = MappingTable{
	Claude: {
		CommandsPath: ".claude/commands",
		SkillsPath:   ".claude/skills",
		AgentsPath:   ".claude/agents",
		AgentFile:    ".claude/CLAUDE.md",
		HooksPath:    ".claude/hooks",
	},
	Copilot: {
		SkillsPath: ".copilot/skills",
		AgentFile:  ".copilot/AGENTS.md",
	},
	Codex: {
		SkillsPath: ".codex/skills",
		AgentFile:  ".codex/AGENTS.md",
	},
	Cursor: {
		SkillsPath: ".cursor/skills",
		AgentFile:  ".cursor/AGENTS.md",
	},
	OpenCode: {
		CommandsPath: ".config/opencode/commands",
		SkillsPath:   ".config/opencode/skills",
		AgentsPath:   ".config/opencode/agents",
		AgentFile:    ".config/opencode/AGENTS.md",
	},
	Gemini: {
		CommandsPath: ".gemini/commands",
		SkillsPath:   ".gemini/skills",
		AgentFile:    ".gemini/GEMINI.md",
	},
	Factory: {
		SkillsPath: ".factory/skills",
		AgentsPath: ".factory/droids",
		AgentFile:  ".factory/AGENTS.md",
	},
	Ampcode: {
		SkillsPath: ".config/amp/skills",
		AgentFile:  ".config/amp/AGENTS.md",
	},
	VSCode: {
		SkillsPath: ".copilot/skills",
		AgentFile:  ".copilot/AGENTS.md",
	},
}

// Mappings returns the client layout table for a scope.
func Mappings(scope Scope) MappingTable {
	if scope == ScopeUser {
		return userMappings
	}
	return projectMappings
}

// Lookup returns the mapping for a client, or false if the client is unknown.
func (t MappingTable) Lookup(c Client) (ClientMapping, bool) {
	m, ok := t[c]
	return m, ok
}

// IsValid returns true if the client has a known layout.
func (c Client) IsValid() bool {
	_, ok := projectMappings[c]
	return ok
}

// AllClients returns every known client, sorted by name.
func AllClients() []Client {
	clients := make([]Client, 0, len(projectMappings))
	for c := range projectMappings {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i] < clients[j] })
	return clients
}

// ClientNames returns every known client name, sorted.
func ClientNames() []string {
	all := AllClients()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = string(c)
	}
	return names
}

// ParseClient converts a string to a Client.
func ParseClient(s string) (Client, error) {
	c := Client(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case "claude-code", "claudecode":
		c = Claude
	case "github-copilot":
		c = Copilot
	case "amp":
		c = Ampcode
	}
	if !c.IsValid() {
		return "", fmt.Errorf("unknown client %q (valid: %s)", s, strings.Join(ClientNames(), ", "))
	}
	return c, nil
}

// ContentKind is one of the fixed kinds of content a plugin contributes.
type ContentKind string

const (
	KindCommands ContentKind = "commands"
	KindSkills   ContentKind = "skills"
	KindHooks    ContentKind = "hooks"
	KindAgents   ContentKind = "agents"
	KindGithub   ContentKind = "github"
	// KindAgentFile is the client's instruction file (CLAUDE.md, AGENTS.md, ...).
	KindAgentFile ContentKind = "agent-file"
	// KindWorkspace is a workspace-root file shared by every client.
	KindWorkspace ContentKind = "workspace"
)

// PluginKinds lists the per-plugin content kinds in materialization order.
func PluginKinds() []ContentKind {
	return []ContentKind{KindCommands, KindSkills, KindHooks, KindAgents, KindGithub}
}

// PathFor returns the mapping's output path for a content kind.
func (m ClientMapping) PathFor(kind ContentKind) string {
	switch kind {
	case KindCommands:
		return m.CommandsPath
	case KindSkills:
		return m.SkillsPath
	case KindHooks:
		return m.HooksPath
	case KindAgents:
		return m.AgentsPath
	case KindGithub:
		return m.GithubPath
	case KindAgentFile:
		return m.AgentFile
	default:
		return ""
	}
}

// Footprint returns every well-known path the client owns, for hard purge.
func (m ClientMapping) Footprint() []string {
	var paths []string
	for _, p := range []string{m.CommandsPath, m.SkillsPath, m.HooksPath, m.AgentsPath, m.AgentFile} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
