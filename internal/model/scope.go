package model

import (
	"fmt"
	"strings"
)

// Scope selects which root and client mapping table a sync run targets.
type Scope string

const (
	// ScopeProject syncs into a project workspace root.
	ScopeProject Scope = "project"

	// ScopeUser syncs into the user's home directory.
	ScopeUser Scope = "user"
)

// IsValid returns true if the scope is recognized.
func (s Scope) IsValid() bool {
	return s == ScopeProject || s == ScopeUser
}

// AllScopes returns the supported scopes in sync order.
func AllScopes() []Scope {
	return []Scope{ScopeProject, ScopeUser}
}

// String returns the string representation of the scope.
func (s Scope) String() string {
	return string(s)
}

// Description returns a human-readable description of the scope.
func (s Scope) Description() string {
	switch s {
	case ScopeProject:
		return "Plugins synced into the current workspace"
	case ScopeUser:
		return "Plugins synced into the user's home directory"
	default:
		return "Unknown scope"
	}
}

// ParseScope converts a string to a Scope.
func ParseScope(s string) (Scope, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))

	scope := Scope(normalized)
	if scope.IsValid() {
		return scope, nil
	}

	switch normalized {
	case "repo", "repository", "workspace", "local":
		return ScopeProject, nil
	case "global", "home":
		return ScopeUser, nil
	default:
		return "", fmt.Errorf("unknown scope %q (valid: project, user)", s)
	}
}
