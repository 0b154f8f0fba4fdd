package sync

import (
	"strings"
)

const (
	// RulesStart opens the workspace rules block in an agent file.
	RulesStart = "<!-- WORKSPACE-RULES:START -->"
	// RulesEnd closes the workspace rules block.
	RulesEnd = "<!-- WORKSPACE-RULES:END -->"
)

// rulesBlock renders rules between the markers.
func rulesBlock(rules string) string {
	return RulesStart + "\n" + strings.TrimSpace(rules) + "\n" + RulesEnd
}

// hasRulesBlock reports whether content contains a complete block.
func hasRulesBlock(content string) bool {
	_, _, ok := blockBounds(content)
	return ok
}

// upsertRules replaces the existing block in content, or appends one.
// Applying it twice yields the same content as applying it once.
func upsertRules(content, rules string) string {
	block := rulesBlock(rules)
	if start, end, ok := blockBounds(content); ok {
		return content[:start] + block + content[end:]
	}
	if strings.TrimSpace(content) == "" {
		return block + "\n"
	}
	return strings.TrimRight(content, "\n") + "\n\n" + block + "\n"
}

// stripRules removes the block and the blank line that separated it from the
// preceding content.
func stripRules(content string) string {
	start, end, ok := blockBounds(content)
	if !ok {
		return content
	}
	before := strings.TrimRight(content[:start], "\n")
	after := strings.TrimLeft(content[end:], "\n")
	switch {
	case before == "":
		return after
	case after == "":
		return before + "\n"
	default:
		return before + "\n\n" + after
	}
}

// blockBounds locates the first end marker and the start marker closest
// before it, so a stray unterminated start marker is left alone.
func blockBounds(content string) (int, int, bool) {
	end := strings.Index(content, RulesEnd)
	if end < 0 {
		return 0, 0, false
	}
	start := strings.LastIndex(content[:end], RulesStart)
	if start < 0 {
		return 0, 0, false
	}
	return start, end + len(RulesEnd), true
}
