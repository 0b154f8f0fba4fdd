package sync

import (
	"strings"
	"testing"
)

func TestUpsertRules(t *testing.T) {
	block := RulesStart + "\nrules\n" + RulesEnd

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "empty file",
			content: "",
			want:    block + "\n",
		},
		{
			name:    "append to existing content",
			content: "# Notes\n",
			want:    "# Notes\n\n" + block + "\n",
		},
		{
			name:    "replace existing block",
			content: "# Notes\n\n" + RulesStart + "\nold\n" + RulesEnd + "\n\n## More\n",
			want:    "# Notes\n\n" + block + "\n\n## More\n",
		},
		{
			name:    "unterminated block is appended after",
			content: "# Notes\n" + RulesStart + "\n",
			want:    "# Notes\n" + RulesStart + "\n\n" + block + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := upsertRules(tt.content, "  rules\n")
			if got != tt.want {
				t.Errorf("upsertRules() =\n%q\nwant\n%q", got, tt.want)
			}
			if again := upsertRules(got, "rules"); again != got {
				t.Errorf("upsertRules is not idempotent:\n%q", again)
			}
		})
	}
}

func TestStripRules(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"block only", upsertRules("", "r"), ""},
		{"trailing block", upsertRules("# Notes\n", "r"), "# Notes\n"},
		{"block in the middle", "# A\n\n" + rulesBlock("r") + "\n\n# B\n", "# A\n\n# B\n"},
		{"no block", "# A\n", "# A\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripRules(tt.content); got != tt.want {
				t.Errorf("stripRules() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasRulesBlock(t *testing.T) {
	if !hasRulesBlock("x\n" + rulesBlock("r")) {
		t.Error("expected block to be found")
	}
	if hasRulesBlock(RulesEnd + "\n" + RulesStart) {
		t.Error("markers in the wrong order are not a block")
	}
	if strings.Count(upsertRules(upsertRules("", "a"), "b"), RulesStart) != 1 {
		t.Error("block duplicated")
	}
}
