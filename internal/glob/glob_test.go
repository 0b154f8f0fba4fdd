package glob

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/klauern/agentsync/internal/util"
)

func TestSelector_NegationScenario(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{"README.md", "CLAUDE.md", "docs/guide.md", "docs/api.md"} {
		util.WriteFile(t, filepath.Join(root, f), "# "+f)
	}

	s, err := New([]string{"**/*.md", "!docs/**", "docs/guide.md"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := s.Select(root)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	want := []string{"CLAUDE.md", "README.md", "docs/guide.md"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Select() mismatch (-want +got):\n%s", diff)
	}
}

func TestSelector_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		want     bool
	}{
		{"basename at any depth", []string{"*.md"}, "a/b/notes.md", true},
		{"anchored basename", []string{"/*.md"}, "a/notes.md", false},
		{"anchored root file", []string{"/*.md"}, "notes.md", true},
		{"directory pattern covers children", []string{"docs"}, "docs/deep/x.txt", true},
		{"trailing slash directory", []string{"docs/"}, "docs/x.txt", true},
		{"negation without prior match", []string{"!*.md"}, "README.md", false},
		{"later negation wins", []string{"*.md", "!README.md"}, "README.md", false},
		{"re-include after negation", []string{"*.md", "!README.md", "README.md"}, "README.md", true},
		{"no patterns", nil, "README.md", false},
		{"comment ignored", []string{"# *.md", "*.txt"}, "a.md", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.patterns)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := s.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	if _, err := New([]string{"docs/[unclosed"}); err == nil {
		t.Error("expected error for malformed pattern")
	}
	if _, err := New([]string{"!/"}); err == nil {
		t.Error("expected error for empty pattern")
	}
}

func TestWalk_SkipsStateAndGitDirs(t *testing.T) {
	root := t.TempDir()
	util.WriteFile(t, filepath.Join(root, "keep.md"), "x")
	util.WriteFile(t, filepath.Join(root, ".git", "HEAD"), "ref")
	util.WriteFile(t, filepath.Join(root, ".agentsync", "sync-state.json"), "{}")

	got, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if diff := cmp.Diff([]string{"keep.md"}, got); diff != "" {
		t.Errorf("Walk() mismatch (-want +got):\n%s", diff)
	}
}
