//nolint:revive // var-naming - package name is meaningful
package util

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to a file, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

// ReadFile returns a file's content, failing the test if it cannot be read.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	// #nosec G304 - test helper reads paths built by the test
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// WriteSkill creates dir/<folder>/SKILL.md with valid frontmatter.
func WriteSkill(t *testing.T, dir, folder, description string) string {
	t.Helper()
	skillDir := filepath.Join(dir, folder)
	WriteFile(t, filepath.Join(skillDir, "SKILL.md"),
		"---\nname: "+folder+"\ndescription: "+description+"\n---\n\n# "+folder+"\n")
	return skillDir
}

// AssertExists fails if path does not exist.
func AssertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

// AssertNotExists fails if path exists.
func AssertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); err == nil {
		t.Errorf("expected %s to be absent", path)
	}
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertEqual fails if got != want
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
