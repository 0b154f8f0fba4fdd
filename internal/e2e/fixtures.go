package e2e

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/agentsync/internal/util"
)

// Fixture provides helpers for creating test fixtures in E2E tests.
type Fixture struct {
	t       *testing.T
	baseDir string
}

// NewFixture creates a new fixture helper rooted at the given directory.
func NewFixture(t *testing.T, baseDir string) *Fixture {
	t.Helper()
	return &Fixture{
		t:       t,
		baseDir: baseDir,
	}
}

// WriteFile writes content to a file relative to the fixture base directory.
// It creates parent directories as needed.
func (f *Fixture) WriteFile(relPath, content string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, filepath.FromSlash(relPath))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		f.t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
		f.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}

	return fullPath
}

// WriteSkill writes skills/<folder>/SKILL.md with name and description
// frontmatter.
func (f *Fixture) WriteSkill(folder, description string) string {
	f.t.Helper()

	content := "---\n"
	content += "name: " + folder + "\n"
	if description != "" {
		content += "description: " + description + "\n"
	}
	content += "---\n\n# " + folder + "\n"

	return f.WriteFile(filepath.Join("skills", folder, "SKILL.md"), content)
}

// Path returns the full path for a relative path.
func (f *Fixture) Path(relPath string) string {
	return filepath.Join(f.baseDir, filepath.FromSlash(relPath))
}

// Exists returns true if the file or directory exists.
func (f *Fixture) Exists(relPath string) bool {
	f.t.Helper()
	_, err := os.Lstat(f.Path(relPath))
	return err == nil
}

// ReadFile reads and returns the content of a file.
func (f *Fixture) ReadFile(relPath string) string {
	f.t.Helper()
	fullPath := f.Path(relPath)

	// #nosec G304 - fullPath is constructed from trusted test fixture base and test-provided path
	data, err := os.ReadFile(fullPath)
	if err != nil {
		f.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}

	return string(data)
}

// Project returns a fixture rooted at the project root.
func (h *Harness) Project() *Fixture {
	h.t.Helper()
	return NewFixture(h.t, h.root)
}

// Plugin returns a fixture for a plugin directory named name. The directory
// name doubles as the plugin name.
func (h *Harness) Plugin(name string) *Fixture {
	h.t.Helper()

	dir := filepath.Join(h.pluginsDir, name)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		h.t.Fatalf("failed to create plugin directory: %v", err)
	}
	return NewFixture(h.t, dir)
}

// PluginPath returns the absolute path of a plugin created with Plugin.
func (h *Harness) PluginPath(name string) string {
	return filepath.Join(h.pluginsDir, name)
}

// WriteConfig writes the project's workspace.yaml.
func (h *Harness) WriteConfig(content string) string {
	h.t.Helper()
	return h.Project().WriteFile(filepath.Join(util.StateDirName, "workspace.yaml"), content)
}
