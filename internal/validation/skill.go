package validation

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SkillManifestFile is the manifest every skill directory must contain.
const SkillManifestFile = "SKILL.md"

// SkillValidator checks that a skill directory carries a usable manifest.
type SkillValidator interface {
	ValidateSkill(dir string) error
}

// Manifest is the frontmatter of a SKILL.md file.
type Manifest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// ManifestValidator validates SKILL.md frontmatter: both name and
// description must be present and non-blank.
type ManifestValidator struct{}

// ValidateSkill implements SkillValidator.
func (ManifestValidator) ValidateSkill(dir string) error {
	_, err := ReadManifest(dir)
	return err
}

// ReadManifest parses and validates the manifest of the skill at dir.
func ReadManifest(dir string) (Manifest, error) {
	path := filepath.Join(dir, SkillManifestFile)
	// #nosec G304 - dir comes from a resolved plugin's skills directory
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, &Error{Field: filepath.Base(dir), Message: "missing " + SkillManifestFile, Err: err}
	}

	front, ok := splitFrontmatter(data)
	if !ok {
		return Manifest{}, &Error{Field: filepath.Base(dir), Message: "SKILL.md has no YAML frontmatter"}
	}

	var m Manifest
	if err := yaml.Unmarshal(front, &m); err != nil {
		return Manifest{}, &Error{Field: filepath.Base(dir), Message: "invalid SKILL.md frontmatter", Err: err}
	}

	var missing []string
	if strings.TrimSpace(m.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(m.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return m, &Error{
			Field:   filepath.Base(dir),
			Message: fmt.Sprintf("SKILL.md frontmatter missing %s", strings.Join(missing, " and ")),
		}
	}
	return m, nil
}

// splitFrontmatter returns the YAML between a leading "---" line and the next
// "---" line. CRLF line endings are normalized first.
func splitFrontmatter(content []byte) ([]byte, bool) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return nil, false
	}
	rest := content[len("---\n"):]
	if bytes.HasPrefix(rest, []byte("---")) {
		return []byte{}, true
	}
	idx := bytes.Index(rest, []byte("\n---"))
	if idx == -1 {
		return nil, false
	}
	return rest[:idx], true
}
