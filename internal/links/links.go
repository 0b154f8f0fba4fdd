// Package links rewrites relative markdown references that point into a
// plugin's skills/ tree so they keep resolving after the skills are
// materialized under a client's skills path and possibly renamed.
package links

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// [text](target "optional title")
	inlineLink = regexp.MustCompile(`\]\(([^)\s]+)(\s+"[^"]*")?\)`)
	// [id]: target
	refLink = regexp.MustCompile(`(?m)^(\s{0,3}\[[^\]]+\]:[ \t]*)(\S+)`)
	scheme  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

// Adjuster rewrites links for documents copied out of one plugin.
type Adjuster struct {
	// SkillsPath is the workspace-relative directory skills were written to.
	SkillsPath string
	// Names maps a skill folder name to its resolved name.
	Names map[string]string
}

// New returns an Adjuster for a client skills path and a folder name lookup.
func New(skillsPath string, names map[string]string) *Adjuster {
	return &Adjuster{SkillsPath: skillsPath, Names: names}
}

// Rewrite adjusts links in content. srcRel is the document's path relative to
// the plugin root and destRel its path relative to the workspace root, both
// slash-separated. It reports whether anything changed.
func (a *Adjuster) Rewrite(content, srcRel, destRel string) (string, bool) {
	if a == nil || a.SkillsPath == "" {
		return content, false
	}
	changed := false

	out := inlineLink.ReplaceAllStringFunc(content, func(m string) string {
		sub := inlineLink.FindStringSubmatch(m)
		target, ok := a.adjust(sub[1], srcRel, destRel)
		if !ok {
			return m
		}
		changed = true
		return "](" + target + sub[2] + ")"
	})

	out = refLink.ReplaceAllStringFunc(out, func(m string) string {
		sub := refLink.FindStringSubmatch(m)
		target, ok := a.adjust(sub[2], srcRel, destRel)
		if !ok {
			return m
		}
		changed = true
		return sub[1] + target
	})

	return out, changed
}

// adjust returns the rewritten target and true if target pointed into skills/.
func (a *Adjuster) adjust(target, srcRel, destRel string) (string, bool) {
	if target == "" || strings.HasPrefix(target, "#") || strings.HasPrefix(target, "/") || scheme.MatchString(target) {
		return "", false
	}

	ref, suffix := target, ""
	if i := strings.IndexAny(target, "#?"); i >= 0 {
		ref, suffix = target[:i], target[i:]
	}
	if ref == "" {
		return "", false
	}

	resolved := path.Clean(path.Join(path.Dir(srcRel), ref))
	rest, ok := strings.CutPrefix(resolved, "skills/")
	if !ok {
		return "", false
	}
	folder, tail, _ := strings.Cut(rest, "/")
	if folder == "" {
		return "", false
	}
	if name, ok := a.Names[folder]; ok {
		folder = name
	}

	dest := path.Join(a.SkillsPath, folder, tail)
	rel, err := filepath.Rel(filepath.FromSlash(path.Dir(destRel)), filepath.FromSlash(dest))
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasSuffix(ref, "/") && !strings.HasSuffix(rel, "/") {
		rel += "/"
	}
	return rel + suffix, true
}

// IsDocument reports whether a file is a markdown document eligible for
// rewriting.
func IsDocument(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown", ".mdx":
		return true
	}
	return false
}
