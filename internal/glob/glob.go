// Package glob selects workspace files with ordered, gitignore-style patterns.
//
// Patterns are applied in declaration order. A plain pattern adds every
// matching file; a pattern prefixed with "!" removes every matching file
// selected so far. A later plain pattern can therefore re-include a path an
// earlier negation removed:
//
//	**/*.md        select all markdown
//	!docs/**       drop everything under docs/
//	docs/guide.md  bring one file back
//
// A pattern without a slash matches the base name at any depth. A leading
// slash anchors the pattern to the root. A pattern that matches a directory
// matches everything below it.
package glob

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/klauern/agentsync/internal/util"
)

// skipDirs are never descended into while walking a source tree.
var skipDirs = map[string]bool{
	".git":             true,
	util.StateDirName: true,
}

// Rule is one compiled pattern.
type Rule struct {
	Pattern string
	Negate  bool
	// anchored patterns are matched against the full relative path only.
	anchored bool
}

// Selector applies an ordered rule list.
type Selector struct {
	rules []Rule
}

// New compiles patterns into a Selector. Empty patterns and comments are ignored.
func New(patterns []string) (*Selector, error) {
	s := &Selector{}
	for _, raw := range patterns {
		p := strings.TrimSpace(raw)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		r := Rule{}
		if strings.HasPrefix(p, "!") {
			r.Negate = true
			p = p[1:]
		}
		if strings.HasPrefix(p, "/") {
			p = strings.TrimLeft(p, "/")
			r.anchored = true
		}
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			return nil, fmt.Errorf("pattern %q selects nothing", raw)
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", raw)
		}
		if strings.Contains(p, "/") {
			r.anchored = true
		}
		r.Pattern = p
		s.rules = append(s.rules, r)
	}
	return s, nil
}

// Rules returns the compiled rules in order.
func (s *Selector) Rules() []Rule {
	return s.rules
}

// Match reports whether a single slash-separated relative path is selected.
func (s *Selector) Match(rel string) bool {
	selected := false
	for _, r := range s.rules {
		if r.matches(rel) {
			selected = !r.Negate
		}
	}
	return selected
}

// Filter returns the selected subset of paths, preserving input order.
func (s *Selector) Filter(paths []string) []string {
	var out []string
	for _, p := range paths {
		if s.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Select walks root and returns the selected regular files as slash-separated
// paths relative to root, in lexical walk order.
func (s *Selector) Select(root string) ([]string, error) {
	files, err := Walk(root)
	if err != nil {
		return nil, err
	}
	return s.Filter(files), nil
}

// Walk lists every regular file under root as a slash-separated relative path,
// skipping version-control and agentsync state directories.
func Walk(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %q: %w", root, err)
	}
	return files, nil
}

func (r Rule) matches(rel string) bool {
	// The path itself or any ancestor directory may match.
	for p := rel; p != "." && p != ""; p = path.Dir(p) {
		if r.matchOne(p) {
			return true
		}
	}
	return false
}

func (r Rule) matchOne(p string) bool {
	if r.anchored {
		ok, _ := doublestar.Match(r.Pattern, p)
		return ok
	}
	ok, _ := doublestar.Match(r.Pattern, path.Base(p))
	return ok
}
