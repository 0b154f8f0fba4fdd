package config

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/validation"
)

// Validate checks the configuration. Every problem is reported at once.
func (c *Config) Validate() error {
	result := &validation.Result{Valid: true}

	if len(c.Clients) == 0 {
		result.AddError(&validation.Error{Field: "clients", Message: "at least one client is required"})
	}
	for _, name := range c.Clients {
		if _, err := model.ParseClient(name); err != nil {
			msg := fmt.Sprintf("unknown client %q", name)
			if s := SuggestClient(name); s != "" {
				msg += fmt.Sprintf(" (did you mean %q?)", s)
			}
			result.AddError(&validation.Error{Field: "clients", Message: msg})
		}
	}

	for i, p := range c.Plugins {
		if strings.TrimSpace(p.Source) == "" {
			result.AddError(&validation.Error{Field: fmt.Sprintf("plugins[%d]", i), Message: "source is required"})
		}
	}

	for _, d := range c.DisabledSkills {
		plugin, skill, ok := strings.Cut(strings.TrimSpace(d), ":")
		if !ok || plugin == "" || skill == "" {
			result.AddError(&validation.Error{
				Field:   "disabledSkills",
				Message: fmt.Sprintf("%q must have the form plugin:skill", d),
			})
		}
	}

	if !c.SyncMode.IsValid() {
		result.AddError(&validation.Error{
			Field:   "syncMode",
			Message: fmt.Sprintf("%q is not one of copy, symlink", c.SyncMode),
		})
	}

	if c.Workspace != nil {
		for i, f := range c.Workspace.Files {
			if !f.IsPattern() && (f.Source == "" || f.Dest == "") {
				result.AddError(&validation.Error{
					Field:   fmt.Sprintf("workspace.files[%d]", i),
					Message: "explicit entries need both source and dest",
				})
			}
		}
	}

	return result.Error()
}

// SuggestClient returns the closest known client name, or "". Shorter
// prefixes of name are tried until something matches, down to two runes.
func SuggestClient(name string) string {
	query := []rune(strings.ToLower(strings.TrimSpace(name)))
	names := model.ClientNames()
	for n := len(query); n >= 2; n-- {
		if matches := fuzzy.Find(string(query[:n]), names); len(matches) > 0 {
			return matches[0].Str
		}
	}
	return ""
}
