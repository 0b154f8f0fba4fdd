// Package skills gathers the skill directories every resolved plugin
// contributes, before any naming decision is made.
package skills

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauern/agentsync/internal/logging"
	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/validation"
)

// Dir is the directory inside a plugin that holds skills.
const Dir = "skills"

// Collection is what one plugin contributes.
type Collection struct {
	Plugin model.ResolvedPlugin
	// Entries are valid, enabled skills in directory order.
	Entries []model.SkillEntry
	// Results record skills that were disabled (skipped) or invalid (failed).
	Results []model.CopyResult
}

// Collector enumerates and validates skills.
type Collector struct {
	validator validation.SkillValidator
	disabled  map[string]bool
}

// NewCollector returns a collector. disabled holds "plugin:folder" keys.
func NewCollector(v validation.SkillValidator, disabled []string) *Collector {
	if v == nil {
		v = validation.ManifestValidator{}
	}
	set := make(map[string]bool, len(disabled))
	for _, d := range disabled {
		set[strings.TrimSpace(d)] = true
	}
	return &Collector{validator: v, disabled: set}
}

// Collect returns one Collection per plugin in input order.
func (c *Collector) Collect(plugins []model.ResolvedPlugin) ([]Collection, error) {
	out := make([]Collection, 0, len(plugins))
	for _, p := range plugins {
		col, err := c.collect(p)
		if err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, nil
}

func (c *Collector) collect(p model.ResolvedPlugin) (Collection, error) {
	col := Collection{Plugin: p}
	root := filepath.Join(p.Path, Dir)

	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		logging.Debug("plugin has no skills directory", logging.Plugin(p.Name), logging.Path(root))
		return col, nil
	}
	if err != nil {
		return col, fmt.Errorf("failed to read skills of %s: %w", p.Name, err)
	}

	for _, e := range entries {
		dir := filepath.Join(root, e.Name())
		if !isDir(e, dir) {
			continue
		}
		entry := model.SkillEntry{
			FolderName:   e.Name(),
			PluginName:   p.Name,
			PluginSource: p.Spec,
			SourcePath:   dir,
		}

		if c.disabled[entry.DisabledKey()] {
			logging.Debug("skill disabled", logging.Plugin(p.Name), logging.Skill(entry.FolderName))
			col.Results = append(col.Results, model.CopyResult{
				Source: dir,
				Action: model.ActionSkipped,
				Kind:   model.KindSkills,
			})
			continue
		}

		if err := c.validator.ValidateSkill(dir); err != nil {
			logging.Warn("invalid skill", logging.Plugin(p.Name), logging.Skill(entry.FolderName), logging.Err(err))
			r := model.Failed(dir, "", err)
			r.Kind = model.KindSkills
			col.Results = append(col.Results, r)
			continue
		}
		col.Entries = append(col.Entries, entry)
	}

	logging.Debug("collected skills", logging.Plugin(p.Name), logging.Count(len(col.Entries)))
	return col, nil
}

// isDir follows symlinks so linked skill directories count.
func isDir(e os.DirEntry, path string) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Entries flattens collections into one list in plugin order, ready for
// name resolution.
func Entries(cols []Collection) []model.SkillEntry {
	var out []model.SkillEntry
	for _, col := range cols {
		out = append(out, col.Entries...)
	}
	return out
}
