package sync

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauern/agentsync/internal/logging"
	"github.com/klauern/agentsync/internal/util"
)

// purger deletes artifacts under a sync root. Failures are returned as
// warnings and never stop the remaining deletions.
type purger struct {
	root   string
	dryRun bool
	// whole deletes agent files outright instead of stripping the rules block.
	whole bool
}

// remove deletes each root-relative path. A file holding a rules block has
// only the block stripped, and is deleted when nothing else remains. It
// returns the paths that were (or on a dry run would be) affected.
func (p *purger) remove(paths []string) ([]string, []string) {
	var purged, warnings []string
	var parents []string

	for _, rel := range paths {
		if err := p.check(rel); err != nil {
			warnings = append(warnings, fmt.Sprintf("refusing to purge %s: %v", rel, err))
			continue
		}
		abs := filepath.Join(p.root, filepath.FromSlash(rel))
		info, err := os.Lstat(abs)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to purge %s: %v", rel, err))
			continue
		}

		if p.dryRun {
			purged = append(purged, rel)
			continue
		}

		if info.Mode().IsRegular() && !p.whole {
			stripped, err := stripRulesFile(abs)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("failed to purge %s: %v", rel, err))
				continue
			}
			if stripped {
				logging.Debug("removed rules block", logging.Path(rel))
				purged = append(purged, rel)
				continue
			}
		}

		if err := removeExisting(abs); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to purge %s: %v", rel, err))
			continue
		}
		logging.Debug("purged", logging.Path(rel))
		purged = append(purged, rel)
		parents = append(parents, filepath.Dir(abs))
	}

	p.pruneParents(parents)
	return purged, warnings
}

// check refuses paths that leave the root or point into the state directory.
func (p *purger) check(rel string) error {
	if !util.WithinRoot(rel) {
		return errOutsideRoot
	}
	clean := path.Clean(rel)
	if clean == util.StateDirName || strings.HasPrefix(clean, util.StateDirName+"/") {
		return errors.New("path is inside the state directory")
	}
	return nil
}

// stripRulesFile removes the rules block from a file. It reports false when
// the file has no block. The file is deleted if only whitespace remains.
func stripRulesFile(abs string) (bool, error) {
	// #nosec G304 - abs is inside the sync root
	data, err := os.ReadFile(abs)
	if err != nil {
		return false, err
	}
	content := string(data)
	if !hasRulesBlock(content) {
		return false, nil
	}
	rest := stripRules(content)
	if strings.TrimSpace(rest) == "" {
		return true, os.Remove(abs)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return false, err
	}
	return true, os.WriteFile(abs, []byte(rest), info.Mode().Perm())
}

// pruneParents removes directories left empty, walking up to but never
// including the root. Deepest directories go first.
func (p *purger) pruneParents(dirs []string) {
	root := filepath.Clean(p.root)
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		for d := filepath.Clean(dir); d != root && strings.HasPrefix(d, root+string(filepath.Separator)); d = filepath.Dir(d) {
			entries, err := os.ReadDir(d)
			if err != nil || len(entries) > 0 {
				break
			}
			if err := os.Remove(d); err != nil {
				break
			}
			logging.Debug("pruned empty directory", logging.Path(d))
		}
	}
}
