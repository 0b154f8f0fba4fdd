package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Info is one snapshot file on disk.
type Info struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// List returns the snapshots in dir, newest first. A missing directory
// yields no snapshots.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backups: %w", err)
	}

	var out []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{Path: filepath.Join(dir, e.Name()), Size: info.Size(), ModTime: info.ModTime()})
	}
	// Names embed a sortable timestamp; fall back to it when mtimes tie.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].ModTime.After(out[j].ModTime)
		}
		return out[i].Path > out[j].Path
	})
	return out, nil
}

// Prune keeps the newest keep snapshots and deletes the rest, returning the
// deleted paths. keep <= 0 keeps everything.
func Prune(dir string, keep int, dryRun bool) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	all, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(all) <= keep {
		return nil, nil
	}

	var deleted []string
	for _, s := range all[keep:] {
		if !dryRun {
			if err := os.Remove(s.Path); err != nil {
				return deleted, fmt.Errorf("failed to delete snapshot %q: %w", s.Path, err)
			}
		}
		deleted = append(deleted, s.Path)
	}
	return deleted, nil
}
