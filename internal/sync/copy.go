package sync

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauern/agentsync/internal/logging"
)

// removeExisting removes a file, symlink, or directory at path. Symlinks are
// removed as entries, never followed. A missing path is not an error.
func removeExisting(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", path, err)
	}

	if info.IsDir() {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove directory %q: %w", path, err)
		}
		logging.Debug("removed existing directory", logging.Path(path))
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %q: %w", path, err)
	}
	logging.Debug("removed existing entry", logging.Path(path))
	return nil
}

// writeFile replaces dst with data, creating parent directories. An existing
// directory or symlink at dst is removed first.
func writeFile(dst string, data []byte, perm fs.FileMode) error {
	if info, err := os.Lstat(dst); err == nil && !info.Mode().IsRegular() {
		if err := removeExisting(dst); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", dst, err)
	}
	// #nosec G306 - preserving source permissions
	if err := os.WriteFile(dst, data, perm); err != nil {
		return fmt.Errorf("failed to write %q: %w", dst, err)
	}
	return nil
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source %q: %w", src, err)
	}

	// #nosec G304 - src is inside a resolved plugin
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source %q: %w", src, err)
	}
	defer func() { _ = srcFile.Close() }()

	// #nosec G302 G304 - preserving source permissions, dst is inside the sync root
	dstFile, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination %q: %w", dst, err)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy content to %q: %w", dst, err)
	}
	return nil
}

// copyDir recursively copies src to dst, which must not exist. Symlinks
// inside src are recreated, not followed.
func copyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source %q: %w", src, err)
	}
	if !srcInfo.IsDir() {
		return fmt.Errorf("source %q is not a directory", src)
	}

	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()|0o700); err != nil {
		return fmt.Errorf("failed to create destination directory %q: %w", dst, err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("failed to read source directory %q: %w", src, err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		switch {
		case entry.IsDir():
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		case entry.Type()&os.ModeSymlink != 0:
			target, err := os.Readlink(srcPath)
			if err != nil {
				return fmt.Errorf("failed to read symlink %q: %w", srcPath, err)
			}
			if err := os.Symlink(target, dstPath); err != nil {
				return fmt.Errorf("failed to create symlink %q: %w", dstPath, err)
			}
		default:
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// replaceDir copies src over dst, removing whatever dst held.
func replaceDir(src, dst string) error {
	if err := removeExisting(dst); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", dst, err)
	}
	if err := copyDir(src, dst); err != nil {
		return err
	}
	logging.Debug("copied directory", logging.Path(dst))
	return nil
}

// replaceSymlink points dst at target.
func replaceSymlink(target, dst string) error {
	if err := removeExisting(dst); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", dst, err)
	}
	if err := os.Symlink(target, dst); err != nil {
		return fmt.Errorf("failed to create symlink %q: %w", dst, err)
	}
	return nil
}

// sameFile reports whether dst is a regular file holding exactly want.
func sameFile(dst string, want []byte) bool {
	info, err := os.Lstat(dst)
	if err != nil || !info.Mode().IsRegular() || info.Size() != int64(len(want)) {
		return false
	}
	// #nosec G304 - dst is inside the sync root
	got, err := os.ReadFile(dst)
	return err == nil && bytes.Equal(got, want)
}

// sameLink reports whether dst is a symlink to target.
func sameLink(dst, target string) bool {
	info, err := os.Lstat(dst)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return false
	}
	got, err := os.Readlink(dst)
	return err == nil && got == target
}

// treesEqual reports whether dst is a real directory with exactly the
// entries of src and identical file contents.
func treesEqual(src, dst string) bool {
	info, err := os.Lstat(dst)
	if err != nil || !info.IsDir() {
		return false
	}
	want, err := snapshotTree(src)
	if err != nil {
		return false
	}
	got, err := snapshotTree(dst)
	if err != nil || len(got) != len(want) {
		return false
	}
	for rel, w := range want {
		g, ok := got[rel]
		if !ok || g.kind != w.kind || g.link != w.link {
			return false
		}
		if w.kind == entryFile && !bytes.Equal(g.data, w.data) {
			return false
		}
	}
	return true
}

type entryKind int

const (
	entryFile entryKind = iota
	entryDir
	entryLink
)

type treeEntry struct {
	kind entryKind
	data []byte
	link string
}

func snapshotTree(root string) (map[string]treeEntry, error) {
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	out := make(map[string]treeEntry)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			out[rel] = treeEntry{kind: entryDir}
		case d.Type()&os.ModeSymlink != 0:
			target, err := os.Readlink(p)
			if err != nil {
				return err
			}
			out[rel] = treeEntry{kind: entryLink, link: target}
		default:
			// #nosec G304 - walking a plugin or sync root directory
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			out[rel] = treeEntry{kind: entryFile, data: data}
		}
		return nil
	})
	return out, err
}
