// Package backup writes tar.gz snapshots of client directories before they
// are reset, and prunes old snapshots.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauern/agentsync/internal/logging"
)

const (
	// ManifestVersion is the snapshot manifest format version.
	ManifestVersion = "1.0"
	// ManifestName is the manifest entry inside every snapshot.
	ManifestName = "manifest.json"
	// Ext is the snapshot file extension.
	Ext = ".tar.gz"
)

// Manifest describes a snapshot's contents.
type Manifest struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Root      string    `json:"root"`
	Scope     string    `json:"scope,omitempty"`
	// Paths are the root-relative paths that were requested and existed.
	Paths     []string `json:"paths"`
	FileCount int      `json:"file_count"`
}

// Options configures snapshot creation.
type Options struct {
	// Dir is where snapshot files are written.
	Dir   string
	Scope string
	Now   func() time.Time
}

// Create archives the given root-relative paths. Missing paths are ignored;
// when none exist no snapshot is written and the returned path is "".
func Create(root string, paths []string, opts Options) (string, *Manifest, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	var present []string
	for _, p := range paths {
		if _, err := os.Lstat(filepath.Join(root, filepath.FromSlash(p))); err == nil {
			present = append(present, p)
		}
	}
	if len(present) == 0 {
		return "", nil, nil
	}

	if err := os.MkdirAll(opts.Dir, 0o750); err != nil {
		return "", nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	created := now().UTC()
	name := created.Format("20060102T150405.000000000Z") + Ext
	if opts.Scope != "" {
		name = opts.Scope + "-" + name
	}
	archivePath := filepath.Join(opts.Dir, name)

	// #nosec G304 - archive path is inside the backups directory
	f, err := os.Create(archivePath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create snapshot: %w", err)
	}

	manifest := &Manifest{
		Version:   ManifestVersion,
		CreatedAt: created,
		Root:      root,
		Scope:     opts.Scope,
		Paths:     present,
	}
	if err := write(f, root, manifest); err != nil {
		_ = f.Close()
		_ = os.Remove(archivePath)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(archivePath)
		return "", nil, fmt.Errorf("failed to finish snapshot: %w", err)
	}

	logging.Info("created snapshot",
		logging.Path(archivePath),
		logging.Count(manifest.FileCount),
	)
	return archivePath, manifest, nil
}

func write(w io.Writer, root string, manifest *Manifest) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	for _, rel := range manifest.Paths {
		base := filepath.Join(root, filepath.FromSlash(rel))
		err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			n, err := addEntry(tw, root, p, d)
			manifest.FileCount += n
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to archive %s: %w", rel, err)
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	hdr := &tar.Header{
		Name:    ManifestName,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: manifest.CreatedAt,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to write manifest header: %w", err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	return gz.Close()
}

// addEntry writes one filesystem entry and returns 1 for regular files.
func addEntry(tw *tar.Writer, root, path string, d fs.DirEntry) (int, error) {
	info, err := d.Info()
	if err != nil {
		return 0, err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0, err
	}

	link := ""
	if info.Mode()&os.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return 0, err
		}
	}
	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return 0, err
	}
	hdr.Name = "files/" + filepath.ToSlash(rel)
	if info.IsDir() {
		hdr.Name += "/"
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, nil
	}

	// #nosec G304 - path is under the sync root
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	if _, err := io.Copy(tw, f); err != nil {
		return 0, err
	}
	return 1, nil
}

// ReadManifest returns the manifest stored in a snapshot.
func ReadManifest(path string) (*Manifest, error) {
	// #nosec G304 - path is a snapshot chosen by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("snapshot %s missing %s", path, ManifestName)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar header: %w", err)
		}
		if hdr.Name != ManifestName {
			continue
		}
		var m Manifest
		if err := json.NewDecoder(tr).Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
		return &m, nil
	}
}

// Entries lists the file entries in a snapshot, relative to the root.
func Entries(path string) ([]string, error) {
	// #nosec G304 - path is a snapshot chosen by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() { _ = gz.Close() }()

	var out []string
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar header: %w", err)
		}
		if name, ok := strings.CutPrefix(hdr.Name, "files/"); ok && hdr.Typeflag != tar.TypeDir {
			out = append(out, name)
		}
	}
}
