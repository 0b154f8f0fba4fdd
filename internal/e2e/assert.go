package e2e

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/state"
	"github.com/klauern/agentsync/internal/sync"
)

// AssertSuccess fails the test if the command did not succeed.
func AssertSuccess(t *testing.T, r *Result) {
	t.Helper()
	if !r.Success() {
		t.Fatalf("expected success, got error: %v\nstdout: %s", r.Err, r.Stdout)
	}
}

// AssertExitCode fails the test if the exit code doesn't match.
func AssertExitCode(t *testing.T, r *Result, expected int) {
	t.Helper()
	if r.ExitCode != expected {
		t.Errorf("expected exit code %d, got %d\nerror: %v\nstdout: %s", expected, r.ExitCode, r.Err, r.Stdout)
	}
}

// AssertAborted fails the test unless the command stopped before touching
// the sync root.
func AssertAborted(t *testing.T, r *Result) {
	t.Helper()
	if r.Success() {
		t.Fatalf("expected an aborted run, but command succeeded\nstdout: %s", r.Stdout)
	}
	if !sync.IsAborted(r.Err) {
		t.Errorf("expected an abort, got: %v", r.Err)
	}
	AssertExitCode(t, r, 1)
}

// AssertOutputContains fails the test if stdout doesn't contain the substring.
func AssertOutputContains(t *testing.T, r *Result, substr string) {
	t.Helper()
	if !strings.Contains(r.Stdout, substr) {
		t.Errorf("expected output to contain %q\ngot: %s", substr, r.Stdout)
	}
}

// AssertSynced fails the test unless the decoded sync result reports success
// with no failed units.
func AssertSynced(t *testing.T, res *sync.SyncResult) {
	t.Helper()
	if !res.Success || res.TotalFailed != 0 {
		t.Fatalf("expected a clean sync, got %s (error: %q)", res.Summary(), res.Error)
	}
}

// AssertUnchanged fails the test if a sync wrote, generated or purged
// anything.
func AssertUnchanged(t *testing.T, res *sync.SyncResult) {
	t.Helper()
	if res.TotalCopied != 0 || res.TotalGenerated != 0 || len(res.PurgedPaths) != 0 {
		t.Errorf("expected nothing to change, got %s (purged %v)", res.Summary(), res.PurgedPaths)
	}
}

// AssertPurged fails the test unless every path was reported as purged.
func AssertPurged(t *testing.T, res *sync.SyncResult, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if !slices.Contains(res.PurgedPaths, p) {
			t.Errorf("expected %s to be purged, got %v", p, res.PurgedPaths)
		}
	}
}

// AssertSkill fails the test unless dir/name holds a SKILL.md mentioning
// description.
func AssertSkill(t *testing.T, dir, name, description string) {
	t.Helper()
	AssertFileContains(t, filepath.Join(dir, name, "SKILL.md"), description)
}

// AssertRecorded fails the test unless the sync state under root lists rel
// for client.
func AssertRecorded(t *testing.T, root string, client model.Client, rel string) {
	t.Helper()
	st, err := state.NewStore(root).Load()
	if err != nil {
		t.Fatalf("failed to load sync state under %s: %v", root, err)
	}
	if !slices.Contains(st.Files[client], rel) {
		t.Errorf("expected sync state to record %s for %s, got %v", rel, client, st.Files[client])
	}
}

// AssertFileExists fails the test if the file doesn't exist.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("expected file to exist: %s", path)
	}
}

// AssertFileNotExists fails the test if anything, including a dangling
// symlink, exists at path.
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); err == nil {
		t.Errorf("expected file to NOT exist: %s", path)
	}
}

// AssertFileContains fails the test if the file doesn't contain the substring.
func AssertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	// #nosec G304 - path is provided by test code
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("expected file %s to contain %q\ngot: %s", path, substr, string(data))
	}
}

// AssertFileEquals fails the test if the file content doesn't match exactly.
func AssertFileEquals(t *testing.T, path, expected string) {
	t.Helper()
	// #nosec G304 - path is provided by test code
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	if string(data) != expected {
		t.Errorf("file content mismatch for %s\nexpected: %q\ngot: %q", path, expected, string(data))
	}
}

// AssertLink fails the test if path is not a symlink pointing at target.
func AssertLink(t *testing.T, path, target string) {
	t.Helper()
	got, err := os.Readlink(path)
	if err != nil {
		t.Fatalf("expected %s to be a symlink: %v", path, err)
	}
	if got != target {
		t.Errorf("symlink %s points at %q, want %q", path, got, target)
	}
}
