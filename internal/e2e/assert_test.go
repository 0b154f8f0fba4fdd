package e2e

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/state"
	"github.com/klauern/agentsync/internal/sync"
)

func TestAssertHelpers(t *testing.T) {
	r := &Result{Stdout: "ok", Err: nil, ExitCode: 0}

	AssertSuccess(t, r)
	AssertExitCode(t, r, 0)
	AssertOutputContains(t, r, "ok")
}

func TestAssertAborted(t *testing.T) {
	r := &Result{Err: &sync.AbortError{Stage: sync.StageResolve, Err: errors.New("missing")}, ExitCode: 1}

	AssertAborted(t, r)
}

func TestAssertSyncResult(t *testing.T) {
	res := &sync.SyncResult{Success: true, PurgedPaths: []string{".claude/skills/old"}}

	AssertSynced(t, res)
	AssertPurged(t, res, ".claude/skills/old")
}

func TestAssertRecorded(t *testing.T) {
	root := t.TempDir()
	st := state.New()
	st.Files[model.Claude] = []string{".claude/skills/lint"}
	if err := state.NewStore(root).Save(st); err != nil {
		t.Fatalf("save state: %v", err)
	}

	AssertRecorded(t, root, model.Claude, ".claude/skills/lint")
}

func TestAssertFileEquals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("content"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	AssertFileEquals(t, path, "content")
}

func TestAssertLink(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "link")
	if err := os.Symlink("target", link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	AssertLink(t, link, "target")
	AssertFileNotExists(t, filepath.Join(dir, "missing"))
}
