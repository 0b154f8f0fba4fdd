// Package e2e provides testing infrastructure for end-to-end CLI tests.
// It includes a harness for running agentsync commands against an isolated
// home directory and project root, plus fixture helpers for plugins.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/agentsync/internal/cli"
	"github.com/klauern/agentsync/internal/logging"
	"github.com/klauern/agentsync/internal/sync"
	"github.com/klauern/agentsync/internal/util"
)

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness provides a test harness for running E2E CLI tests.
// It manages environment isolation, temp directories, and output capture.
type Harness struct {
	t          *testing.T
	homeDir    string
	root       string
	pluginsDir string
}

// NewHarness creates a new E2E test harness with its own HOME, agentsync
// home, project root and plugin directory.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	h := &Harness{
		t:          t,
		homeDir:    t.TempDir(),
		root:       t.TempDir(),
		pluginsDir: t.TempDir(),
	}
	t.Setenv("HOME", h.homeDir)
	t.Setenv(util.HomeEnv, filepath.Join(h.homeDir, util.StateDirName))
	t.Setenv("AGENTSYNC_PLUGIN_CACHE", filepath.Join(h.homeDir, util.StateDirName, "plugins"))
	t.Setenv("AGENTSYNC_CLIENTS", "")
	t.Setenv("AGENTSYNC_SYNC_MODE", "")
	t.Cleanup(func() {
		logging.SetDefault(logging.New(logging.DefaultOptions()))
	})
	return h
}

// HomeDir returns the isolated home directory for this test harness.
func (h *Harness) HomeDir() string {
	return h.homeDir
}

// Root returns the project root commands run against.
func (h *Harness) Root() string {
	return h.root
}

// Run executes a CLI command with the given arguments and captures the output.
// Project-root commands get --root appended so every run targets Root.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()

	if len(args) > 0 && takesRoot(args[0]) {
		args = append(args, "--root", h.root)
	}
	args = append([]string{"agentsync"}, args...)

	// Capture stdout
	oldStdout := os.Stdout
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = stdoutW

	// Read concurrently so large outputs cannot fill the pipe buffer.
	var stdoutBuf bytes.Buffer
	var copyErr error
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		_, copyErr = io.Copy(&stdoutBuf, stdoutR)
	}()

	cmdErr := cli.Run(context.Background(), args)

	if err := stdoutW.Close(); err != nil {
		h.t.Fatalf("failed to close stdout pipe writer: %v", err)
	}
	os.Stdout = oldStdout

	<-copyDone
	if copyErr != nil {
		h.t.Fatalf("failed to read captured stdout: %v", copyErr)
	}

	exitCode := 0
	if cmdErr != nil {
		exitCode = 1
	}

	return &Result{
		Stdout:   stdoutBuf.String(),
		Err:      cmdErr,
		ExitCode: exitCode,
	}
}

// Sync runs "sync --json" with extra args and decodes the result. The
// command error is returned alongside so failing runs can be inspected.
func (h *Harness) Sync(args ...string) (*sync.SyncResult, *Result) {
	h.t.Helper()

	r := h.Run(append([]string{"sync", "--json"}, args...)...)
	var res sync.SyncResult
	if err := json.Unmarshal([]byte(r.Stdout), &res); err != nil {
		h.t.Fatalf("failed to decode sync output: %v\nstdout: %s\nerror: %v", err, r.Stdout, r.Err)
	}
	return &res, r
}

func takesRoot(command string) bool {
	switch command {
	case "sync", "purge", "status":
		return true
	default:
		return false
	}
}
