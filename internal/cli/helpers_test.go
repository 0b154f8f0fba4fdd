package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klauern/agentsync/internal/logging"
	"github.com/klauern/agentsync/internal/util"
)

// captureOutput runs fn with os.Stdout redirected and returns what it wrote.
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	runErr := fn()

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close pipe writer: %v", err)
	}
	os.Stdout = old
	return <-done, runErr
}

// runCLI runs agentsync with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		logging.SetDefault(logging.New(logging.DefaultOptions()))
	})
	return captureOutput(t, func() error {
		return Run(context.Background(), append([]string{"agentsync"}, args...))
	})
}

const demoConfig = `plugins:
  - ./plugins/demo
clients:
  - claude
`

// newProject creates a project root holding a demo plugin with one skill and
// one command, and a workspace config. A fresh agentsync home is used.
func newProject(t *testing.T, cfg string) string {
	t.Helper()
	t.Setenv(util.HomeEnv, t.TempDir())

	root := t.TempDir()
	util.WriteSkill(t, filepath.Join(root, "plugins", "demo", "skills"), "hello", "hello skill")
	util.WriteFile(t, filepath.Join(root, "plugins", "demo", "commands", "greet.md"), "# greet\n")
	util.WriteFile(t, filepath.Join(root, util.StateDirName, "workspace.yaml"), cfg)
	return root
}
