package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/recall/internal/config"
	"github.com/roach88/recall/internal/session"
	"github.com/roach88/recall/internal/testutil"
)

// testEnv is a data directory and session log under t.TempDir().
type testEnv struct {
	t       *testing.T
	dataDir string
	db      string
	cfg     config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.LoadFrom(map[string]string{
		"RECALL_DB":       filepath.Join(dir, "recall.db"),
		"RECALL_DATA_DIR": dir,
	})
	require.NoError(t, err)
	return &testEnv{t: t, dataDir: dir, db: cfg.DB, cfg: cfg}
}

// execResult is the captured output of one command.
type execResult struct {
	stdout string
	stderr string
	err    error
}

// exec runs the root command with args and stdin.
func (e *testEnv) exec(stdin string, args ...string) execResult {
	e.t.Helper()
	return e.execWith(&RunOptions{}, stdin, args...)
}

func (e *testEnv) execWith(run *RunOptions, stdin string, args ...string) execResult {
	e.t.Helper()
	cmd := newRootCommandWithRun(e.cfg, nil, run)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return execResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// runFake runs a block with a fake clock, no real sleeping and fixed IDs.
func (e *testEnv) runFake(stdin string, ids []string, args ...string) execResult {
	e.t.Helper()
	start := time.Date(2024, 4, 25, 10, 0, 0, 0, time.UTC)
	return e.execWith(&RunOptions{
		Sleep: testutil.NewSleeper().Sleep,
		IDs:   session.NewFixedGenerator(ids...),
		Now:   testutil.FixedTime(start),
	}, stdin, args...)
}

// decodeResponse parses a JSON envelope.
func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

// decodeData re-decodes the data field of an envelope into v.
func decodeData(t *testing.T, resp CLIResponse, v any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func copyDir(t *testing.T, src, dst string) {
	t.Helper()
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	require.NoError(t, err)
}
