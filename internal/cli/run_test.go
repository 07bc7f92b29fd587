package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recall/internal/combine"
	"github.com/roach88/recall/internal/record"
	"github.com/roach88/recall/internal/session"
	"github.com/roach88/recall/internal/store"
	"github.com/roach88/recall/internal/testutil"
	"github.com/roach88/recall/internal/trial"
)

var blockStart = time.Date(2024, 4, 25, 10, 0, 0, 0, time.UTC)

// runFreeBlock records a two-trial FreeBaseline block for P01 and returns
// the CSV it wrote.
func runFreeBlock(t *testing.T, env *testEnv) string {
	t.Helper()
	res := env.runFake("bdg\nkl\n", []string{"s1"},
		"run", "FreeBaseline", "--participant", "P01", "--trials", "2", "--seed", "7")
	require.NoError(t, res.err, res.stdout)

	exp, err := combine.ForParadigm(trial.ParadigmFree, "Baseline")
	require.NoError(t, err)
	path := filepath.Join(exp.InputDir(env.dataDir), record.FileName(trial.ParadigmFree, "P01", blockStart))
	require.FileExists(t, path)
	return path
}

func TestRunWritesCSVAndLog(t *testing.T) {
	env := newTestEnv(t)
	path := runFreeBlock(t, env)

	tab, err := record.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, record.FreeColumns, tab.Header)
	require.Equal(t, 2, tab.Len())
	assert.Equal(t, "BDG", tab.Value(0, record.ColResponse))
	assert.Equal(t, "KL", tab.Value(1, record.ColResponse))
	assert.Equal(t, "P01", tab.Value(0, record.ColParticipant))

	st, err := store.Open(env.db)
	require.NoError(t, err)
	defer st.Close()
	sess, err := st.ReadSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "FreeBaseline", sess.Protocol)
	assert.Equal(t, int64(7), sess.Seed)
	assert.Equal(t, 2, sess.Trials)
	trials, err := st.ReadTrials(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, trials, 2)
	assert.Equal(t, tab.Value(0, record.ColListItems), trials[0].Presented.String())
}

func TestRunTextOutput(t *testing.T) {
	env := newTestEnv(t)
	res := env.runFake("bdg\nkl\n", []string{"s1"},
		"run", "FreeBaseline", "--participant", "P01", "--trials", "2", "--no-db")
	require.NoError(t, res.err)

	assert.True(t, strings.HasPrefix(res.stdout, "Letters appear one at a time."))
	assert.Contains(t, res.stdout, "Trial 1/2 - Focus on the cross.\n+\n")
	assert.Contains(t, res.stdout, "Trial 2/2")
	assert.Contains(t, res.stdout, "Block complete: 2 trials.\n")
	assert.Contains(t, res.stdout, "Mean score: ")
	assert.Contains(t, res.stdout, "Saved: ")
	assert.NotContains(t, res.stdout, "\r")
	assert.NoFileExists(t, env.db)
}

func TestRunJSONKeepsStdoutClean(t *testing.T) {
	env := newTestEnv(t)
	res := env.runFake("bdg\nkl\n", []string{"s1"},
		"--format", "json", "run", "Baseline", "--paradigm", "free", "--participant", "P02", "--trials", "2")
	require.NoError(t, res.err)

	var summary RunSummary
	decodeData(t, decodeResponse(t, res.stdout), &summary)
	assert.Equal(t, "s1", summary.Session.ID)
	assert.Equal(t, "FreeBaseline", summary.Session.Protocol)
	assert.Equal(t, 2, summary.Completed)
	assert.False(t, summary.Interrupted)
	assert.Equal(t, env.db, summary.Database)
	assert.FileExists(t, summary.CSV)
	assert.Contains(t, res.stderr, "Trial 1/2")
}

func TestRunCustomProtocol(t *testing.T) {
	env := newTestEnv(t)
	res := env.runFake("bdgk\n", []string{"s1"},
		"--format", "json", "run", "LabSerial", "--protocols", "testdata/protocols/valid", "--participant", "P03", "--no-db")
	require.NoError(t, res.err)

	var summary RunSummary
	decodeData(t, decodeResponse(t, res.stdout), &summary)
	assert.Equal(t, trial.ParadigmSerial, summary.Session.Paradigm)
	assert.Equal(t, 1, summary.Completed)
	assert.Contains(t, summary.CSV, filepath.Join(combine.ExperimentsDir, combine.SerialType, "Length"))
}

func TestRunInterrupted(t *testing.T) {
	env := newTestEnv(t)
	cmd := newRootCommandWithRun(env.cfg, nil, &RunOptions{
		Sleep: testutil.NewSleeper().Sleep,
		IDs:   session.NewFixedGenerator("s1"),
		Now:   testutil.FixedTime(blockStart),
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"run", "FreeBaseline", "--participant", "P01", "--no-db"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Contains(t, out.String(), "Block interrupted after 0 of 20 trials.")
}

func TestRunEndOfInputFails(t *testing.T) {
	env := newTestEnv(t)
	res := env.runFake("bdg\n", []string{"s1"},
		"run", "FreeBaseline", "--participant", "P01", "--trials", "2")
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stdout, "Error ["+ErrCodeRunFailed+"]")

	// The completed trial is kept.
	st, err := store.Open(env.db)
	require.NoError(t, err)
	defer st.Close()
	trials, err := st.ReadTrials(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, trials, 1)
}

func TestRunResumesSequence(t *testing.T) {
	env := newTestEnv(t)
	runFreeBlock(t, env)
	res := env.runFake("m\nn\n", []string{"s2"},
		"run", "FreeBaseline", "--participant", "P02", "--trials", "2")
	require.NoError(t, res.err)

	st, err := store.Open(env.db)
	require.NoError(t, err)
	defer st.Close()
	all, err := st.ReadAllTrials(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, tr := range all {
		assert.Equal(t, int64(i+1), tr.Seq)
	}
	assert.Equal(t, "s2", all[3].SessionID)
}

func TestRunErrors(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		name string
		args []string
		code string
	}{
		{"no participant", []string{"run", "FreeBaseline"}, ErrCodeInvalidArgs},
		{"unknown protocol", []string{"run", "Nope", "--participant", "P01"}, ErrCodeInvalidArgs},
		{"ambiguous experiment", []string{"run", "Suppression", "--participant", "P01"}, ErrCodeInvalidArgs},
		{"bad paradigm", []string{"run", "Baseline", "--paradigm", "cued", "--participant", "P01"}, ErrCodeInvalidArgs},
		{"bad trials", []string{"run", "FreeBaseline", "--participant", "P01", "--trials", "1000"}, "E103"},
		{"bad protocols dir", []string{"run", "FreeBaseline", "--participant", "P01", "--protocols", "testdata/protocols/invalid"}, "E103"},
		{"bad driver", []string{"run", "FreeBaseline", "--participant", "P01", "--db-driver", "postgres"}, ErrCodeStore},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := env.runFake("", []string{"x"}, tc.args...)
			assert.Equal(t, ExitCommandError, GetExitCode(res.err))
			assert.Contains(t, res.stdout, "Error ["+tc.code+"]")
		})
	}
}

func TestMeanScore(t *testing.T) {
	assert.Equal(t, 0.0, meanScore(nil))
	trials := []trial.Trial{
		{Metrics: trial.Metrics{Free: &trial.FreeMetrics{ProportionCorrect: 0.5}}},
		{Metrics: trial.Metrics{Serial: &trial.SerialMetrics{ProportionCorrectInPosition: 1}}},
	}
	assert.InDelta(t, 0.75, meanScore(trials), 1e-9)
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f))
}
