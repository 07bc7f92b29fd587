package combine

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recall/internal/record"
	"github.com/roach88/recall/internal/trial"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const freeHeader = "participant,trial_index,timestamp,condition,similarity,chunked,list_items,response,n_correct,proportion_correct,phonological_confusions\n"

func TestOutputFile(t *testing.T) {
	exp := Experiment{Type: FreeType, Name: "Baseline", Label: FreeLabel}
	assert.Equal(t,
		filepath.Join("root", "combined_data", "Free_recall_experiment_Baseline_combined.csv"),
		exp.OutputFile("root"))
	assert.Equal(t,
		filepath.Join("root", "experiments", "Free recall experiment", "Baseline"),
		exp.InputDir("root"))
}

func TestDefault(t *testing.T) {
	exps := Default()
	require.Len(t, exps, 8)
	assert.Equal(t, "Baseline", exps[0].Name)
	assert.Equal(t, SerialLabel, exps[7].Label)
	assert.Equal(t, "Tapping", exps[7].Name)
}

func TestForParadigm(t *testing.T) {
	exp, err := ForParadigm(trial.ParadigmSerial, "Length")
	require.NoError(t, err)
	assert.Equal(t, SerialType, exp.Type)
	assert.Equal(t, trial.ParadigmSerial, exp.Paradigm())

	exp, err = ForParadigm(trial.ParadigmFree, "Pause")
	require.NoError(t, err)
	assert.Equal(t, trial.ParadigmFree, exp.Paradigm())

	_, err = ForParadigm("cued", "x")
	assert.Error(t, err)
}

func TestRunCombinesAndTags(t *testing.T) {
	root := t.TempDir()
	exp := Experiment{Type: FreeType, Name: "Baseline", Label: FreeLabel}
	dir := exp.InputDir(root)
	writeFile(t, filepath.Join(dir, "a.csv"), freeHeader+
		"P01,1,2024-01-01 10:00:00,silent,mixed,0,BDG,BD,2,0.667,0\n")
	writeFile(t, filepath.Join(dir, "b.csv"), freeHeader+
		"P02,1,2024-01-01 11:00:00,silent,mixed,0,KLM,KLM,3,1.000,0\n"+
		"P02,2,2024-01-01 11:01:00,silent,mixed,0,KLM,,0,0.000,0\n")

	reports, err := Run(context.Background(), root, []Experiment{exp}, Options{Workers: 2, Logger: quiet()})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	rep := reports[0]
	assert.Len(t, rep.Files, 2)
	assert.Equal(t, 3, rep.Rows)
	assert.Empty(t, rep.Skipped)
	assert.Equal(t, exp.OutputFile(root), rep.Output)

	tab, err := record.ReadFile(rep.Output)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"list_items", "response", "n_correct", "proportion_correct", "phonological_confusions",
		ColExperimentType, ColExperimentName,
	}, tab.Header)
	assert.Equal(t, 3, tab.Len())
	assert.Equal(t, "BDG", tab.Value(0, "list_items"))
	assert.Equal(t, "KLM", tab.Value(1, "list_items"))
	assert.Equal(t, FreeLabel, tab.Value(2, ColExperimentType))
	assert.Equal(t, "Baseline", tab.Value(2, ColExperimentName))
}

func TestRunSkipsBadFiles(t *testing.T) {
	root := t.TempDir()
	exp := Experiment{Type: SerialType, Name: "Length", Label: SerialLabel}
	dir := exp.InputDir(root)
	writeFile(t, filepath.Join(dir, "good.csv"),
		"participant,list_items,response,list_length,proportion_correct_in_position\nP1,BDGK,BDGK,4,1.000\n")
	writeFile(t, filepath.Join(dir, "ragged.csv"), "a,b\n1\n")

	reports, err := Run(context.Background(), root, []Experiment{exp}, Options{Logger: quiet()})
	require.NoError(t, err)
	rep := reports[0]
	require.Len(t, rep.Skipped, 1)
	assert.Equal(t, filepath.Join(dir, "ragged.csv"), rep.Skipped[0].Path)
	assert.Equal(t, 1, rep.Rows)
}

func TestRunMissingExperiment(t *testing.T) {
	root := t.TempDir()
	exp := Experiment{Type: FreeType, Name: "Pause", Label: FreeLabel}

	reports, err := Run(context.Background(), root, []Experiment{exp}, Options{Logger: quiet()})
	require.NoError(t, err)
	rep := reports[0]
	assert.Empty(t, rep.Files)
	assert.Empty(t, rep.Output)
	_, err = os.Stat(exp.OutputFile(root))
	assert.True(t, os.IsNotExist(err))
}

func TestRunHeaderOnlyFilesWriteNothing(t *testing.T) {
	root := t.TempDir()
	exp := Experiment{Type: FreeType, Name: "Speed", Label: FreeLabel}
	writeFile(t, filepath.Join(exp.InputDir(root), "a.csv"), freeHeader)

	reports, err := Run(context.Background(), root, []Experiment{exp}, Options{Logger: quiet()})
	require.NoError(t, err)
	assert.Zero(t, reports[0].Rows)
	assert.Empty(t, reports[0].Output)
}

func TestRunCancelled(t *testing.T) {
	root := t.TempDir()
	exp := Experiment{Type: FreeType, Name: "Baseline", Label: FreeLabel}
	writeFile(t, filepath.Join(exp.InputDir(root), "a.csv"), freeHeader)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, root, []Experiment{exp}, Options{Logger: quiet()})
	assert.ErrorIs(t, err, context.Canceled)
}
