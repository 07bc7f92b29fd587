package protocol

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recall/internal/stimulus"
	"github.com/roach88/recall/internal/trial"
)

func TestBuiltinProtocols(t *testing.T) {
	set := Builtin()
	assert.Equal(t, []string{
		"FreeBaseline", "FreePause", "FreeSpeed", "FreeSuppression",
		"SerialChunking", "SerialLength", "SerialSuppression", "SerialTapping",
	}, set.Names())

	for _, p := range set {
		assert.Empty(t, Validate(p), "builtin %s should validate", p.Name)
	}

	speed := set["FreeSpeed"]
	assert.Equal(t, trial.ParadigmFree, speed.Paradigm)
	assert.Equal(t, "Speed", speed.Experiment)
	assert.Equal(t, ConditionSilent, speed.Condition)
	assert.Equal(t, 400*time.Millisecond, speed.FreeOptions().Timing.On)

	chunking := set["SerialChunking"]
	assert.True(t, chunking.Chunking)
	assert.Equal(t, stimulus.PostImmediate, chunking.PostPhase)
}

func TestFindByExperiment(t *testing.T) {
	set := Builtin()

	p, ok := set.Find("Speed", "")
	require.True(t, ok)
	assert.Equal(t, "FreeSpeed", p.Name)

	// Suppression exists for both paradigms.
	_, ok = set.Find("Suppression", "")
	assert.False(t, ok)
	p, ok = set.Find("Suppression", trial.ParadigmSerial)
	require.True(t, ok)
	assert.Equal(t, "SerialSuppression", p.Name)

	p, ok = set.Find("FreePause", "")
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, p.FreeOptions().Retention)
}

func TestLoadBytesAppliesDefaults(t *testing.T) {
	set, errs := LoadBytes("test.cue", []byte(`
protocol: Quick: {
	paradigm:   "serial_recall"
	experiment: "Length"
}
`))
	require.Empty(t, errs)
	p := set["Quick"]
	require.NotNil(t, p)
	assert.Equal(t, DefaultTrials, p.Trials)
	assert.Equal(t, stimulus.RateSlow, p.Rate)
	assert.Equal(t, stimulus.PostImmediate, p.PostPhase)
	assert.Equal(t, trial.Conditions{
		"condition":  "silent",
		"rate":       "slow",
		"post_phase": "immediate",
		"chunking":   "false",
	}, p.Conditions())
}

func TestLoadBytesUnknownField(t *testing.T) {
	_, errs := LoadBytes("test.cue", []byte(`
protocol: Bad: {
	paradigm:   "free_recall"
	experiment: "Baseline"
	colour:     "red"
}
`))
	require.Len(t, errs, 1)
	var le *LoadError
	require.True(t, errors.As(errs[0], &le))
	assert.Equal(t, ErrCodeGeneric, le.Code)
	assert.Equal(t, "colour", le.Field)
}

func TestLoadBytesValidationErrors(t *testing.T) {
	set, errs := LoadBytes("test.cue", []byte(`
protocol: {
	Good: {
		paradigm:   "free_recall"
		experiment: "Baseline"
	}
	Bad: {
		paradigm:   "free_recall"
		experiment: "Baseline"
		trials:     1000
		rate:       "fast"
	}
}
`))
	assert.Contains(t, set, "Good")
	assert.NotContains(t, set, "Bad")

	codes := map[string]bool{}
	for _, err := range errs {
		var le *LoadError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, "Bad", le.Protocol)
		codes[le.Code] = true
	}
	assert.True(t, codes[ErrCodeTrials])
	assert.True(t, codes[ErrCodeWrongParad])
}

func TestLoadBytesSyntaxError(t *testing.T) {
	_, errs := LoadBytes("broken.cue", []byte(`protocol: {`))
	require.Len(t, errs, 1)
	var le *LoadError
	require.True(t, errors.As(errs[0], &le))
	assert.Equal(t, ErrCodeBuildFailed, le.Code)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lab.cue"), []byte(`
protocol: Similar: {
	paradigm:   "free_recall"
	experiment: "Baseline"
	similarity: "similar"
	trials:     5
	phonological_pairs: [["B", "P"], ["D", "T"]]
}
`), 0o644))

	set, errs := LoadDir(dir)
	require.Empty(t, errs)
	p := set["Similar"]
	require.NotNil(t, p)
	assert.Equal(t, 5, p.Trials)

	table, err := p.SimilarityTable()
	require.NoError(t, err)
	assert.True(t, table.Similar("P", "B"))
	assert.False(t, table.Similar("M", "N"))
}

func TestLoadDirMixedPackages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "serial"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "free.cue"), []byte(`
protocol: LabFree: {
	paradigm:   "free_recall"
	experiment: "Baseline"
	trials:     3
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "serial", "serial.cue"), []byte(`package lab

protocol: LabSerial: {
	paradigm:   "serial_recall"
	experiment: "Length"
	trials:     2
}
`), 0o644))

	set, errs := LoadDir(dir)
	require.Empty(t, errs)
	require.Len(t, set, 2)
	assert.Equal(t, 3, set["LabFree"].Trials)
	assert.Equal(t, 2, set["LabSerial"].Trials)
}

func TestLoadDirSyntaxError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.cue"), []byte("protocol: {"), 0o644))

	_, errs := LoadDir(dir)
	require.Len(t, errs, 1)
	var le *LoadError
	require.True(t, errors.As(errs[0], &le))
	assert.Equal(t, ErrCodeBuildFailed, le.Code)
	assert.Contains(t, le.Pos.Filename(), "broken.cue")
}

func TestLoadDirConflictAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	for name, trials := range map[string]string{"a.cue": "3", "b.cue": "4"} {
		src := "protocol: Lab: {\n\tparadigm: \"free_recall\"\n\texperiment: \"Baseline\"\n\ttrials: " + trials + "\n}\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}

	set, errs := LoadDir(dir)
	require.NotEmpty(t, errs)
	assert.Nil(t, set["Lab"])
}

func TestLoadDirErrors(t *testing.T) {
	_, errs := LoadDir(filepath.Join(t.TempDir(), "missing"))
	require.Len(t, errs, 1)
	var le *LoadError
	require.True(t, errors.As(errs[0], &le))
	assert.Equal(t, ErrCodeNotFound, le.Code)

	_, errs = LoadDir(t.TempDir())
	require.Len(t, errs, 1)
	require.True(t, errors.As(errs[0], &le))
	assert.Equal(t, ErrCodeNoFiles, le.Code)
}

func TestDefaultSimilarityTable(t *testing.T) {
	p := &Protocol{Paradigm: trial.ParadigmFree}
	table, err := p.SimilarityTable()
	require.NoError(t, err)
	assert.True(t, table.Similar("M", "N"))
}
