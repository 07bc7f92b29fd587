package record

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recall/internal/session"
	"github.com/roach88/recall/internal/trial"
)

var _ session.Sink = (*CSVSink)(nil)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, trial.ParadigmSerial, "P01", time.UTC)
	require.NoError(t, err)
	require.NoError(t, w.Write(serialTrial()))
	require.NoError(t, w.Write(serialTrial()))

	tab, err := ReadTable(&buf)
	require.NoError(t, err)
	assert.Equal(t, SerialColumns, tab.Header)
	assert.Equal(t, 2, tab.Len())
	assert.Equal(t, "0011", tab.Value(0, ColPerPositionBinary))
}

func TestWriterHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, trial.ParadigmFree, "P01", nil)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteHeader())

	tab, err := ReadTable(&buf)
	require.NoError(t, err)
	assert.Equal(t, FreeColumns, tab.Header)
	assert.Equal(t, 0, tab.Len())
}

func TestWriterRejectsOtherParadigm(t *testing.T) {
	w, err := NewWriter(&bytes.Buffer{}, trial.ParadigmSerial, "P01", nil)
	require.NoError(t, err)
	assert.Error(t, w.Write(freeTrial()))

	_, err = NewWriter(&bytes.Buffer{}, "cued", "P01", nil)
	assert.Error(t, err)
}

func TestCSVSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	sink, err := NewCSVSink(dir, time.UTC)
	require.NoError(t, err)
	defer sink.Close()

	ctx := context.Background()
	sess := trial.Session{
		ID:          "s1",
		Participant: "P01",
		Paradigm:    trial.ParadigmFree,
		StartedAt:   time.Unix(1714060800, 0),
	}
	assert.Error(t, sink.WriteTrial(ctx, freeTrial()), "trial before session")

	require.NoError(t, sink.WriteSession(ctx, sess))
	assert.Equal(t, filepath.Join(dir, "free_recall_P01_1714060800.csv"), sink.Path())
	assert.Error(t, sink.WriteSession(ctx, sess), "second session on one sink")

	// Header is on disk before any trial.
	data, err := os.ReadFile(sink.Path())
	require.NoError(t, err)
	assert.Equal(t, "timestamp,participant,trial_index,condition,similarity,chunked,list_items,response,n_correct,proportion_correct,phonological_confusions\n", string(data))

	require.NoError(t, sink.WriteTrial(ctx, freeTrial()))
	require.NoError(t, sink.Close())

	tab, err := ReadFile(filepath.Join(dir, "free_recall_P01_1714060800.csv"))
	require.NoError(t, err)
	require.Equal(t, 1, tab.Len())
	assert.Equal(t, "0.333", tab.Value(0, ColProportionCorrect))
}

func TestCSVSinkRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	sess := trial.Session{Participant: "P01", Paradigm: trial.ParadigmFree, StartedAt: time.Unix(5, 0)}
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName(sess.Paradigm, "P01", sess.StartedAt)), nil, 0o644))

	sink, err := NewCSVSink(dir, nil)
	require.NoError(t, err)
	assert.Error(t, sink.WriteSession(context.Background(), sess))
}
