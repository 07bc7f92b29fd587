package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/recall/internal/trial"
)

// createTestStore opens a fresh store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testStart = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func createTestSession(id, participant string, p trial.Paradigm, started time.Time) trial.Session {
	return trial.Session{
		ID:          id,
		Participant: participant,
		Paradigm:    p,
		Experiment:  "Baseline",
		Protocol:    "FreeBaseline",
		Seed:        42,
		Trials:      20,
		StartedAt:   started,
	}
}

// createTestTrial builds a scored free-recall trial with its ID assigned.
func createTestTrial(t *testing.T, sessionID string, index int, seq int64, presented, response string) trial.Trial {
	t.Helper()
	tr := trial.Trial{
		SessionID: sessionID,
		Seq:       seq,
		Index:     index,
		Paradigm:  trial.ParadigmFree,
		Presented: trial.ParseSequence(presented),
		Response:  trial.ParseSequence(response),
		Conditions: trial.Conditions{
			trial.CondCondition:  "silent",
			trial.CondSimilarity: "mixed",
			trial.CondChunked:    "false",
		},
		Metrics: trial.Metrics{Free: &trial.FreeMetrics{
			NCorrect: 1, ProportionCorrect: 0.25, PhonologicalConfusions: 0,
		}},
		RecordedAt: testStart.Add(time.Duration(seq) * time.Second),
	}
	if err := tr.AssignID(); err != nil {
		t.Fatalf("AssignID() failed: %v", err)
	}
	return tr
}
