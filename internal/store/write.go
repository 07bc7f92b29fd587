package store

import (
	"context"
	"fmt"

	"github.com/roach88/recall/internal/trial"
)

// WriteSession records a session header. Rewriting an existing session ID
// is ignored.
func (s *Store) WriteSession(ctx context.Context, sess trial.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, participant, paradigm, experiment, protocol, seed, trials, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.Participant,
		string(sess.Paradigm),
		sess.Experiment,
		sess.Protocol,
		sess.Seed,
		sess.Trials,
		formatTime(sess.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// WriteTrial records a scored trial. Uses ON CONFLICT(id) DO NOTHING: a
// trial with the same content-addressed ID is stored once. A different
// trial claiming an existing (session, index) slot is an error.
//
// The session must already exist (foreign key).
func (s *Store) WriteTrial(ctx context.Context, t trial.Trial) error {
	if t.ID == "" {
		return fmt.Errorf("write trial %d: missing id", t.Index)
	}
	conditions, err := marshalConditions(t.Conditions)
	if err != nil {
		return fmt.Errorf("write trial: %w", err)
	}
	metrics, err := marshalMetrics(t.Metrics)
	if err != nil {
		return fmt.Errorf("write trial: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trials
		(id, session_id, seq, trial_index, paradigm, presented, response, conditions, metrics, scorer_version, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		t.ID,
		t.SessionID,
		t.Seq,
		t.Index,
		string(t.Paradigm),
		t.Presented.String(),
		t.Response.String(),
		conditions,
		metrics,
		trial.ScorerVersion,
		formatTime(t.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("write trial: %w", err)
	}
	return nil
}
