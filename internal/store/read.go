package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/recall/internal/trial"
)

// SessionSummary is a session plus the number of trials recorded for it.
type SessionSummary struct {
	trial.Session
	Recorded int `json:"recorded"`
}

// Filter narrows ListSessions. Zero fields match everything.
type Filter struct {
	Participant string
	Paradigm    trial.Paradigm
	Experiment  string
}

// ReadSession returns one session. Returns sql.ErrNoRows if not found.
func (s *Store) ReadSession(ctx context.Context, id string) (trial.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, participant, paradigm, experiment, protocol, seed, trials, started_at
		FROM sessions
		WHERE id = ?
	`, id)
	return scanSession(row)
}

// ListSessions returns sessions matching f, ordered by start time and then
// ID, each with its recorded trial count.
func (s *Store) ListSessions(ctx context.Context, f Filter) ([]SessionSummary, error) {
	var where []string
	var args []any
	if f.Participant != "" {
		where = append(where, "s.participant = ?")
		args = append(args, f.Participant)
	}
	if f.Paradigm != "" {
		where = append(where, "s.paradigm = ?")
		args = append(args, string(f.Paradigm))
	}
	if f.Experiment != "" {
		where = append(where, "s.experiment = ?")
		args = append(args, f.Experiment)
	}
	query := `
		SELECT s.id, s.participant, s.paradigm, s.experiment, s.protocol, s.seed, s.trials, s.started_at,
		       (SELECT COUNT(*) FROM trials t WHERE t.session_id = s.id)
		FROM sessions s`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY s.started_at ASC, s.id COLLATE BINARY ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []SessionSummary{}
	for rows.Next() {
		var sum SessionSummary
		var paradigm, started string
		if err := rows.Scan(
			&sum.ID, &sum.Participant, &paradigm, &sum.Experiment, &sum.Protocol,
			&sum.Seed, &sum.Trials, &started, &sum.Recorded,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sum.Paradigm = trial.Paradigm(paradigm)
		if sum.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// ReadTrials returns the trials of a session ordered by seq ASC, id ASC.
// Returns an empty slice if there are none.
func (s *Store) ReadTrials(ctx context.Context, sessionID string) ([]trial.Trial, error) {
	return s.queryTrials(ctx, `
		SELECT id, session_id, seq, trial_index, paradigm, presented, response, conditions, metrics, recorded_at
		FROM trials
		WHERE session_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID)
}

// ReadAllTrials returns every stored trial ordered by seq ASC, id ASC.
func (s *Store) ReadAllTrials(ctx context.Context) ([]trial.Trial, error) {
	return s.queryTrials(ctx, `
		SELECT id, session_id, seq, trial_index, paradigm, presented, response, conditions, metrics, recorded_at
		FROM trials
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// LastSeq returns the highest seq recorded, or 0 for an empty log. A new
// block resumes its clock from here so seq stays unique across runs.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM trials`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) queryTrials(ctx context.Context, query string, args ...any) ([]trial.Trial, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trials: %w", err)
	}
	defer rows.Close()

	out := []trial.Trial{}
	for rows.Next() {
		t, err := scanTrial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trials: %w", err)
	}
	return out, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (trial.Session, error) {
	var sess trial.Session
	var paradigm, started string
	if err := row.Scan(
		&sess.ID, &sess.Participant, &paradigm, &sess.Experiment, &sess.Protocol,
		&sess.Seed, &sess.Trials, &started,
	); err != nil {
		return trial.Session{}, err
	}
	sess.Paradigm = trial.Paradigm(paradigm)
	var err error
	if sess.StartedAt, err = parseTime(started); err != nil {
		return trial.Session{}, err
	}
	return sess, nil
}

func scanTrial(row scanner) (trial.Trial, error) {
	var t trial.Trial
	var paradigm, presented, response, conditions, metrics, recorded string
	if err := row.Scan(
		&t.ID, &t.SessionID, &t.Seq, &t.Index, &paradigm,
		&presented, &response, &conditions, &metrics, &recorded,
	); err != nil {
		return trial.Trial{}, fmt.Errorf("scan trial: %w", err)
	}
	t.Paradigm = trial.Paradigm(paradigm)
	t.Presented = trial.ParseSequence(presented)
	t.Response = trial.ParseSequence(response)

	var err error
	if t.Conditions, err = unmarshalConditions(conditions); err != nil {
		return trial.Trial{}, err
	}
	if t.Metrics, err = unmarshalMetrics(metrics); err != nil {
		return trial.Trial{}, err
	}
	if t.RecordedAt, err = parseTime(recorded); err != nil {
		return trial.Trial{}, err
	}
	return t, nil
}
