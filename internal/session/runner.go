package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/recall/internal/protocol"
	"github.com/roach88/recall/internal/scoring"
	"github.com/roach88/recall/internal/stimulus"
	"github.com/roach88/recall/internal/trial"
)

// Presenter shows a trial's schedule. The final recall event is included so
// the presenter can display its prompt; Present returns once the prompt is
// up.
type Presenter interface {
	Present(ctx context.Context, cue Cue) error
}

// Responder collects the participant's raw answer for the current trial.
type Responder interface {
	Respond(ctx context.Context, cue Cue) (string, error)
}

// Sink receives the session header once and then every finished trial.
type Sink interface {
	WriteSession(ctx context.Context, s trial.Session) error
	WriteTrial(ctx context.Context, t trial.Trial) error
}

// Cue is what a presenter needs to run one trial.
type Cue struct {
	Index     int
	Of        int
	Condition string
	Events    []stimulus.Event
}

// Result is the outcome of a completed or interrupted block.
type Result struct {
	Session trial.Session
	Trials  []trial.Trial
}

// Runner runs one block of a protocol. Not safe for concurrent use.
type Runner struct {
	protocol    *protocol.Protocol
	participant string
	presenter   Presenter
	responder   Responder
	sinks       []Sink

	engine *scoring.Engine
	gen    *stimulus.Generator
	clock  Sequencer
	ids    IDGenerator
	now    func() time.Time
	logger *slog.Logger
	seed   int64
}

// Option configures a Runner.
type Option func(*Runner)

// WithSinks adds sinks that receive every trial.
func WithSinks(sinks ...Sink) Option {
	return func(r *Runner) { r.sinks = append(r.sinks, sinks...) }
}

// WithSeed overrides the protocol seed. Zero picks a time-based seed.
func WithSeed(seed int64) Option {
	return func(r *Runner) { r.seed = seed }
}

// WithClock sets the sequence number source.
func WithClock(c Sequencer) Option {
	return func(r *Runner) { r.clock = c }
}

// WithIDGenerator sets the session ID source.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Runner) { r.ids = g }
}

// WithNow sets the wall clock used for timestamps.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a Runner for p. The protocol must already be validated.
func New(p *protocol.Protocol, participant string, presenter Presenter, responder Responder, opts ...Option) (*Runner, error) {
	if p == nil {
		return nil, fmt.Errorf("new runner: protocol is nil")
	}
	if participant == "" {
		return nil, fmt.Errorf("new runner: participant is required")
	}
	table, err := p.SimilarityTable()
	if err != nil {
		return nil, fmt.Errorf("new runner: %w", err)
	}

	r := &Runner{
		protocol:    p,
		participant: participant,
		presenter:   presenter,
		responder:   responder,
		engine:      scoring.New(table),
		clock:       NewClock(),
		ids:         UUIDv7Generator{},
		now:         time.Now,
		logger:      slog.Default(),
		seed:        p.Seed,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.gen = stimulus.NewGenerator(r.seed)
	return r, nil
}

// Run executes the block. It stops between trials when ctx is cancelled
// and returns the trials completed so far together with ctx.Err().
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	p := r.protocol
	sess := trial.Session{
		ID:          r.ids.Generate(),
		Participant: r.participant,
		Paradigm:    p.Paradigm,
		Experiment:  p.Experiment,
		Protocol:    p.Name,
		Seed:        r.gen.Seed(),
		Trials:      p.Trials,
		StartedAt:   r.now().UTC(),
	}
	res := &Result{Session: sess}

	log := r.logger.With("session", sess.ID, "protocol", p.Name, "participant", r.participant)
	log.Info("block starting", "trials", p.Trials, "seed", sess.Seed)

	for _, s := range r.sinks {
		if err := s.WriteSession(ctx, sess); err != nil {
			return res, runError(ErrCodeSinkFailed, 0, "write session", err)
		}
	}

	for i := 1; i <= p.Trials; i++ {
		if err := ctx.Err(); err != nil {
			log.Info("block interrupted", "completed", len(res.Trials))
			return res, err
		}
		t, err := r.runTrial(ctx, sess, i)
		if err != nil {
			log.Error("trial failed", "trial", i, "error", err)
			return res, err
		}
		res.Trials = append(res.Trials, t)
		log.Debug("trial recorded", "trial", i, "seq", t.Seq, "id", t.ID)
	}

	log.Info("block complete", "trials", len(res.Trials))
	return res, nil
}

func (r *Runner) runTrial(ctx context.Context, sess trial.Session, index int) (trial.Trial, error) {
	p := r.protocol
	seq := r.clock.Next()

	list, events, err := r.prepare()
	if err != nil {
		return trial.Trial{}, runError(ErrCodeGenerateFailed, index, "generate list", err)
	}

	cue := Cue{Index: index, Of: p.Trials, Condition: p.Condition, Events: events}
	if err := r.presenter.Present(ctx, cue); err != nil {
		return trial.Trial{}, runError(ErrCodePresentFailed, index, "present list", err)
	}

	raw, err := r.responder.Respond(ctx, cue)
	if err != nil {
		return trial.Trial{}, runError(ErrCodeResponseFailed, index, "read response", err)
	}

	response := scoring.Normalize(p.Paradigm, raw)
	if p.Paradigm == trial.ParadigmSerial {
		typed := len(response)
		var dropped bool
		if response, dropped = scoring.FitSerial(list, response); dropped {
			r.logger.Warn("serial response longer than list, extra letters dropped",
				"trial", index, "presented", len(list), "response", typed)
		}
	}

	t := trial.Trial{
		SessionID:  sess.ID,
		Seq:        seq,
		Index:      index,
		Paradigm:   p.Paradigm,
		Presented:  list,
		Response:   response,
		Conditions: p.Conditions(),
		RecordedAt: r.now().UTC(),
	}
	if t.Metrics, err = r.engine.Score(t); err != nil {
		return trial.Trial{}, runError(ErrCodeScoreFailed, index, "score trial", err)
	}
	if err := t.AssignID(); err != nil {
		return trial.Trial{}, runError(ErrCodeScoreFailed, index, "assign trial id", err)
	}

	for _, s := range r.sinks {
		if err := s.WriteTrial(ctx, t); err != nil {
			return trial.Trial{}, runError(ErrCodeSinkFailed, index, "write trial", err)
		}
	}
	return t, nil
}

// prepare generates the list and its presentation schedule.
func (r *Runner) prepare() (trial.Sequence, []stimulus.Event, error) {
	p := r.protocol
	switch p.Paradigm {
	case trial.ParadigmFree:
		list, err := r.gen.FreeList(p.Similarity)
		if err != nil {
			return nil, nil, err
		}
		return list, stimulus.FreeSchedule(list, p.FreeOptions()), nil
	case trial.ParadigmSerial:
		list, err := r.gen.SerialList(r.gen.SerialLength(p.Chunking))
		if err != nil {
			return nil, nil, err
		}
		events, err := stimulus.SerialSchedule(list, p.Rate, p.Chunking, p.PostPhase)
		if err != nil {
			return nil, nil, err
		}
		return list, events, nil
	default:
		return nil, nil, fmt.Errorf("unknown paradigm %q", p.Paradigm)
	}
}
