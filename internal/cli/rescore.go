package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/recall/internal/protocol"
	"github.com/roach88/recall/internal/record"
	"github.com/roach88/recall/internal/scoring"
	"github.com/roach88/recall/internal/store"
	"github.com/roach88/recall/internal/trial"
)

// RescoreOptions holds flags for the rescore command.
type RescoreOptions struct {
	*RootOptions
	Database    string
	Driver      string
	Protocols   string
	Participant string
	Session     string
	Paradigm    string
	Pairs       []string
}

// Mismatch is one trial whose stored metrics differ from a fresh score.
type Mismatch struct {
	Source string   `json:"source"`
	Trial  int      `json:"trial_index"`
	ID     string   `json:"id,omitempty"`
	Diffs  []string `json:"diffs"`
}

// RescoreResult is the outcome of the rescore command.
type RescoreResult struct {
	Checked    int        `json:"checked"`
	Mismatches []Mismatch `json:"mismatches"`
}

// NewRescoreCommand creates the rescore command.
func NewRescoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RescoreOptions{RootOptions: rootOpts}
	cfg := rootOpts.Config

	cmd := &cobra.Command{
		Use:   "rescore [file.csv...]",
		Short: "Re-score recorded trials and report drift",
		Long: `Score recorded trials again with the current engine and compare.

With no arguments every trial in the session log is checked, using the
similarity pairs of the protocol that recorded it. With CSV files as
arguments the rows of each file are checked instead; the paradigm is
detected from the header unless --paradigm is given.

Proportions are compared at the three-decimal precision of the CSV files.

Exit codes:
  0 - All trials match
  1 - One or more trials differ
  2 - Command error

Examples:
  recall rescore
  recall rescore --participant P01
  recall rescore experiments/Serial\ recall\ experiment/Length/*.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRescore(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", cfg.DB, "path to the SQLite session log")
	cmd.Flags().StringVar(&opts.Driver, "db-driver", cfg.DBDriver, "SQLite driver (sqlite3|sqlite)")
	cmd.Flags().StringVar(&opts.Protocols, "protocols", cfg.Protocols, "directory of extra CUE protocols")
	cmd.Flags().StringVar(&opts.Participant, "participant", "", "only sessions of this participant")
	cmd.Flags().StringVar(&opts.Session, "session", "", "only this session ID")
	cmd.Flags().StringVar(&opts.Paradigm, "paradigm", "", "paradigm of the CSV files (free|serial)")
	cmd.Flags().StringSliceVar(&opts.Pairs, "pairs", nil, "similarity pairs for CSV files (default table when empty)")

	return cmd
}

func runRescore(opts *RescoreOptions, files []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	var (
		result *RescoreResult
		err    error
	)
	if len(files) > 0 {
		result, err = rescoreFiles(opts, files)
	} else {
		result, err = rescoreStore(cmd.Context(), opts, f)
	}
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return err
		}
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "rescore", err)
	}

	n := len(result.Mismatches)
	if f.JSON() {
		if n > 0 {
			_ = f.Failure(ErrCodeMismatch, fmt.Sprintf("%d trial(s) differ", n), result)
			return NewExitError(ExitFailure, fmt.Sprintf("%d trial(s) differ", n))
		}
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	printMismatches(w, result.Mismatches)
	if n > 0 {
		fmt.Fprintf(w, "\u2717 %d of %d trials differ\n", n, result.Checked)
		return NewExitError(ExitFailure, fmt.Sprintf("%d trial(s) differ", n))
	}
	fmt.Fprintf(w, "\u2713 All %d trials match\n", result.Checked)
	return nil
}

func rescoreStore(ctx context.Context, opts *RescoreOptions, f *OutputFormatter) (*RescoreResult, error) {
	log := opts.logger()

	set, err := loadProtocols(opts.Protocols)
	if err != nil {
		return nil, f.Fail(ExitCommandError, loadErrorCode(err), "load protocols", err)
	}
	st, err := openLog(opts.Driver, opts.Database)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "open session log", err)
	}
	defer st.Close()

	var sessions []trial.Session
	if opts.Session != "" {
		sess, err := st.ReadSession(ctx, opts.Session)
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("read session %s", opts.Session), err)
		}
		sessions = append(sessions, sess)
	} else {
		list, err := st.ListSessions(ctx, store.Filter{Participant: opts.Participant})
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeStore, "list sessions", err)
		}
		for _, s := range list {
			sessions = append(sessions, s.Session)
		}
	}

	engines := map[string]*scoring.Engine{}
	result := &RescoreResult{Mismatches: []Mismatch{}}
	for _, sess := range sessions {
		eng, ok := engines[sess.Protocol]
		if !ok {
			eng = engineFor(set, sess, log)
			engines[sess.Protocol] = eng
		}
		trials, err := st.ReadTrials(ctx, sess.ID)
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("read trials of %s", sess.ID), err)
		}
		for _, t := range trials {
			result.Checked++
			if m, bad := rescoreTrial(eng, sess.ID, t); bad {
				result.Mismatches = append(result.Mismatches, m)
			}
		}
	}
	return result, nil
}

// engineFor builds the engine a session was scored with. A protocol that
// is no longer known falls back to the default similarity table.
func engineFor(set protocol.Set, sess trial.Session, log *slog.Logger) *scoring.Engine {
	if p, ok := set[sess.Protocol]; ok {
		if table, err := p.SimilarityTable(); err == nil {
			return scoring.New(table)
		}
	}
	log.Warn("protocol not found, using default similarity table", "protocol", sess.Protocol, "session", sess.ID)
	return scoring.New(scoring.DefaultTable())
}

func rescoreFiles(opts *RescoreOptions, files []string) (*RescoreResult, error) {
	override, err := parseParadigmFlag(opts.Paradigm)
	if err != nil {
		return nil, fmt.Errorf("invalid --paradigm: %w", err)
	}
	table, err := pairTable(opts.Pairs)
	if err != nil {
		return nil, fmt.Errorf("invalid --pairs: %w", err)
	}
	eng := scoring.New(table)

	result := &RescoreResult{Mismatches: []Mismatch{}}
	for _, path := range files {
		tab, err := record.ReadFile(path)
		if err != nil {
			return nil, err
		}
		p := override
		if p == "" {
			p = detectParadigm(tab)
		}
		trials, err := record.Trials(p, tab)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		source := filepath.Base(path)
		for _, t := range trials {
			result.Checked++
			if m, bad := rescoreTrial(eng, source, t); bad {
				result.Mismatches = append(result.Mismatches, m)
			}
		}
	}
	return result, nil
}

// detectParadigm reads the paradigm off a per-participant header.
func detectParadigm(tab *record.Table) trial.Paradigm {
	if tab.Index(record.ColListLength) >= 0 || tab.Index(record.ColPerPositionBinary) >= 0 {
		return trial.ParadigmSerial
	}
	return trial.ParadigmFree
}

func rescoreTrial(eng *scoring.Engine, source string, t trial.Trial) (Mismatch, bool) {
	m := Mismatch{Source: source, Trial: t.Index, ID: t.ID}
	if t.Paradigm == trial.ParadigmSerial {
		// Rows may carry the full typed answer; only the list positions count.
		t.Response, _ = scoring.FitSerial(t.Presented, t.Response)
	}
	fresh, err := eng.Score(t)
	if err != nil {
		m.Diffs = []string{fmt.Sprintf("score failed: %v", err)}
		return m, true
	}
	m.Diffs = diffMetrics(t.Metrics, fresh)
	return m, len(m.Diffs) > 0
}

// diffMetrics lists the fields of stored that differ from fresh.
// Proportions compare at CSV precision.
func diffMetrics(stored, fresh trial.Metrics) []string {
	var diffs []string
	add := func(field, want, got string) {
		if want != got {
			diffs = append(diffs, fmt.Sprintf("%s: stored %s, rescored %s", field, want, got))
		}
	}
	switch {
	case stored.Free != nil && fresh.Free != nil:
		s, r := stored.Free, fresh.Free
		add(record.ColNCorrect, fmt.Sprint(s.NCorrect), fmt.Sprint(r.NCorrect))
		add(record.ColProportionCorrect, record.FormatProportion(s.ProportionCorrect), record.FormatProportion(r.ProportionCorrect))
		add(record.ColConfusions, fmt.Sprint(s.PhonologicalConfusions), fmt.Sprint(r.PhonologicalConfusions))
	case stored.Serial != nil && fresh.Serial != nil:
		s, r := stored.Serial, fresh.Serial
		add(record.ColPerPositionBinary, s.Binary(), r.Binary())
		add(record.ColProportionInPos, record.FormatProportion(s.ProportionCorrectInPosition), record.FormatProportion(r.ProportionCorrectInPosition))
	default:
		diffs = append(diffs, "stored metrics do not match the trial's paradigm")
	}
	return diffs
}

func printMismatches(w io.Writer, mm []Mismatch) {
	for _, m := range mm {
		fmt.Fprintf(w, "%s trial %d\n", m.Source, m.Trial)
		for _, d := range m.Diffs {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
}
