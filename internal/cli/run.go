package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/roach88/recall/internal/combine"
	"github.com/roach88/recall/internal/protocol"
	"github.com/roach88/recall/internal/record"
	"github.com/roach88/recall/internal/session"
	"github.com/roach88/recall/internal/store"
	"github.com/roach88/recall/internal/trial"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Participant string
	Protocols   string
	Paradigm    string
	Seed        int64
	Trials      int
	DataDir     string
	Database    string
	Driver      string
	NoDB        bool

	// Sleep, IDs and Now override the real clock and ID source (for testing).
	Sleep session.SleepFunc
	IDs   session.IDGenerator
	Now   func() time.Time
}

// RunSummary reports a finished or interrupted block.
type RunSummary struct {
	Session     trial.Session `json:"session"`
	Completed   int           `json:"completed"`
	Interrupted bool          `json:"interrupted"`
	MeanScore   float64       `json:"mean_score"`
	CSV         string        `json:"csv"`
	Database    string        `json:"database,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cfg := opts.Config

	cmd := &cobra.Command{
		Use:   "run <protocol>",
		Short: "Run a block of trials for one participant",
		Long: `Run one block of a protocol on the console.

The protocol is a protocol name (FreeBaseline) or, when unambiguous for the
paradigm, an experiment name (Baseline). Each trial is written as a CSV row
under <data-dir>/experiments/<type>/<experiment>/ and logged to the session
database. Ctrl-C stops after the current trial; completed trials are kept.

Examples:
  recall run FreeBaseline --participant P01
  recall run Length --paradigm serial --participant P02 --seed 42
  recall run LabProtocol --protocols ./lab --participant P03 --no-db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBlock(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Participant, "participant", "p", cfg.Participant, "participant ID (required)")
	cmd.Flags().StringVar(&opts.Protocols, "protocols", cfg.Protocols, "directory of extra CUE protocols")
	cmd.Flags().StringVar(&opts.Paradigm, "paradigm", "", "paradigm used to resolve an experiment name (free|serial)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 uses the protocol seed or the time)")
	cmd.Flags().IntVar(&opts.Trials, "trials", 0, "override the protocol trial count")
	cmd.Flags().StringVar(&opts.DataDir, "data-dir", cfg.DataDir, "root of the experiments/ tree")
	cmd.Flags().StringVar(&opts.Database, "db", cfg.DB, "path to the SQLite session log")
	cmd.Flags().StringVar(&opts.Driver, "db-driver", cfg.DBDriver, "SQLite driver (sqlite3|sqlite)")
	cmd.Flags().BoolVar(&opts.NoDB, "no-db", false, "write CSV only")

	return cmd
}

func runBlock(opts *RunOptions, name string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	log := opts.logger()

	if opts.Participant == "" {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "--participant is required", nil)
	}
	paradigm, err := parseParadigmFlag(opts.Paradigm)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid --paradigm", err)
	}
	set, err := loadProtocols(opts.Protocols)
	if err != nil {
		return f.Fail(ExitCommandError, loadErrorCode(err), "load protocols", err)
	}
	p, ok := set.Find(name, paradigm)
	if !ok {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, fmt.Sprintf("no protocol %q (see 'recall protocols')", name), nil)
	}
	if opts.Trials > 0 {
		copied := *p
		copied.Trials = opts.Trials
		if verrs := protocol.Validate(&copied); len(verrs) > 0 {
			return f.Fail(ExitCommandError, verrs[0].Code, "invalid --trials", &verrs[0])
		}
		p = &copied
	}

	exp, err := combine.ForParadigm(p.Paradigm, p.Experiment)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "resolve experiment folder", err)
	}
	csvSink, err := record.NewCSVSink(exp.InputDir(opts.DataDir), time.Local)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeIO, "prepare CSV output", err)
	}
	defer func() {
		if err := csvSink.Close(); err != nil {
			log.Error("error closing CSV file", "error", err)
		}
	}()

	runOpts := []session.Option{
		session.WithSinks(csvSink),
		session.WithLogger(log),
	}
	if opts.Seed != 0 {
		runOpts = append(runOpts, session.WithSeed(opts.Seed))
	}
	if opts.IDs != nil {
		runOpts = append(runOpts, session.WithIDGenerator(opts.IDs))
	}
	if opts.Now != nil {
		runOpts = append(runOpts, session.WithNow(opts.Now))
	}

	if !opts.NoDB {
		st, err := store.OpenDriver(opts.Driver, opts.Database)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "open session log", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		last, err := st.LastSeq(cmd.Context())
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "read session log", err)
		}
		runOpts = append(runOpts, session.WithSinks(st), session.WithClock(session.NewClockAt(last)))
		log.Debug("session log ready", "path", opts.Database, "last_seq", last)
	}

	// JSON output keeps stdout for the summary; the trials go to stderr.
	out := cmd.OutOrStdout()
	display := out
	if f.JSON() {
		display = cmd.ErrOrStderr()
	}
	var consoleOpts []session.ConsoleOption
	if !isTerminal(display) {
		consoleOpts = append(consoleOpts, session.PlainOutput())
	}
	console := session.NewConsole(display, cmd.InOrStdin(), opts.Sleep, consoleOpts...)

	runner, err := session.New(p, opts.Participant, console, console, runOpts...)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeRunFailed, "prepare block", err)
	}

	if p.Instructions != "" {
		fmt.Fprintf(display, "%s\n\n", p.Instructions)
	}

	// Stop between trials on Ctrl-C.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, stopping after current trial", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	res, runErr := runner.Run(ctx)
	interrupted := errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)
	if runErr != nil && !interrupted {
		code := ErrCodeRunFailed
		if session.IsSinkError(runErr) {
			code = ErrCodeIO
		}
		return f.Fail(ExitFailure, code, "run block", runErr)
	}

	summary := RunSummary{
		Session:     res.Session,
		Completed:   len(res.Trials),
		Interrupted: interrupted,
		MeanScore:   meanScore(res.Trials),
		CSV:         csvSink.Path(),
	}
	if !opts.NoDB {
		summary.Database = opts.Database
	}

	if f.JSON() {
		return f.Success(summary)
	}
	fmt.Fprintln(out)
	if interrupted {
		fmt.Fprintf(out, "Block interrupted after %d of %d trials.\n", summary.Completed, p.Trials)
	} else {
		fmt.Fprintf(out, "Block complete: %d trials.\n", summary.Completed)
	}
	fmt.Fprintf(out, "Mean score: %s\n", record.FormatProportion(summary.MeanScore))
	fmt.Fprintf(out, "Saved: %s\n", summary.CSV)
	return nil
}

// meanScore averages the headline proportion of each trial.
func meanScore(trials []trial.Trial) float64 {
	if len(trials) == 0 {
		return 0
	}
	var sum float64
	for _, t := range trials {
		switch {
		case t.Metrics.Free != nil:
			sum += t.Metrics.Free.ProportionCorrect
		case t.Metrics.Serial != nil:
			sum += t.Metrics.Serial.ProportionCorrectInPosition
		}
	}
	return sum / float64(len(trials))
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
