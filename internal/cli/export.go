package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/recall/internal/combine"
	"github.com/roach88/recall/internal/record"
	"github.com/roach88/recall/internal/store"
	"github.com/roach88/recall/internal/trial"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database    string
	Driver      string
	Out         string
	Participant string
	Paradigm    string
	Experiment  string
	UTC         bool
}

// ExportedFile is one CSV file written by export.
type ExportedFile struct {
	Session string `json:"session"`
	Path    string `json:"path"`
	Trials  int    `json:"trials"`
}

// ExportResult is the outcome of the export command.
type ExportResult struct {
	Files []ExportedFile `json:"files"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}
	cfg := rootOpts.Config

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write logged sessions back out as CSV files",
		Long: `Rebuild the per-participant CSV files from the session log.

Each session becomes <out>/experiments/<type>/<experiment>/<file>.csv, the
same layout 'recall run' writes, so the result can be fed to
'recall combine'. Existing files of the same name are replaced.

Examples:
  recall export --out ./restored
  recall export --participant P01 --paradigm serial`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", cfg.DB, "path to the SQLite session log")
	cmd.Flags().StringVar(&opts.Driver, "db-driver", cfg.DBDriver, "SQLite driver (sqlite3|sqlite)")
	cmd.Flags().StringVar(&opts.Out, "out", cfg.DataDir, "root of the exported experiments/ tree")
	cmd.Flags().StringVar(&opts.Participant, "participant", "", "only sessions of this participant")
	cmd.Flags().StringVar(&opts.Paradigm, "paradigm", "", "only sessions of this paradigm (free|serial)")
	cmd.Flags().StringVar(&opts.Experiment, "experiment", "", "only sessions of this experiment")
	cmd.Flags().BoolVar(&opts.UTC, "utc", false, "write timestamps in UTC instead of local time")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	log := opts.logger()
	ctx := cmd.Context()

	paradigm, err := parseParadigmFlag(opts.Paradigm)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid --paradigm", err)
	}
	loc := time.Local
	if opts.UTC {
		loc = time.UTC
	}

	st, err := openLog(opts.Driver, opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "open session log", err)
	}
	defer st.Close()

	sessions, err := st.ListSessions(ctx, store.Filter{
		Participant: opts.Participant,
		Paradigm:    paradigm,
		Experiment:  opts.Experiment,
	})
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "list sessions", err)
	}

	result := ExportResult{Files: []ExportedFile{}}
	for _, s := range sessions {
		file, err := exportSession(ctx, st, s.Session, opts.Out, loc)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeIO, fmt.Sprintf("export session %s", s.ID), err)
		}
		log.Debug("exported session", "session", s.ID, "path", file.Path, "trials", file.Trials)
		result.Files = append(result.Files, file)
	}

	if f.JSON() {
		return f.Success(result)
	}
	w := cmd.OutOrStdout()
	for _, file := range result.Files {
		fmt.Fprintf(w, "%s (%d trials)\n", file.Path, file.Trials)
	}
	fmt.Fprintf(w, "Exported %d sessions.\n", len(result.Files))
	return nil
}

func exportSession(ctx context.Context, st *store.Store, sess trial.Session, root string, loc *time.Location) (ExportedFile, error) {
	file := ExportedFile{Session: sess.ID}

	trials, err := st.ReadTrials(ctx, sess.ID)
	if err != nil {
		return file, err
	}
	exp, err := combine.ForParadigm(sess.Paradigm, sess.Experiment)
	if err != nil {
		return file, err
	}
	dir := exp.InputDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return file, fmt.Errorf("create output dir: %w", err)
	}
	file.Path = filepath.Join(dir, record.FileName(sess.Paradigm, sess.Participant, sess.StartedAt))

	out, err := os.Create(file.Path)
	if err != nil {
		return file, err
	}
	w, err := record.NewWriter(out, sess.Paradigm, sess.Participant, loc)
	if err != nil {
		out.Close()
		return file, err
	}
	if err := w.WriteHeader(); err != nil {
		out.Close()
		return file, err
	}
	for _, t := range trials {
		if err := w.Write(t); err != nil {
			out.Close()
			return file, err
		}
		file.Trials++
	}
	return file, out.Close()
}
