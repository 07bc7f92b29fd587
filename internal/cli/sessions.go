package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/recall/internal/store"
)

// SessionsOptions holds flags for the sessions command.
type SessionsOptions struct {
	*RootOptions
	Database    string
	Driver      string
	Participant string
	Paradigm    string
	Experiment  string
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionsOptions{RootOptions: rootOpts}
	cfg := rootOpts.Config

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List logged sessions",
		Long: `List the blocks recorded in the session log, oldest first.

A block interrupted before its last trial shows fewer recorded trials
than planned.

Examples:
  recall sessions
  recall sessions --participant P01
  recall sessions --paradigm serial --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", cfg.DB, "path to the SQLite session log")
	cmd.Flags().StringVar(&opts.Driver, "db-driver", cfg.DBDriver, "SQLite driver (sqlite3|sqlite)")
	cmd.Flags().StringVar(&opts.Participant, "participant", "", "only sessions of this participant")
	cmd.Flags().StringVar(&opts.Paradigm, "paradigm", "", "only sessions of this paradigm (free|serial)")
	cmd.Flags().StringVar(&opts.Experiment, "experiment", "", "only sessions of this experiment")

	return cmd
}

func runSessions(opts *SessionsOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	paradigm, err := parseParadigmFlag(opts.Paradigm)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid --paradigm", err)
	}

	st, err := openLog(opts.Driver, opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "open session log", err)
	}
	defer st.Close()

	list, err := st.ListSessions(cmd.Context(), store.Filter{
		Participant: opts.Participant,
		Paradigm:    paradigm,
		Experiment:  opts.Experiment,
	})
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "list sessions", err)
	}

	if f.JSON() {
		if list == nil {
			list = []store.SessionSummary{}
		}
		return f.Success(list)
	}

	w := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPARTICIPANT\tPROTOCOL\tTRIALS\tSTARTED")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\n",
			s.ID, s.Participant, s.Protocol, s.Recorded, s.Trials, humanize.Time(s.StartedAt))
	}
	return tw.Flush()
}
