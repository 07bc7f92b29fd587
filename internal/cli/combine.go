package cli

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/recall/internal/combine"
)

// CombineOptions holds flags for the combine command.
type CombineOptions struct {
	*RootOptions
	DataDir  string
	Paradigm string
	Workers  int
}

// CombineResult is the JSON output of the combine command.
type CombineResult struct {
	Reports []combine.Report `json:"reports"`
	Written int              `json:"written"`
}

// NewCombineCommand creates the combine command.
func NewCombineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CombineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Merge participant CSV files per experiment",
		Long: `Merge every participant file of each experiment into one CSV.

Reads <data-dir>/experiments/<type>/<experiment>/*.csv and writes
<data-dir>/combined_data/<type>_<experiment>_combined.csv. Bookkeeping
columns are dropped and experiment_type/experiment_name are added.
Unreadable files are skipped and reported.

Examples:
  recall combine
  recall combine --data-dir ./lab --paradigm serial`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCombine(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data-dir", rootOpts.Config.DataDir, "root of the experiments/ tree")
	cmd.Flags().StringVar(&opts.Paradigm, "paradigm", "", "only combine one paradigm (free|serial)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 4, "files read concurrently")

	return cmd
}

func runCombine(opts *CombineOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	paradigm, err := parseParadigmFlag(opts.Paradigm)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid --paradigm", err)
	}
	if opts.Workers < 1 {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "--workers must be at least 1", nil)
	}

	var exps []combine.Experiment
	for _, e := range combine.Default() {
		if paradigm == "" || e.Paradigm() == paradigm {
			exps = append(exps, e)
		}
	}

	reports, err := combine.Run(cmd.Context(), opts.DataDir, exps, combine.Options{
		Workers: opts.Workers,
		Logger:  opts.logger(),
	})
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeIO, "combine", err)
	}

	result := CombineResult{Reports: reports}
	for _, r := range reports {
		if r.Output != "" {
			result.Written++
		}
	}

	if f.JSON() {
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tEXPERIMENT\tFILES\tSKIPPED\tROWS\tOUTPUT")
	for _, r := range reports {
		out := "-"
		if r.Output != "" {
			out = relOrSame(opts.DataDir, r.Output)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			r.Experiment.Label, r.Experiment.Name, len(r.Files), len(r.Skipped),
			humanize.Comma(int64(r.Rows)), out)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, r := range reports {
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "skipped %s: %s\n", s.Path, s.Err)
		}
	}
	fmt.Fprintf(w, "\nCombined %d of %d experiments.\n", result.Written, len(reports))
	return nil
}

// relOrSame returns path relative to base when possible.
func relOrSame(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}
