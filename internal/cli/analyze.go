package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/recall/internal/analysis"
	"github.com/roach88/recall/internal/combine"
	"github.com/roach88/recall/internal/trial"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	DataDir string
	Out     string
}

// AnalyzeResult is the JSON output of the analyze command.
type AnalyzeResult struct {
	Reports []*analysis.Report `json:"reports"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze [free|serial]",
		Short: "Summarise combined experiment data",
		Long: `Compute per-experiment statistics from the combined CSV files.

Reads <data-dir>/combined_data/ (run 'recall combine' first), prints a
text report and writes <out>/<paradigm>_statistics.csv. Serial reports add
working memory capacity by list length and the condition comparison.
With no argument both paradigms are analysed; one without data is skipped.

Examples:
  recall analyze
  recall analyze serial --out ./results
  recall analyze free --format json`,
		Args:          cobra.MaximumNArgs(1),
		ValidArgs:     []string{"free", "serial"},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data-dir", rootOpts.Config.DataDir, "root holding combined_data/")
	cmd.Flags().StringVar(&opts.Out, "out", "", "directory for statistics files (default <data-dir>/images)")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	log := opts.logger()

	kinds := []analysis.Kind{analysis.Free, analysis.Serial}
	explicit := len(args) == 1
	if explicit {
		p, err := trial.ParseParadigm(args[0])
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid paradigm", err)
		}
		k, err := analysis.KindFor(p)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid paradigm", err)
		}
		kinds = []analysis.Kind{k}
	}

	out := opts.Out
	if out == "" {
		out = filepath.Join(opts.DataDir, "images")
	}
	in := filepath.Join(opts.DataDir, combine.OutputDir)

	var result AnalyzeResult
	for _, k := range kinds {
		rep, err := analysis.Analyze(in, k)
		if errors.Is(err, analysis.ErrNoData) && !explicit {
			log.Warn("no combined data, skipping", "kind", k.Title, "dir", in)
			continue
		}
		if err != nil {
			code := ErrCodeIO
			if errors.Is(err, analysis.ErrNoData) {
				code = ErrCodeNoData
			}
			return f.Fail(ExitFailure, code, "analyze "+string(k.Paradigm), err)
		}
		if _, err := analysis.WriteStatistics(out, k, rep); err != nil {
			return f.Fail(ExitFailure, ErrCodeIO, "write statistics", err)
		}
		log.Info("saved", "path", rep.Output)
		result.Reports = append(result.Reports, rep)
	}

	if len(result.Reports) == 0 {
		return f.Fail(ExitFailure, ErrCodeNoData, fmt.Sprintf("no combined data in %s (run 'recall combine' first)", in), nil)
	}

	if f.JSON() {
		return f.Success(result)
	}
	w := cmd.OutOrStdout()
	for i, rep := range result.Reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := analysis.Render(w, rep); err != nil {
			return err
		}
		fmt.Fprintf(w, "Saved: %s\n", rep.Output)
	}
	return nil
}
