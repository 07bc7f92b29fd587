package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recall/internal/record"
	"github.com/roach88/recall/internal/scoring"
	"github.com/roach88/recall/internal/trial"
)

// ScoreOptions holds flags for the score command.
type ScoreOptions struct {
	*RootOptions
	Paradigm  string
	Presented string
	Response  string
	Raw       bool
	Pairs     []string
}

// ScoreResult is the outcome of scoring one trial.
type ScoreResult struct {
	Paradigm  trial.Paradigm `json:"paradigm"`
	Presented string         `json:"presented"`
	Response  string         `json:"response"`
	Metrics   trial.Metrics  `json:"metrics"`
}

// NewScoreCommand creates the score command.
func NewScoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a single trial",
		Long: `Score one presented list against a response.

Letters are one item per character. With --raw the response is treated as
typed input and normalized the way a session does (upper-cased; separators
dropped for free recall, whitespace dropped for serial recall).

Examples:
  recall score --paradigm free --presented BDGKLM --response MLKB
  recall score --paradigm serial --presented BDGK --response "b d ? k" --raw
  recall score --paradigm free --presented BDG --response PT --pairs BP,DT`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Paradigm, "paradigm", "", "free or serial (required)")
	cmd.Flags().StringVar(&opts.Presented, "presented", "", "presented letters (required)")
	cmd.Flags().StringVar(&opts.Response, "response", "", "recalled letters")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "normalize the response as typed input")
	cmd.Flags().StringSliceVar(&opts.Pairs, "pairs", nil, "similar letter pairs replacing the default table (e.g. BP,DT)")
	_ = cmd.MarkFlagRequired("paradigm")
	_ = cmd.MarkFlagRequired("presented")

	return cmd
}

func runScore(opts *ScoreOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	paradigm, err := trial.ParseParadigm(opts.Paradigm)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid --paradigm", err)
	}
	table, err := pairTable(opts.Pairs)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid --pairs", err)
	}

	response := trial.ParseSequence(opts.Response)
	if opts.Raw {
		response = scoring.Normalize(paradigm, opts.Response)
	}
	t := trial.Trial{Paradigm: paradigm, Presented: trial.ParseSequence(opts.Presented), Response: response}

	metrics, err := scoring.New(table).Score(t)
	if err != nil {
		code := ErrCodeRunFailed
		if errors.Is(err, scoring.ErrInvalidInput) {
			code = ErrCodeInvalidArgs
		}
		return f.Fail(ExitFailure, code, "score trial", err)
	}

	result := ScoreResult{Paradigm: paradigm, Presented: t.Presented.String(), Response: t.Response.String(), Metrics: metrics}
	if f.JSON() {
		return f.Success(result)
	}

	fmt.Fprintf(f.Writer, "presented: %s\nresponse:  %s\n", result.Presented, result.Response)
	if m := metrics.Free; m != nil {
		fmt.Fprintf(f.Writer, "n_correct: %d\nproportion_correct: %s\nphonological_confusions: %d\n",
			m.NCorrect, record.FormatProportion(m.ProportionCorrect), m.PhonologicalConfusions)
	}
	if m := metrics.Serial; m != nil {
		fmt.Fprintf(f.Writer, "per_position_binary: %s\nproportion_correct_in_position: %s\n",
			m.Binary(), record.FormatProportion(m.ProportionCorrectInPosition))
	}
	return nil
}

// pairTable builds a similarity table from two-letter strings, or returns
// the default table when none are given.
func pairTable(specs []string) (*scoring.PairTable, error) {
	if len(specs) == 0 {
		return scoring.DefaultTable(), nil
	}
	pairs := make([]scoring.Pair, 0, len(specs))
	for _, s := range specs {
		seq := trial.ParseSequence(strings.ToUpper(s))
		if len(seq) != 2 {
			return nil, fmt.Errorf("pair %q: want two letters", s)
		}
		pairs = append(pairs, scoring.Pair{seq[0], seq[1]})
	}
	return scoring.NewPairTable(pairs)
}
