package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/recall/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config supplies flag defaults from RECALL_* variables.
	Config config.Config

	// Logger is set by the root command before any subcommand runs.
	Logger *slog.Logger

	configErr error
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the recall CLI, reading
// defaults from the environment.
func NewRootCommand() *cobra.Command {
	cfg, err := config.Load()
	return newRootCommand(cfg, err)
}

// NewRootCommandWithConfig creates the root command with explicit defaults.
func NewRootCommandWithConfig(cfg config.Config) *cobra.Command {
	return newRootCommand(cfg, nil)
}

func newRootCommand(cfg config.Config, cfgErr error) *cobra.Command {
	return newRootCommandWithRun(cfg, cfgErr, &RunOptions{})
}

// newRootCommandWithRun lets tests replace the run command's clock, sleep
// and ID source.
func newRootCommandWithRun(cfg config.Config, cfgErr error, run *RunOptions) *cobra.Command {
	opts := &RootOptions{Config: cfg, configErr: cfgErr}
	run.RootOptions = opts

	cmd := &cobra.Command{
		Use:   "recall",
		Short: "recall - free and serial recall experiments",
		Long: `Run letter-list memory experiments, score each trial, and summarise
the data collected across participants.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.configErr != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", opts.configErr)
			}
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.Logger = NewLogger(cmd.ErrOrStderr(), opts.Verbose, opts.Config.Level())
			slog.SetDefault(opts.Logger)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newRunCommand(run))
	cmd.AddCommand(NewScoreCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewProtocolsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewCombineCommand(opts))
	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewRescoreCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewSessionsCommand(opts))

	return cmd
}

// logger returns the configured logger, or the default one when a command
// is run without the root.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // keep diagnostics out of JSON output
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
