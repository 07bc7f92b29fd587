package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recall/internal/protocol"
)

// ValidationIssue is one problem found in a protocol directory.
type ValidationIssue struct {
	Code     string `json:"code"`
	Protocol string `json:"protocol,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	Protocols []string          `json:"protocols"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <protocols-dir>",
		Short: "Validate CUE protocol files",
		Long: `Load every protocol declared in the CUE files of a directory and check
each one: known fields only, a valid paradigm, options that belong to that
paradigm, and sane timing and trial counts.

Exit codes:
  0 - All protocols valid
  1 - One or more protocols invalid
  2 - Directory missing, empty, or not valid CUE`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	set, errs := protocol.LoadDir(dir)
	if set == nil && len(errs) > 0 {
		var le *protocol.LoadError
		if errors.As(errs[0], &le) {
			_ = f.Error(le.Code, le.Message, nil)
			e := NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", le.Code, le.Message))
			e.reported = true
			return e
		}
		return f.Fail(ExitCommandError, protocol.ErrCodeGeneric, "load protocols", errs[0])
	}

	result := ValidationResult{Valid: len(errs) == 0, Protocols: set.Names()}
	for _, err := range errs {
		result.Errors = append(result.Errors, toIssue(err))
	}
	for _, name := range result.Protocols {
		f.VerboseLog("valid protocol: %s", name)
	}

	if result.Valid {
		if f.JSON() {
			return f.Success(result)
		}
		fmt.Fprintf(f.Writer, "\u2713 All protocols valid (%d)\n", len(result.Protocols))
		return nil
	}

	if f.JSON() {
		if err := f.Failure(result.Errors[0].Code, result.Errors[0].Message, result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(f.Writer, "\u2717 Validation failed")
		fmt.Fprintln(f.Writer)
		for _, issue := range result.Errors {
			if issue.Line > 0 {
				fmt.Fprintf(f.Writer, "%s:%d\n", issue.File, issue.Line)
			}
			where := issue.Protocol
			if issue.Field != "" {
				where += "." + issue.Field
			}
			if where != "" {
				fmt.Fprintf(f.Writer, "  %s: %s: %s\n\n", issue.Code, where, issue.Message)
			} else {
				fmt.Fprintf(f.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
			}
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}

func toIssue(err error) ValidationIssue {
	var le *protocol.LoadError
	if !errors.As(err, &le) {
		return ValidationIssue{Code: protocol.ErrCodeGeneric, Message: err.Error()}
	}
	issue := ValidationIssue{Code: le.Code, Protocol: le.Protocol, Field: le.Field, Message: le.Message}
	if le.Pos.IsValid() {
		issue.File = le.Pos.Filename()
		issue.Line = le.Pos.Line()
	}
	return issue
}
