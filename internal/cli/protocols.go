package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/recall/internal/protocol"
	"github.com/roach88/recall/internal/trial"
)

// ProtocolsOptions holds flags for the protocols command.
type ProtocolsOptions struct {
	*RootOptions
	Dir      string
	Paradigm string
}

// ProtocolInfo is one listed protocol.
type ProtocolInfo struct {
	Name       string           `json:"name"`
	Paradigm   string           `json:"paradigm"`
	Experiment string           `json:"experiment"`
	Trials     int              `json:"trials"`
	Conditions trial.Conditions `json:"conditions"`
}

// NewProtocolsCommand creates the protocols command.
func NewProtocolsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProtocolsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "protocols",
		Short: "List available protocols",
		Long: `List the builtin protocols, plus any declared in --protocols.

Examples:
  recall protocols
  recall protocols --paradigm serial
  recall protocols --protocols ./lab-protocols --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProtocols(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "protocols", rootOpts.Config.Protocols, "directory of extra CUE protocols")
	cmd.Flags().StringVar(&opts.Paradigm, "paradigm", "", "only list this paradigm (free|serial)")

	return cmd
}

func runProtocols(opts *ProtocolsOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	paradigm, err := parseParadigmFlag(opts.Paradigm)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid --paradigm", err)
	}
	set, err := loadProtocols(opts.Dir)
	if err != nil {
		return f.Fail(ExitCommandError, loadErrorCode(err), "load protocols", err)
	}

	infos := []ProtocolInfo{}
	for _, p := range set.Sorted() {
		if paradigm != "" && p.Paradigm != paradigm {
			continue
		}
		infos = append(infos, protocolInfo(p))
	}

	if f.JSON() {
		return f.Success(infos)
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPARADIGM\tEXPERIMENT\tTRIALS\tCONDITIONS")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", info.Name, info.Paradigm, info.Experiment, info.Trials, formatConditions(info.Conditions))
	}
	return tw.Flush()
}

func protocolInfo(p *protocol.Protocol) ProtocolInfo {
	return ProtocolInfo{
		Name:       p.Name,
		Paradigm:   string(p.Paradigm),
		Experiment: p.Experiment,
		Trials:     p.Trials,
		Conditions: p.Conditions(),
	}
}

func formatConditions(c trial.Conditions) string {
	keys := c.SortedKeys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + c[k]
	}
	return strings.Join(parts, " ")
}
