package commands

import (
	"github.com/spf13/cobra"

	"github.com/mash-protocol/crossval-go/pkg/log"
)

// LogOptions holds flags for the log view command.
type LogOptions struct {
	*RootOptions
	Layer     string
	Direction string
	Category  string
	RunID     string
	Endpoint  int
}

// NewLogCommand creates the log command and its subcommands.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect protocol log files",
	}
	cmd.AddCommand(newLogViewCommand(rootOpts))
	cmd.AddCommand(newLogStatsCommand())
	return cmd
}

func newLogViewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "view <file.clog>",
		Short: "View log file in human-readable format",
		Long: `Print protocol log events, optionally filtered.

Example:
  crossval-agent log view agent.clog
  crossval-agent log view --layer wire --direction out agent.clog
  crossval-agent log view --category state --endpoint 3 agent.clog`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter()
			if err != nil {
				return err
			}
			return RunView(args[0], filter, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Layer, "layer", "", "filter by layer (transport, wire, service)")
	cmd.Flags().StringVar(&opts.Direction, "direction", "", "filter by direction (in, out, internal)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "filter by category (message, capability, state, error)")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "filter by run ID")
	cmd.Flags().IntVar(&opts.Endpoint, "endpoint", -1, "filter by host endpoint")

	return cmd
}

func newLogStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file.clog>",
		Short: "Show statistics about a log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunStats(args[0], cmd.OutOrStdout())
		},
	}
}

// filter builds a log.Filter from the flags.
func (o *LogOptions) filter() (log.Filter, error) {
	f := log.Filter{RunID: o.RunID}

	if o.Layer != "" {
		l, err := ParseLayerFlag(o.Layer)
		if err != nil {
			return f, err
		}
		f.Layer = &l
	}
	if o.Direction != "" {
		d, err := ParseDirectionFlag(o.Direction)
		if err != nil {
			return f, err
		}
		f.Direction = &d
	}
	if o.Category != "" {
		c, err := ParseCategoryFlag(o.Category)
		if err != nil {
			return f, err
		}
		f.Category = &c
	}
	if o.Endpoint >= 0 {
		if o.Endpoint > 0xffff {
			return f, errInvalidEndpoint
		}
		ep := uint16(o.Endpoint)
		f.HostEndpoint = &ep
	}
	return f, nil
}
