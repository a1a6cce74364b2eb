package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/mash-protocol/crossval-go/pkg/transport"
)

// HostOptions holds flags for the host command.
type HostOptions struct {
	*RootOptions
	Addr     string
	Endpoint uint16
	Wait     time.Duration
}

// NewHostCommand creates the host command.
func NewHostCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HostOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Interactive console acting as the test host",
		Long: `Connect to a running agent and send step commands interactively.

Example:
  crossval-agent host --addr 127.0.0.1:7420 --endpoint 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHost(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", transport.DefaultAddress, "agent address")
	cmd.Flags().Uint16Var(&opts.Endpoint, "endpoint", 1, "host endpoint stamped on messages")
	cmd.Flags().DurationVar(&opts.Wait, "wait", DefaultResultWait, "time to wait for a step result")

	return cmd
}

func runHost(cmd *cobra.Command, opts *HostOptions) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	client, err := transport.Dial(parentCtx, opts.Addr, transport.ClientConfig{HostEndpoint: opts.Endpoint})
	if err != nil {
		return err
	}
	defer client.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "host> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	console := NewConsole(client, rl.Stdout(), opts.Wait)
	fmt.Fprintf(rl.Stdout(), "Connected to %s as endpoint %d. Type 'help' for commands.\n", opts.Addr, opts.Endpoint)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}

		quit, err := console.Execute(line)
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}
