package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mash-protocol/crossval-go/internal/agent"
	"github.com/mash-protocol/crossval-go/internal/config"
	"github.com/mash-protocol/crossval-go/pkg/log"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath  string
	Listen      string
	ProtocolLog string
	Trace       bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve the agent on a host link",
		Long: `Start the cross-validator agent with a simulated WiFi subsystem and
accept host connections until interrupted.

Example:
  crossval-agent run --listen 127.0.0.1:7420
  crossval-agent run --config agent.yaml --protocol-log agent.clog`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.ProtocolLog, "protocol-log", "", "write CBOR protocol log to file (overrides config)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "also print protocol events to the operational log")

	return cmd
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(opts *RunOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return nil, err
		}
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.ProtocolLog != "" {
		cfg.Log.ProtocolLog = opts.ProtocolLog
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

func runAgent(cmd *cobra.Command, opts *RunOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	var loggers []log.Logger
	if cfg.Log.ProtocolLog != "" {
		fl, err := log.NewFileLogger(cfg.Log.ProtocolLog)
		if err != nil {
			return fmt.Errorf("failed to open protocol log: %w", err)
		}
		defer func() {
			if closeErr := fl.Close(); closeErr != nil {
				logger.Error("error closing protocol log", "error", closeErr)
			}
		}()
		loggers = append(loggers, fl)
	}
	if opts.Trace {
		loggers = append(loggers, log.NewSlogAdapter(logger))
	}

	var plog log.Logger
	if len(loggers) > 0 {
		plog = log.NewMultiLogger(loggers...)
	}

	a, err := agent.New(agent.Options{
		Config:         cfg,
		Logger:         logger,
		ProtocolLogger: plog,
	})
	if err != nil {
		return err
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := a.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Agent listening on %s (run %s). Press Ctrl-C to stop.\n", a.Addr(), a.RunID())

	if err := a.Run(ctx); err != nil {
		return fmt.Errorf("agent error: %w", err)
	}
	logger.Info("agent stopped")
	return nil
}
