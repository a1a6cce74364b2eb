// Package agent assembles a runnable cross-validator agent: event loop,
// host link, simulated WiFi subsystem and the protocol manager.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/google/uuid"

	"github.com/mash-protocol/crossval-go/internal/config"
	"github.com/mash-protocol/crossval-go/pkg/crossval"
	"github.com/mash-protocol/crossval-go/pkg/hub"
	"github.com/mash-protocol/crossval-go/pkg/log"
	"github.com/mash-protocol/crossval-go/pkg/transport"
	"github.com/mash-protocol/crossval-go/pkg/version"
	"github.com/mash-protocol/crossval-go/pkg/wifi"
)

// Options configures an Agent.
type Options struct {
	// Config is the agent configuration (default: config.Default()).
	Config *config.Config

	// Logger is the operational logger (optional).
	Logger *slog.Logger

	// ProtocolLogger captures protocol events (optional).
	ProtocolLogger log.Logger

	// RunID tags protocol events. If empty, a random UUID is used.
	RunID string
}

// Agent is a cross-validator agent bound to a host link.
type Agent struct {
	loop    *hub.EventLoop
	link    *transport.HostLink
	wifi    *wifi.Simulator
	manager *crossval.Manager
	logger  *slog.Logger

	hostProtocol version.ProtocolVersion
}

// New wires the agent components together. Nothing runs until Run.
func New(opts Options) (*Agent, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	hostProtocol, err := cfg.HostProtocol()
	if err != nil {
		return nil, err
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	plog := log.WithRunID(opts.ProtocolLogger, runID)

	loop := hub.NewEventLoop(cfg.QueueSize, opts.Logger)

	link, err := transport.NewHostLink(transport.LinkConfig{
		Address:        cfg.Listen,
		MaxMessageSize: cfg.MaxMessageSize,
		Poster:         loop,
		Logger:         opts.Logger,
		ProtocolLogger: plog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create host link: %w", err)
	}

	sim, err := wifi.NewSimulator(loop, cfg.WifiBehavior(), opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create wifi simulator: %w", err)
	}

	mcfg := crossval.DefaultConfig()
	mcfg.TrustedSenderID = cfg.TrustedSender
	mcfg.ReportInternalFailures = cfg.ReportInternalFailures
	mcfg.Allocator = hub.NewHeapAllocator(cfg.HeapLimit)
	mcfg.RunID = runID
	mcfg.Logger = opts.Logger
	mcfg.ProtocolLogger = plog

	manager, err := crossval.NewManager(link, sim, mcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create manager: %w", err)
	}

	return &Agent{
		loop:    loop,
		link:    link,
		wifi:    sim,
		manager: manager,
		logger:  opts.Logger,

		hostProtocol: hostProtocol,
	}, nil
}

// Start begins accepting host connections. Events are not processed
// until Run is called.
func (a *Agent) Start(ctx context.Context) error {
	return a.link.Start(ctx)
}

// Run processes events until ctx is cancelled, then shuts the host link
// and simulator down. Start must have been called.
func (a *Agent) Run(ctx context.Context) error {
	defer a.wifi.Close()
	defer a.link.Stop()

	if a.logger != nil {
		a.logger.Info("agent running", "runID", a.manager.RunID(), "address", a.Addr(),
			"protocol", version.Current().String(), "hostProtocol", a.hostProtocol.String())
	}

	err := a.loop.Run(ctx, a.manager)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HostProtocol returns the host protocol version the agent was
// configured for.
func (a *Agent) HostProtocol() version.ProtocolVersion {
	return a.hostProtocol
}

// Addr returns the host link address once started.
func (a *Agent) Addr() net.Addr {
	return a.link.Addr()
}

// RunID returns the identifier attached to protocol events.
func (a *Agent) RunID() string {
	return a.manager.RunID()
}

// Simulator returns the WiFi simulator so its behavior can be changed
// while running.
func (a *Agent) Simulator() *wifi.Simulator {
	return a.wifi
}
