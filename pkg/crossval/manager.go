package crossval

import (
	"errors"
	"log/slog"

	"github.com/mash-protocol/crossval-go/pkg/hub"
	"github.com/mash-protocol/crossval-go/pkg/log"
	"github.com/mash-protocol/crossval-go/pkg/wire"
)

// Manager errors.
var (
	ErrNoTransport = errors.New("transport is required")
	ErrNoWifi      = errors.New("wifi capability is required")

	// ErrInvalidConfig indicates a Config that failed Validate.
	ErrInvalidConfig = errors.New("invalid config")
)

// Manager runs the cross-validation protocol. It implements
// hub.EventHandler. All methods must be called from the goroutine that
// delivers events.
type Manager struct {
	config    Config
	transport hub.Transport
	wifi      hub.WifiCapability
	alloc     hub.Allocator

	state State
	stats Stats

	logger         *slog.Logger
	protocolLogger log.Logger
}

// NewManager creates a Manager that replies over transport and drives wifi.
func NewManager(transport hub.Transport, wifi hub.WifiCapability, config Config) (*Manager, error) {
	if transport == nil {
		return nil, ErrNoTransport
	}
	if wifi == nil {
		return nil, ErrNoWifi
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	config = config.withDefaults()
	return &Manager{
		config:         config,
		transport:      transport,
		wifi:           wifi,
		alloc:          config.Allocator,
		state:          State{Step: wire.StepInit},
		logger:         config.Logger,
		protocolLogger: config.ProtocolLogger,
	}, nil
}

// HandleEvent classifies a runtime event and routes it. Each event is
// handled by exactly one branch.
func (m *Manager) HandleEvent(senderInstanceID uint32, eventType uint16, eventData any) {
	switch eventType {
	case hub.EventMessageFromHost:
		msg, ok := eventData.(*hub.MessageFromHost)
		if !ok || msg == nil {
			m.dropEvent("host message event without MessageFromHost payload", eventType)
			return
		}
		m.handleMessageFromHost(senderInstanceID, msg)

	case hub.EventWifiAsyncResult:
		result, ok := eventData.(*hub.AsyncResult)
		if !ok || result == nil {
			m.dropEvent("wifi async result event without AsyncResult payload", eventType)
			return
		}
		m.handleWifiAsyncResult(result)

	default:
		m.dropEvent("unknown event type", eventType)
	}
}

// State returns a copy of the current protocol state.
func (m *Manager) State() State {
	return m.state
}

// Stats returns a copy of the outcome counters.
func (m *Manager) Stats() Stats {
	return m.stats
}

// RunID returns the identifier attached to protocol log events.
func (m *Manager) RunID() string {
	return m.config.RunID
}

func (m *Manager) dropEvent(reason string, eventType uint16) {
	m.stats.EventsDropped++
	m.errorLog("HandleEvent: "+reason, "eventType", hub.EventTypeName(eventType))
	m.logError(log.LayerService, reason, "HandleEvent", nil)
}

// setStep records the new step and logs the transition.
func (m *Manager) setStep(step wire.Step) {
	old := m.state.Step
	m.state.Step = step
	m.logStateChange(log.StateEntityStep, old.String(), step.String(), "")
}

// setSetupInFlight updates the in-flight marker and logs real changes.
func (m *Manager) setSetupInFlight(inFlight bool, reason string) {
	if m.state.SetupInFlight == inFlight {
		return
	}
	m.state.SetupInFlight = inFlight
	m.logStateChange(log.StateEntitySetupRequest, inFlightName(!inFlight), inFlightName(inFlight), reason)
}

func inFlightName(inFlight bool) string {
	if inFlight {
		return "IN_FLIGHT"
	}
	return "IDLE"
}

func (m *Manager) debugLog(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

func (m *Manager) infoLog(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Info(msg, args...)
	}
}

func (m *Manager) errorLog(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Error(msg, args...)
	}
}

// Compile-time interface satisfaction check.
var _ hub.EventHandler = (*Manager)(nil)
