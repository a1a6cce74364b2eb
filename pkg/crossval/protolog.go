package crossval

import (
	"time"

	"github.com/mash-protocol/crossval-go/pkg/hub"
	"github.com/mash-protocol/crossval-go/pkg/log"
	"github.com/mash-protocol/crossval-go/pkg/wire"
)

func (m *Manager) logEvent(event log.Event) {
	if m.protocolLogger == nil {
		return
	}
	event.Timestamp = time.Now()
	event.RunID = m.config.RunID
	endpoint := m.state.HostEndpoint
	event.HostEndpoint = &endpoint
	m.protocolLogger.Log(event)
}

func (m *Manager) logStepStart(cmd *wire.StepStartCommand, size int) {
	step := cmd.Step
	m.logEvent(log.Event{
		Direction: log.DirectionIn,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message: &log.MessageEvent{
			Type: wire.MessageTypeStepStart,
			Step: &step,
			Size: size,
		},
	})
}

func (m *Manager) logResult(r *wire.TestResult, size int, direction log.Direction, suppressed bool) {
	code := r.Code
	m.logEvent(log.Event{
		Direction: direction,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:         wire.MessageTypeStepResult,
			Code:         &code,
			ErrorMessage: r.ErrorMessage,
			Size:         size,
			Suppressed:   suppressed,
		},
	})
}

func (m *Manager) logStateChange(entity log.StateEntity, oldState, newState, reason string) {
	m.logEvent(log.Event{
		Direction: log.DirectionInternal,
		Layer:     log.LayerService,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func (m *Manager) logCapabilityRequest(accepted bool) {
	m.logEvent(log.Event{
		Direction: log.DirectionOut,
		Layer:     log.LayerService,
		Category:  log.CategoryCapability,
		Capability: &log.CapabilityEvent{
			Kind:        log.CapabilityRequest,
			RequestType: hub.WifiRequestTypeConfigureScanMonitor,
			Cookie:      ScanMonitoringCookie,
			Success:     &accepted,
		},
	})
}

func (m *Manager) logCapabilityCompletion(result *hub.AsyncResult) {
	success := result.Success
	code := result.ErrorCode
	m.logEvent(log.Event{
		Direction: log.DirectionIn,
		Layer:     log.LayerService,
		Category:  log.CategoryCapability,
		Capability: &log.CapabilityEvent{
			Kind:        log.CapabilityCompletion,
			RequestType: result.RequestType,
			Cookie:      result.Cookie,
			Success:     &success,
			ErrorCode:   &code,
		},
	})
}

func (m *Manager) logError(layer log.Layer, message, context string, code *int) {
	m.logEvent(log.Event{
		Direction: log.DirectionIn,
		Layer:     layer,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: message,
			Code:    code,
			Context: context,
		},
	})
}

func intPtr(v int) *int { return &v }
