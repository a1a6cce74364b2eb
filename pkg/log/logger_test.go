package log

import (
	"testing"
	"time"
)

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	logger := NoopLogger{}

	event := Event{
		Timestamp: time.Now(),
		RunID:     "run-1",
		Direction: DirectionIn,
		Layer:     LayerWire,
		Category:  CategoryMessage,
	}
	logger.Log(event)

	event.Message = &MessageEvent{Type: 1}
	logger.Log(event)

	event.Message = nil
	event.Capability = &CapabilityEvent{Kind: CapabilityRequest, RequestType: 1}
	logger.Log(event)

	event.Capability = nil
	event.Error = &ErrorEventData{Message: "test error"}
	logger.Log(event)
}

func TestNoopLoggerIsZeroValue(t *testing.T) {
	var logger NoopLogger
	logger.Log(Event{})

	var _ Logger = NoopLogger{}
	var _ Logger = &NoopLogger{}
}
