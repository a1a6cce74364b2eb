package log

// Logger receives protocol log events.
// Pass nil or NoopLogger to disable protocol capture.
type Logger interface {
	// Log records a protocol event. Implementations must be safe for
	// concurrent use: the agent logs from its event loop while transports
	// log frames from their own goroutines.
	Log(event Event)
}

// NoopLogger discards all events. Usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
