package log

// runLogger stamps a run ID on events that carry none.
type runLogger struct {
	next  Logger
	runID string
}

// WithRunID returns a Logger that sets RunID on events without one before
// passing them to next. A nil next yields nil.
func WithRunID(next Logger, runID string) Logger {
	if next == nil {
		return nil
	}
	return &runLogger{next: next, runID: runID}
}

func (l *runLogger) Log(event Event) {
	if event.RunID == "" {
		event.RunID = l.runID
	}
	l.next.Log(event)
}
