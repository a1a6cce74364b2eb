package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Event loop errors.
var (
	ErrQueueFull   = errors.New("event queue full")
	ErrLoopStopped = errors.New("event loop stopped")
)

// DefaultQueueSize is the default EventLoop queue capacity.
const DefaultQueueSize = 32

// EventLoop delivers queued events to a single handler, one at a time and
// in posting order. Post is safe for concurrent use; the handler only ever
// runs on the goroutine that called Run.
type EventLoop struct {
	queue  chan Event
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// NewEventLoop creates an event loop with the given queue capacity.
// A non-positive size selects DefaultQueueSize. logger may be nil.
func NewEventLoop(queueSize int, logger *slog.Logger) *EventLoop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &EventLoop{
		queue:  make(chan Event, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post queues an event without blocking.
func (l *EventLoop) Post(event Event) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}

	select {
	case l.queue <- event:
		return nil
	default:
		l.debugLog("Post: queue full, dropping event", "type", EventTypeName(event.Type))
		return ErrQueueFull
	}
}

// Run delivers events to handler until ctx is cancelled or Stop is called.
// It returns ctx.Err() on cancellation and nil after Stop.
func (l *EventLoop) Run(ctx context.Context, handler EventHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case ev := <-l.queue:
			handler.HandleEvent(ev.SenderInstanceID, ev.Type, ev.Data)
		}
	}
}

// Stop ends Run and rejects further posts. Queued events are discarded.
// It is safe to call Stop multiple times.
func (l *EventLoop) Stop() {
	l.once.Do(func() { close(l.done) })
}

// Pending returns the number of queued events.
func (l *EventLoop) Pending() int {
	return len(l.queue)
}

func (l *EventLoop) debugLog(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

// Compile-time interface satisfaction check.
var _ EventPoster = (*EventLoop)(nil)
