package wifi

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mash-protocol/crossval-go/pkg/hub"
)

// Simulator errors.
var (
	// ErrBusy indicates a request is already outstanding.
	ErrBusy = errors.New("wifi request already outstanding")

	// ErrRejected indicates the simulator is configured to refuse requests.
	ErrRejected = errors.New("wifi request rejected")

	// ErrNoPoster indicates NewSimulator was given no event poster.
	ErrNoPoster = errors.New("event poster is required")

	// ErrClosed indicates the simulator has been closed.
	ErrClosed = errors.New("simulator closed")
)

// DefaultDelay is the default time from request to completion event.
const DefaultDelay = 100 * time.Millisecond

// Behavior controls how the simulator answers requests.
type Behavior struct {
	// Delay before the completion event is posted.
	Delay time.Duration

	// RejectRequests makes ConfigureScanMonitorAsync fail synchronously.
	RejectRequests bool

	// FailAsync makes accepted requests complete with Success=false.
	FailAsync bool

	// ErrorCode is reported with failed completions
	// (default: hub.ErrorGeneric).
	ErrorCode uint8
}

// DefaultBehavior returns a behavior that accepts every request and
// completes it successfully after DefaultDelay.
func DefaultBehavior() Behavior {
	return Behavior{Delay: DefaultDelay}
}

// Simulator implements hub.WifiCapability. Accepted requests complete on a
// timer goroutine by posting an EventWifiAsyncResult, so completions reach
// the agent through the same queue as host messages.
type Simulator struct {
	mu       sync.Mutex
	poster   hub.EventPoster
	behavior Behavior
	logger   *slog.Logger

	pending  *time.Timer
	enabled  bool
	requests int
	closed   bool
}

// NewSimulator creates a simulator that posts completions to poster.
func NewSimulator(poster hub.EventPoster, behavior Behavior, logger *slog.Logger) (*Simulator, error) {
	if poster == nil {
		return nil, ErrNoPoster
	}
	return &Simulator{
		poster:   poster,
		behavior: behavior,
		logger:   logger,
	}, nil
}

// ConfigureScanMonitorAsync implements hub.WifiCapability.
func (s *Simulator) ConfigureScanMonitorAsync(enable bool, cookie uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.behavior.RejectRequests {
		s.debugLog("rejecting scan monitor request", "enable", enable)
		return ErrRejected
	}
	if s.pending != nil {
		return ErrBusy
	}

	s.requests++
	s.pending = time.AfterFunc(s.behavior.Delay, func() {
		s.complete(enable, cookie)
	})
	s.debugLog("scan monitor request accepted", "enable", enable, "cookie", cookie, "delay", s.behavior.Delay)
	return nil
}

func (s *Simulator) complete(enable bool, cookie uint32) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = nil

	result := &hub.AsyncResult{
		RequestType: hub.WifiRequestTypeConfigureScanMonitor,
		Success:     !s.behavior.FailAsync,
		ErrorCode:   hub.ErrorNone,
		Cookie:      cookie,
	}
	if result.Success {
		s.enabled = enable
	} else {
		result.ErrorCode = s.behavior.ErrorCode
		if result.ErrorCode == hub.ErrorNone {
			result.ErrorCode = hub.ErrorGeneric
		}
	}
	s.mu.Unlock()

	err := s.poster.Post(hub.Event{
		SenderInstanceID: hub.SystemInstanceID,
		Type:             hub.EventWifiAsyncResult,
		Data:             result,
	})
	if err != nil && s.logger != nil {
		s.logger.Error("could not post scan monitor completion", "error", err)
	}
}

// SetBehavior replaces the behavior for subsequent requests.
func (s *Simulator) SetBehavior(b Behavior) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.behavior = b
}

// Behavior returns the current behavior.
func (s *Simulator) Behavior() Behavior {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.behavior
}

// ScanMonitorEnabled reports whether scan monitoring is on.
func (s *Simulator) ScanMonitorEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Requests returns the number of accepted requests.
func (s *Simulator) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Close cancels any outstanding completion. Later requests fail with
// ErrClosed.
func (s *Simulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

func (s *Simulator) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// Compile-time interface satisfaction check.
var _ hub.WifiCapability = (*Simulator)(nil)
