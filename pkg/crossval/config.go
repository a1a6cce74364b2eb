package crossval

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mash-protocol/crossval-go/pkg/hub"
	"github.com/mash-protocol/crossval-go/pkg/log"
)

// Config configures a Manager.
type Config struct {
	// TrustedSenderID is the only sender instance ID whose host messages
	// are accepted (default: hub.SystemInstanceID).
	TrustedSenderID uint32

	// ReportInternalFailures transmits the two failure results that are
	// otherwise only recorded locally: an INIT step command and a
	// completion event of an unexpected request type.
	ReportInternalFailures bool

	// Allocator provides outbound buffers. If nil, a HeapAllocator with
	// hub.DefaultHeapLimit is used.
	Allocator hub.Allocator

	// RunID tags protocol log events. Must be a UUID; if empty, a random
	// one is used.
	RunID string

	// Logger is the optional logger for operational output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger is the optional protocol capture sink.
	ProtocolLogger log.Logger
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		TrustedSenderID: hub.SystemInstanceID,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.RunID != "" {
		if _, err := uuid.Parse(c.RunID); err != nil {
			return fmt.Errorf("%w: run id %q: %v", ErrInvalidConfig, c.RunID, err)
		}
	}
	return nil
}

// withDefaults fills in unset optional fields.
func (c Config) withDefaults() Config {
	if c.Allocator == nil {
		c.Allocator = hub.NewHeapAllocator(hub.DefaultHeapLimit)
	}
	if c.RunID == "" {
		c.RunID = uuid.NewString()
	}
	return c
}
