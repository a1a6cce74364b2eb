// Package log provides structured protocol capture for the cross-validation
// agent.
//
// This package defines the Logger interface and Event types for recording
// what the agent saw and did: host messages in and out, step transitions,
// WiFi capability requests and completions, and errors. It is separate from
// operational logging (slog); protocol capture is a machine-readable trace
// that can be replayed against the host's own record of a test run.
//
// # Basic Usage
//
//	// Development: protocol events on the console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Test lab: binary file per run
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/crossval/run.clog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(console, file)
//
// # Event Types
//
//   - Transport: raw frame bytes (FrameEvent)
//   - Wire: decoded step commands and results (MessageEvent)
//   - Service: step transitions (StateChangeEvent) and capability traffic
//     (CapabilityEvent)
//
// Errors at any layer use ErrorEventData.
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .clog extension.
// `crossval-agent log view` prints them.
package log
