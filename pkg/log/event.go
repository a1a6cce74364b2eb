package log

import (
	"time"

	"github.com/mash-protocol/crossval-go/pkg/wire"
)

// Event is a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID identifies the agent run (UUID).
	RunID string `cbor:"2,keyasint"`

	// Direction indicates message flow relative to the agent.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// HostEndpoint is the host session the event relates to, if known.
	HostEndpoint *uint16 `cbor:"6,keyasint,omitempty"`

	// ConnectionID identifies the host link connection for transport events.
	ConnectionID string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Capability  *CapabilityEvent  `cbor:"13,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an event arriving at the agent.
	DirectionIn Direction = 0
	// DirectionOut indicates an event leaving the agent.
	DirectionOut Direction = 1
	// DirectionInternal indicates an event that never crosses the agent
	// boundary, such as a result that is built but not transmitted.
	DirectionInternal Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the message encoding layer (decoded CBOR).
	LayerWire Layer = 1
	// LayerService is the step state machine.
	LayerService Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	CategoryMessage    Category = 0
	CategoryCapability Category = 1
	CategoryState      Category = 2
	CategoryError      Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryCapability:
		return "CAPABILITY"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded protocol message.
type MessageEvent struct {
	// Type is the protocol message type.
	Type wire.MessageType `cbor:"1,keyasint"`

	// Step is set for STEP_START commands.
	Step *wire.Step `cbor:"2,keyasint,omitempty"`

	// Code is set for STEP_RESULT messages.
	Code *wire.Code `cbor:"3,keyasint,omitempty"`

	// ErrorMessage is the diagnostic of a FAILED result.
	ErrorMessage string `cbor:"4,keyasint,omitempty"`

	// Size is the encoded payload size in bytes.
	Size int `cbor:"5,keyasint,omitempty"`

	// Suppressed marks a result that was built but deliberately not
	// transmitted.
	Suppressed bool `cbor:"6,keyasint,omitempty"`
}

// StateChangeEvent captures step machine transitions.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityStep is the current protocol step.
	StateEntityStep StateEntity = 0
	// StateEntitySetupRequest is the outstanding scan monitor request.
	StateEntitySetupRequest StateEntity = 1
	// StateEntityHostLink is the transport connection to the host.
	StateEntityHostLink StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityStep:
		return "STEP"
	case StateEntitySetupRequest:
		return "SETUP_REQUEST"
	case StateEntityHostLink:
		return "HOST_LINK"
	default:
		return "UNKNOWN"
	}
}

// CapabilityEvent captures WiFi capability traffic.
type CapabilityEvent struct {
	// Kind distinguishes a request from its completion.
	Kind CapabilityKind `cbor:"1,keyasint"`

	// RequestType is the WiFi request type.
	RequestType uint8 `cbor:"2,keyasint"`

	// Cookie is the correlation value passed with the request.
	Cookie uint32 `cbor:"3,keyasint,omitempty"`

	// Success is set for completions and for rejected submissions.
	Success *bool `cbor:"4,keyasint,omitempty"`

	// ErrorCode is the capability error code of a completion.
	ErrorCode *uint8 `cbor:"5,keyasint,omitempty"`
}

// CapabilityKind indicates request or completion.
type CapabilityKind uint8

const (
	CapabilityRequest    CapabilityKind = 0
	CapabilityCompletion CapabilityKind = 1
)

// String returns the capability kind name.
func (k CapabilityKind) String() string {
	switch k {
	case CapabilityRequest:
		return "REQUEST"
	case CapabilityCompletion:
		return "COMPLETION"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
