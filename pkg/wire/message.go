package wire

import (
	"fmt"
)

// CBOR map keys.
const (
	// StepStartCommand keys
	KeyStep = 1

	// TestResult keys
	KeyCode         = 1
	KeyErrorMessage = 2
)

// MessageType tags a message exchanged between the host and the agent.
// The transport carries it alongside the encoded payload.
type MessageType uint32

const (
	// MessageTypeUndefined is never sent.
	MessageTypeUndefined MessageType = 0

	// MessageTypeStepStart is sent by the host to start a step.
	MessageTypeStepStart MessageType = 1

	// MessageTypeStepResult is sent by the agent with the outcome of a step.
	MessageTypeStepResult MessageType = 2
)

// String returns the message type name.
func (t MessageType) String() string {
	switch t {
	case MessageTypeUndefined:
		return "UNDEFINED"
	case MessageTypeStepStart:
		return "STEP_START"
	case MessageTypeStepResult:
		return "STEP_RESULT"
	default:
		return "UNKNOWN"
	}
}

// StepStartCommand asks the agent to begin a protocol step.
//
// CBOR encoding:
//
//	{
//	  1: step  // uint8: 0=INIT, 1=SETUP, 2=VALIDATE
//	}
type StepStartCommand struct {
	Step Step `cbor:"1,keyasint"`
}

// Validate checks if the command is valid.
func (c *StepStartCommand) Validate() error {
	if !c.Step.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, c.Step)
	}
	return nil
}

// stepStartWire is the decode-side view of StepStartCommand. The pointer
// distinguishes an absent step key from an explicit INIT.
type stepStartWire struct {
	Step *Step `cbor:"1,keyasint"`
}
