package wire

import (
	"errors"
	"fmt"
)

// Code is the outcome of a test step.
type Code uint8

const (
	// CodePassed indicates the step succeeded.
	CodePassed Code = 0

	// CodeFailed indicates the step failed. The result may carry a
	// diagnostic message.
	CodeFailed Code = 1
)

// String returns the code name.
func (c Code) String() string {
	switch c {
	case CodePassed:
		return "PASSED"
	case CodeFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true if the code is PASSED or FAILED.
func (c Code) IsValid() bool {
	return c == CodePassed || c == CodeFailed
}

// TestResult reports the outcome of a step to the host.
//
// CBOR encoding:
//
//	{
//	  1: code,         // uint8: 0=PASSED, 1=FAILED
//	  2: errorMessage  // string, only when code=FAILED
//	}
type TestResult struct {
	Code         Code   `cbor:"1,keyasint"`
	ErrorMessage string `cbor:"2,keyasint,omitempty"`
}

// Passed returns a PASSED result.
func Passed() *TestResult {
	return &TestResult{Code: CodePassed}
}

// Failed returns a FAILED result with the given diagnostic message.
// An empty message leaves the field absent on the wire.
func Failed(message string) *TestResult {
	return &TestResult{Code: CodeFailed, ErrorMessage: message}
}

// Failedf returns a FAILED result with a formatted diagnostic message.
func Failedf(format string, args ...any) *TestResult {
	return Failed(fmt.Sprintf(format, args...))
}

// NewTestResult returns PASSED when success is true and FAILED with
// message otherwise. The message is dropped for a passing result.
func NewTestResult(success bool, message string) *TestResult {
	if success {
		return Passed()
	}
	return Failed(message)
}

// IsPassed returns true if the result code is PASSED.
func (r *TestResult) IsPassed() bool {
	return r.Code == CodePassed
}

// Validate checks if the result is well formed.
func (r *TestResult) Validate() error {
	if !r.Code.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidCode, r.Code)
	}
	if r.Code == CodePassed && r.ErrorMessage != "" {
		return errors.New("error message set on PASSED result")
	}
	return nil
}

// String returns a short human-readable form of the result.
func (r *TestResult) String() string {
	if r.ErrorMessage == "" {
		return r.Code.String()
	}
	return fmt.Sprintf("%s: %s", r.Code, r.ErrorMessage)
}
