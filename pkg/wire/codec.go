package wire

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Codec errors.
var (
	// ErrDecode indicates a payload could not be decoded. Decoding is
	// all-or-nothing: no partially decoded value is ever returned.
	ErrDecode = errors.New("decode failed")

	// ErrInvalidStep indicates a step value outside INIT..VALIDATE.
	ErrInvalidStep = errors.New("invalid step")

	// ErrInvalidCode indicates a result code other than PASSED or FAILED.
	ErrInvalidCode = errors.New("invalid result code")

	// ErrShortBuffer indicates the destination buffer is smaller than the
	// encoded message.
	ErrShortBuffer = errors.New("buffer too small for encoded message")
)

// EncOptions returns the encoder options for protocol messages:
// deterministic encoding with definite lengths.
func EncOptions() cbor.EncOptions {
	return cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
}

// DecOptions returns the decoder options for protocol messages.
// Duplicate keys are tolerated, last wins.
func DecOptions() cbor.DecOptions {
	return cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = EncOptions().EncMode(); err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}
	if decMode, err = DecOptions().DecMode(); err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder creates a new CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a new CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// EncodeStepStartCommand encodes a step start command to CBOR bytes.
func EncodeStepStartCommand(cmd *StepStartCommand) ([]byte, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	return Marshal(cmd)
}

// DecodeStepStartCommand decodes CBOR bytes into a step start command.
// Empty, truncated, or trailing-garbage input, a missing step key, and an
// unknown step value all fail with ErrDecode.
func DecodeStepStartCommand(data []byte) (*StepStartCommand, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty StepStartCommand", ErrDecode)
	}
	var w stepStartWire
	if err := Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: StepStartCommand: %v", ErrDecode, err)
	}
	if w.Step == nil {
		return nil, fmt.Errorf("%w: StepStartCommand: missing step", ErrDecode)
	}
	cmd := &StepStartCommand{Step: *w.Step}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("%w: StepStartCommand: %w", ErrDecode, err)
	}
	return cmd, nil
}

// EncodedSize returns the exact number of bytes EncodeTestResultInto
// writes for r.
func EncodedSize(r *TestResult) int {
	pairs := uint64(1)
	n := headSize(uint64(KeyCode)) + headSize(uint64(r.Code))
	if r.ErrorMessage != "" {
		pairs++
		msgLen := len(r.ErrorMessage)
		n += headSize(uint64(KeyErrorMessage)) + headSize(uint64(msgLen)) + msgLen
	}
	return headSize(pairs) + n
}

// headSize is the size of a CBOR data item head carrying argument v.
func headSize(v uint64) int {
	switch {
	case v < 24:
		return 1
	case v <= 0xff:
		return 2
	case v <= 0xffff:
		return 3
	case v <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// EncodeTestResultInto encodes r into buf and returns the number of bytes
// written. buf must hold at least EncodedSize(r) bytes.
func EncodeTestResultInto(buf []byte, r *TestResult) (int, error) {
	if err := r.Validate(); err != nil {
		return 0, fmt.Errorf("invalid result: %w", err)
	}
	w := &fixedWriter{buf: buf}
	if err := encMode.NewEncoder(w).Encode(r); err != nil {
		return 0, fmt.Errorf("failed to encode result: %w", err)
	}
	return w.n, nil
}

// EncodeTestResult encodes r into a newly allocated buffer of exactly
// EncodedSize(r) bytes.
func EncodeTestResult(r *TestResult) ([]byte, error) {
	buf := make([]byte, EncodedSize(r))
	n, err := EncodeTestResultInto(buf, r)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// resultWire is the decode-side view of TestResult.
type resultWire struct {
	Code         *Code  `cbor:"1,keyasint"`
	ErrorMessage string `cbor:"2,keyasint,omitempty"`
}

// DecodeTestResult decodes CBOR bytes into a test result.
func DecodeTestResult(data []byte) (*TestResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty TestResult", ErrDecode)
	}
	var w resultWire
	if err := Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: TestResult: %v", ErrDecode, err)
	}
	if w.Code == nil {
		return nil, fmt.Errorf("%w: TestResult: missing code", ErrDecode)
	}
	r := &TestResult{Code: *w.Code, ErrorMessage: w.ErrorMessage}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: TestResult: %w", ErrDecode, err)
	}
	return r, nil
}

// fixedWriter writes into a caller-provided buffer and never grows it.
type fixedWriter struct {
	buf []byte
	n   int
}

func (w *fixedWriter) Write(p []byte) (int, error) {
	if len(p) > len(w.buf)-w.n {
		return 0, ErrShortBuffer
	}
	w.n += copy(w.buf[w.n:], p)
	return len(p), nil
}
