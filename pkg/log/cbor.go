package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/mash-protocol/crossval-go/pkg/wire"
)

// Log events share the protocol's canonical encoding, except timestamps,
// which are written as RFC 3339 strings with nanoseconds so .clog files
// stay readable with generic CBOR tools.
var (
	logEncMode = newLogEncMode()
	logDecMode = newLogDecMode()
)

func newLogEncMode() cbor.EncMode {
	opts := wire.EncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create log CBOR encoder mode: %v", err))
	}
	return mode
}

func newLogDecMode() cbor.DecMode {
	mode, err := wire.DecOptions().DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create log CBOR decoder mode: %v", err))
	}
	return mode
}

// EncodeEvent encodes an Event to CBOR bytes.
func EncodeEvent(event Event) ([]byte, error) {
	return logEncMode.Marshal(event)
}

// DecodeEvent decodes a single CBOR-encoded Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := logDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("decode log event: %w", err)
	}
	return event, nil
}

// NewEncoder returns a stream encoder for log events.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return logEncMode.NewEncoder(w)
}

// NewDecoder returns a stream decoder for log events.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return logDecMode.NewDecoder(r)
}
