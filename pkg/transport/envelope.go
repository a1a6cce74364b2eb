package transport

import (
	"errors"
	"fmt"

	"github.com/mash-protocol/crossval-go/pkg/wire"
)

// ErrInvalidEnvelope indicates a frame that does not hold a HostFrame.
var ErrInvalidEnvelope = errors.New("invalid host frame")

// HostFrame is the envelope of every frame on a host link.
//
// CBOR encoding:
//
//	{
//	  1: hostEndpoint,  // uint16
//	  2: messageType,   // uint32
//	  3: message        // bytes, may be absent
//	}
type HostFrame struct {
	HostEndpoint uint16 `cbor:"1,keyasint"`
	MessageType  uint32 `cbor:"2,keyasint"`
	Message      []byte `cbor:"3,keyasint,omitempty"`
}

type hostFrameWire struct {
	HostEndpoint *uint16 `cbor:"1,keyasint"`
	MessageType  *uint32 `cbor:"2,keyasint"`
	Message      []byte  `cbor:"3,keyasint,omitempty"`
}

// EncodeHostFrame encodes f to CBOR bytes.
func EncodeHostFrame(f *HostFrame) ([]byte, error) {
	return wire.Marshal(f)
}

// DecodeHostFrame decodes CBOR bytes into a HostFrame. The endpoint and
// message type are required.
func DecodeHostFrame(data []byte) (*HostFrame, error) {
	var w hostFrameWire
	if err := wire.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if w.HostEndpoint == nil {
		return nil, fmt.Errorf("%w: missing host endpoint", ErrInvalidEnvelope)
	}
	if w.MessageType == nil {
		return nil, fmt.Errorf("%w: missing message type", ErrInvalidEnvelope)
	}
	return &HostFrame{
		HostEndpoint: *w.HostEndpoint,
		MessageType:  *w.MessageType,
		Message:      w.Message,
	}, nil
}
