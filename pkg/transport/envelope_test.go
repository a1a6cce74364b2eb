package transport

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		frame HostFrame
	}{
		{name: "step start", frame: HostFrame{HostEndpoint: 5, MessageType: 1, Message: []byte{0xa1, 0x01, 0x01}}},
		{name: "no payload", frame: HostFrame{HostEndpoint: 0xffff, MessageType: 2}},
		{name: "large type", frame: HostFrame{HostEndpoint: 1, MessageType: 0xfffffff0, Message: []byte{0x00}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeHostFrame(&tt.frame)
			require.NoError(t, err)

			got, err := DecodeHostFrame(data)
			require.NoError(t, err)
			assert.Equal(t, tt.frame, *got)
		})
	}
}

func TestHostFrameEncoding(t *testing.T) {
	data, err := EncodeHostFrame(&HostFrame{HostEndpoint: 7, MessageType: 2, Message: []byte{0xa1, 0x01, 0x00}})
	require.NoError(t, err)
	assert.Equal(t, "a3010702020343a10100", hex.EncodeToString(data))
}

func TestDecodeHostFrameInvalid(t *testing.T) {
	for _, h := range []string{
		"",                   // empty
		"ff",                 // garbage
		"a0",                 // no fields
		"a10107",             // missing type
		"a10201",             // missing endpoint
		"a2011901",           // truncated
		"a2011a000100000201", // endpoint overflows uint16
	} {
		data, _ := hex.DecodeString(h)
		_, err := DecodeHostFrame(data)
		assert.ErrorIs(t, err, ErrInvalidEnvelope, "input %q", h)
	}
}
