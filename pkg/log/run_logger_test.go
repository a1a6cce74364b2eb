package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithRunID(t *testing.T) {
	sink := &recordingLogger{}
	l := WithRunID(sink, "run-a")

	l.Log(Event{Layer: LayerTransport})
	l.Log(Event{RunID: "run-b"})

	assert.Equal(t, "run-a", sink.events[0].RunID)
	assert.Equal(t, "run-b", sink.events[1].RunID)
	assert.Nil(t, WithRunID(nil, "run-a"))
}
