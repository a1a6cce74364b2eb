package log

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/crossval-go/pkg/wire"
)

func decodeAll(t *testing.T, path string) []Event {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	decoder := NewDecoder(bytes.NewReader(data))
	var events []Event
	for {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			break
		}
		events = append(events, event)
	}
	return events
}

func TestFileLoggerWritesCBOR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run"+FileExtension)

	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	step := wire.StepSetup
	logger.Log(Event{
		Timestamp: time.Now(),
		RunID:     "run-123",
		Direction: DirectionIn,
		Layer:     LayerWire,
		Category:  CategoryMessage,
		Message:   &MessageEvent{Type: wire.MessageTypeStepStart, Step: &step},
	})
	require.NoError(t, logger.Close())

	events := decodeAll(t, path)
	require.Len(t, events, 1)
	assert.Equal(t, "run-123", events[0].RunID)
	require.NotNil(t, events[0].Message)
	require.NotNil(t, events[0].Message.Step)
	assert.Equal(t, wire.StepSetup, *events[0].Message.Step)
	assert.Equal(t, 0, logger.WriteErrors())
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run"+FileExtension)

	for _, id := range []string{"run-1", "run-2"} {
		logger, err := NewFileLogger(path)
		require.NoError(t, err)
		logger.Log(Event{Timestamp: time.Now(), RunID: id, Category: CategoryState})
		require.NoError(t, logger.Close())
	}

	events := decodeAll(t, path)
	require.Len(t, events, 2)
	assert.Equal(t, "run-1", events[0].RunID)
	assert.Equal(t, "run-2", events[1].RunID)
}

func TestFileLoggerThreadSafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run"+FileExtension)

	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	const numGoroutines = 10
	const eventsPerGoroutine = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				logger.Log(Event{Timestamp: time.Now(), RunID: "run", Layer: LayerTransport})
			}
		}()
	}
	wg.Wait()
	require.NoError(t, logger.Close())

	assert.Len(t, decodeAll(t, path), numGoroutines*eventsPerGoroutine)
}

func TestFileLoggerClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run"+FileExtension)

	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	logger.Log(Event{Timestamp: time.Now(), RunID: "before"})
	assert.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())

	// Dropped silently.
	logger.Log(Event{Timestamp: time.Now(), RunID: "after"})

	events := decodeAll(t, path)
	require.Len(t, events, 1)
	assert.Equal(t, "before", events[0].RunID)
}

func TestEncodeDecodeEventPreservesTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC)
	data, err := EncodeEvent(Event{Timestamp: ts, RunID: "r"})
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.True(t, decoded.Timestamp.Equal(ts), "got %v, want %v", decoded.Timestamp, ts)
}
