package commands

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/crossval-go/internal/agent"
	"github.com/mash-protocol/crossval-go/internal/config"
	"github.com/mash-protocol/crossval-go/pkg/transport"
)

func newTestConsole(t *testing.T, mutate func(*config.Config)) (*Console, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Listen = "127.0.0.1:0"
	cfg.Wifi.Delay = 5 * time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}

	a, err := agent.New(agent.Options{Config: cfg})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Start(ctx))
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	client, err := transport.Dial(context.Background(), a.Addr().String(), transport.ClientConfig{HostEndpoint: 2})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	var out bytes.Buffer
	return NewConsole(client, &out, 200*time.Millisecond), &out
}

func TestConsoleSetup(t *testing.T) {
	c, out := newTestConsole(t, nil)

	quit, err := c.Execute("setup")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Contains(t, out.String(), "-> STEP_START SETUP (endpoint 2)")
	assert.Contains(t, out.String(), "<- STEP_RESULT PASSED")
}

func TestConsoleSetupAsyncFailure(t *testing.T) {
	c, out := newTestConsole(t, func(cfg *config.Config) {
		cfg.Wifi.FailAsync = true
		cfg.Wifi.ErrorCode = 4
	})

	_, err := c.Execute("setup")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "<- STEP_RESULT FAILED")
	assert.Contains(t, out.String(), "error code 4")
}

func TestConsoleStepsWithoutReply(t *testing.T) {
	for _, line := range []string{"init", "validate", "step 9", "raw 7 a10101", "raw 1 ff"} {
		t.Run(line, func(t *testing.T) {
			c, out := newTestConsole(t, nil)

			_, err := c.Execute(line)
			require.NoError(t, err)
			assert.Contains(t, out.String(), "<- (no result within")
		})
	}
}

func TestConsoleInitReported(t *testing.T) {
	c, out := newTestConsole(t, func(cfg *config.Config) {
		cfg.ReportInternalFailures = true
	})

	_, err := c.Execute("init")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "<- STEP_RESULT FAILED")
}

func TestConsoleRawStepStart(t *testing.T) {
	c, out := newTestConsole(t, nil)

	_, err := c.Execute("raw 1 a10101")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "-> STEP_START a10101")
	assert.Contains(t, out.String(), "<- STEP_RESULT PASSED")
}

func TestConsoleCommands(t *testing.T) {
	c, out := newTestConsole(t, nil)

	quit, err := c.Execute("")
	assert.NoError(t, err)
	assert.False(t, quit)

	_, err = c.Execute("help")
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Commands:")

	_, err = c.Execute("bogus")
	assert.Error(t, err)

	_, err = c.Execute("step")
	assert.Error(t, err)

	_, err = c.Execute("step 300")
	assert.Error(t, err)

	_, err = c.Execute("raw 1 zz")
	assert.Error(t, err)

	quit, err = c.Execute("quit")
	assert.NoError(t, err)
	assert.True(t, quit)
}
