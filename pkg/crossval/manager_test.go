package crossval

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/crossval-go/pkg/hub"
	"github.com/mash-protocol/crossval-go/pkg/log"
	"github.com/mash-protocol/crossval-go/pkg/wire"
)

// ---------------------------------------------------------------------------
// stubTransport
// ---------------------------------------------------------------------------

// stubTransport records a copy of each payload and, like a real transport,
// releases the buffer once it accepts it.
type stubTransport struct{ mock.Mock }

func (s *stubTransport) SendMessageToHost(data []byte, messageType uint32, hostEndpoint uint16, release hub.ReleaseFunc) error {
	ret := s.Called(append([]byte(nil), data...), messageType, hostEndpoint)
	if err := ret.Error(0); err != nil {
		return err
	}
	release(data)
	return nil
}

// ---------------------------------------------------------------------------
// stubWifi
// ---------------------------------------------------------------------------

type stubWifi struct{ mock.Mock }

func (s *stubWifi) ConfigureScanMonitorAsync(enable bool, cookie uint32) error {
	return s.Called(enable, cookie).Error(0)
}

// ---------------------------------------------------------------------------
// recordingLogger
// ---------------------------------------------------------------------------

type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recordingLogger) Log(event log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingLogger) Events() []log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]log.Event(nil), r.events...)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

const testRunID = "5b3f2c4e-8d1a-4f6b-9c2e-7a1d3e5f9b20"

type fixture struct {
	m     *Manager
	tr    *stubTransport
	wifi  *stubWifi
	alloc *hub.HeapAllocator
	plog  *recordingLogger
}

func newFixture(t *testing.T, mutate func(*Config)) *fixture {
	t.Helper()
	f := &fixture{
		tr:    &stubTransport{},
		wifi:  &stubWifi{},
		alloc: hub.NewHeapAllocator(hub.DefaultHeapLimit),
		plog:  &recordingLogger{},
	}
	cfg := DefaultConfig()
	cfg.Allocator = f.alloc
	cfg.RunID = testRunID
	cfg.ProtocolLogger = f.plog
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := NewManager(f.tr, f.wifi, cfg)
	require.NoError(t, err)
	f.m = m
	return f
}

func stepStart(t *testing.T, endpoint uint16, step wire.Step) *hub.MessageFromHost {
	t.Helper()
	data, err := wire.EncodeStepStartCommand(&wire.StepStartCommand{Step: step})
	require.NoError(t, err)
	return &hub.MessageFromHost{
		HostEndpoint: endpoint,
		MessageType:  uint32(wire.MessageTypeStepStart),
		Message:      data,
	}
}

func encoded(t *testing.T, r *wire.TestResult) []byte {
	t.Helper()
	data, err := wire.EncodeTestResult(r)
	require.NoError(t, err)
	return data
}

func (f *fixture) host(msg *hub.MessageFromHost) {
	f.m.HandleEvent(hub.SystemInstanceID, hub.EventMessageFromHost, msg)
}

func (f *fixture) complete(success bool, code uint8) {
	f.m.HandleEvent(hub.SystemInstanceID, hub.EventWifiAsyncResult, &hub.AsyncResult{
		RequestType: hub.WifiRequestTypeConfigureScanMonitor,
		Success:     success,
		ErrorCode:   code,
		Cookie:      ScanMonitoringCookie,
	})
}

func (f *fixture) expectResult(t *testing.T, r *wire.TestResult, endpoint uint16) {
	t.Helper()
	f.tr.On("SendMessageToHost", encoded(t, r), uint32(wire.MessageTypeStepResult), endpoint).Return(nil).Once()
}

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func TestNewManagerRequiresDependencies(t *testing.T) {
	_, err := NewManager(nil, &stubWifi{}, DefaultConfig())
	assert.ErrorIs(t, err, ErrNoTransport)

	_, err = NewManager(&stubTransport{}, nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNoWifi)
}

func TestNewManagerDefaults(t *testing.T) {
	m, err := NewManager(&stubTransport{}, &stubWifi{}, Config{})
	require.NoError(t, err)

	assert.Equal(t, State{Step: wire.StepInit}, m.State())
	assert.NotEmpty(t, m.RunID())
	assert.Equal(t, Stats{}, m.Stats())
}

func TestNewManagerRejectsInvalidRunID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RunID = "not-a-uuid"

	_, err := NewManager(&stubTransport{}, &stubWifi{}, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestUntrustedSenderIgnored(t *testing.T) {
	f := newFixture(t, nil)

	f.m.HandleEvent(42, hub.EventMessageFromHost, stepStart(t, 9, wire.StepSetup))

	f.tr.AssertNotCalled(t, "SendMessageToHost", mock.Anything, mock.Anything, mock.Anything)
	f.wifi.AssertNotCalled(t, "ConfigureScanMonitorAsync", mock.Anything, mock.Anything)
	assert.Equal(t, State{Step: wire.StepInit}, f.m.State())
	assert.Equal(t, 1, f.m.Stats().EventsDropped)
}

func TestCustomTrustedSender(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.TrustedSenderID = 7 })

	f.host(stepStart(t, 3, wire.StepValidate))
	assert.Equal(t, wire.StepInit, f.m.State().Step)

	f.m.HandleEvent(7, hub.EventMessageFromHost, stepStart(t, 3, wire.StepValidate))
	assert.Equal(t, wire.StepValidate, f.m.State().Step)
}

func TestSetupSubmissionFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.wifi.On("ConfigureScanMonitorAsync", true, uint32(0)).Return(errors.New("rejected")).Once()
	f.expectResult(t, wire.Failed(MsgSetupFailed), 7)

	f.host(stepStart(t, 7, wire.StepSetup))

	f.tr.AssertExpectations(t)
	f.wifi.AssertExpectations(t)
	assert.Equal(t, State{HostEndpoint: 7, Step: wire.StepSetup}, f.m.State())
	assert.Equal(t, 1, f.m.Stats().ResultsSent)
}

func TestSetupAsyncSuccess(t *testing.T) {
	f := newFixture(t, nil)
	f.wifi.On("ConfigureScanMonitorAsync", true, ScanMonitoringCookie).Return(nil).Once()

	f.host(stepStart(t, 7, wire.StepSetup))

	// Accepted submissions report nothing until the completion arrives.
	f.tr.AssertNotCalled(t, "SendMessageToHost", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, State{HostEndpoint: 7, Step: wire.StepSetup, SetupInFlight: true}, f.m.State())

	f.expectResult(t, wire.Passed(), 7)
	f.complete(true, hub.ErrorNone)

	f.tr.AssertExpectations(t)
	f.wifi.AssertExpectations(t)
	assert.False(t, f.m.State().SetupInFlight)
	assert.Equal(t, 0, f.alloc.InUse())
}

func TestSetupAsyncFailureCarriesErrorCode(t *testing.T) {
	f := newFixture(t, nil)
	f.wifi.On("ConfigureScanMonitorAsync", true, ScanMonitoringCookie).Return(nil).Once()
	f.expectResult(t, wire.Failed("wifi scan monitoring setup failed async w/ error code 5"), 7)

	f.host(stepStart(t, 7, wire.StepSetup))
	f.complete(false, 5)

	f.tr.AssertExpectations(t)
}

func TestCompletionOutsideSetup(t *testing.T) {
	f := newFixture(t, nil)
	f.expectResult(t, wire.Failed(MsgResultNotInSetup), 0)

	f.complete(true, hub.ErrorNone)

	f.tr.AssertExpectations(t)
	assert.Equal(t, wire.StepInit, f.m.State().Step)
}

func TestCompletionAfterMovingToValidate(t *testing.T) {
	f := newFixture(t, nil)
	f.wifi.On("ConfigureScanMonitorAsync", true, ScanMonitoringCookie).Return(nil).Once()

	f.host(stepStart(t, 1, wire.StepSetup))
	f.host(stepStart(t, 2, wire.StepValidate))

	f.expectResult(t, wire.Failed(MsgResultNotInSetup), 2)
	f.complete(true, hub.ErrorNone)

	f.tr.AssertExpectations(t)
	assert.False(t, f.m.State().SetupInFlight)
}

func TestMalformedStepStart(t *testing.T) {
	f := newFixture(t, nil)

	for _, payload := range [][]byte{nil, {0xa1, 0x01}, {0xa1, 0x01, 0x05}, {0xff, 0xff}} {
		f.host(&hub.MessageFromHost{
			HostEndpoint: 4,
			MessageType:  uint32(wire.MessageTypeStepStart),
			Message:      payload,
		})
	}

	f.tr.AssertNotCalled(t, "SendMessageToHost", mock.Anything, mock.Anything, mock.Anything)
	f.wifi.AssertNotCalled(t, "ConfigureScanMonitorAsync", mock.Anything, mock.Anything)
	// The endpoint is recorded before the payload is inspected.
	assert.Equal(t, State{HostEndpoint: 4, Step: wire.StepInit}, f.m.State())
	assert.Equal(t, 4, f.m.Stats().EventsDropped)
}

func TestUnknownHostMessageType(t *testing.T) {
	f := newFixture(t, nil)

	f.host(&hub.MessageFromHost{HostEndpoint: 12, MessageType: 99, Message: []byte{0xa1, 0x01, 0x01}})

	f.tr.AssertNotCalled(t, "SendMessageToHost", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, State{HostEndpoint: 12, Step: wire.StepInit}, f.m.State())
	assert.Equal(t, 1, f.m.Stats().EventsDropped)
}

func TestInitStepSuppressedByDefault(t *testing.T) {
	f := newFixture(t, nil)

	f.host(stepStart(t, 3, wire.StepInit))

	f.tr.AssertNotCalled(t, "SendMessageToHost", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, wire.StepInit, f.m.State().Step)
	assert.Equal(t, 1, f.m.Stats().ResultsSuppressed)

	events := f.plog.Events()
	require.NotEmpty(t, events)
	var suppressed *log.MessageEvent
	for _, e := range events {
		if e.Message != nil && e.Message.Suppressed {
			suppressed = e.Message
			assert.Equal(t, log.DirectionInternal, e.Direction)
		}
	}
	require.NotNil(t, suppressed)
	assert.Equal(t, MsgInitStep, suppressed.ErrorMessage)
}

func TestInitStepReportedWhenEnabled(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.ReportInternalFailures = true })
	f.expectResult(t, wire.Failed(MsgInitStep), 3)

	f.host(stepStart(t, 3, wire.StepInit))

	f.tr.AssertExpectations(t)
	assert.Equal(t, 0, f.m.Stats().ResultsSuppressed)
}

func TestUnknownAsyncRequestType(t *testing.T) {
	result := &hub.AsyncResult{RequestType: hub.WifiRequestTypeRequestScan, Success: true}

	t.Run("suppressed", func(t *testing.T) {
		f := newFixture(t, nil)
		f.m.HandleEvent(hub.SystemInstanceID, hub.EventWifiAsyncResult, result)

		f.tr.AssertNotCalled(t, "SendMessageToHost", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, 1, f.m.Stats().ResultsSuppressed)
	})

	t.Run("reported", func(t *testing.T) {
		f := newFixture(t, func(c *Config) { c.ReportInternalFailures = true })
		f.expectResult(t, wire.Failed(MsgUnknownAsyncResult), 0)

		f.m.HandleEvent(hub.SystemInstanceID, hub.EventWifiAsyncResult, result)

		f.tr.AssertExpectations(t)
	})

	t.Run("does not clear in-flight setup", func(t *testing.T) {
		f := newFixture(t, nil)
		f.wifi.On("ConfigureScanMonitorAsync", true, ScanMonitoringCookie).Return(nil).Once()
		f.host(stepStart(t, 1, wire.StepSetup))

		f.m.HandleEvent(hub.SystemInstanceID, hub.EventWifiAsyncResult, result)

		assert.True(t, f.m.State().SetupInFlight)
	})
}

func TestValidateIsNoop(t *testing.T) {
	f := newFixture(t, nil)

	f.host(stepStart(t, 5, wire.StepValidate))

	f.tr.AssertNotCalled(t, "SendMessageToHost", mock.Anything, mock.Anything, mock.Anything)
	f.wifi.AssertNotCalled(t, "ConfigureScanMonitorAsync", mock.Anything, mock.Anything)
	assert.Equal(t, State{HostEndpoint: 5, Step: wire.StepValidate}, f.m.State())
}

func TestUnknownEventsDropped(t *testing.T) {
	f := newFixture(t, nil)

	f.m.HandleEvent(hub.SystemInstanceID, 0x0202, nil)
	f.m.HandleEvent(hub.SystemInstanceID, hub.EventMessageFromHost, &hub.AsyncResult{})
	f.m.HandleEvent(hub.SystemInstanceID, hub.EventWifiAsyncResult, stepStart(t, 1, wire.StepSetup))
	f.m.HandleEvent(hub.SystemInstanceID, hub.EventWifiAsyncResult, (*hub.AsyncResult)(nil))

	f.tr.AssertNotCalled(t, "SendMessageToHost", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, State{Step: wire.StepInit}, f.m.State())
	assert.Equal(t, 4, f.m.Stats().EventsDropped)
}

func TestSetupWhileInFlight(t *testing.T) {
	f := newFixture(t, nil)
	f.wifi.On("ConfigureScanMonitorAsync", true, ScanMonitoringCookie).Return(nil).Once()

	f.host(stepStart(t, 1, wire.StepSetup))

	f.expectResult(t, wire.Failed(MsgSetupInFlight), 2)
	f.host(stepStart(t, 2, wire.StepSetup))
	f.tr.AssertExpectations(t)
	f.wifi.AssertNumberOfCalls(t, "ConfigureScanMonitorAsync", 1)
	assert.True(t, f.m.State().SetupInFlight)

	// The completion clears the marker and a new SETUP resubmits.
	f.expectResult(t, wire.Passed(), 2)
	f.complete(true, hub.ErrorNone)

	f.wifi.On("ConfigureScanMonitorAsync", true, ScanMonitoringCookie).Return(nil).Once()
	f.host(stepStart(t, 2, wire.StepSetup))

	f.tr.AssertExpectations(t)
	f.wifi.AssertNumberOfCalls(t, "ConfigureScanMonitorAsync", 2)
}

func TestInitClearsLostSetupRequest(t *testing.T) {
	f := newFixture(t, nil)
	f.wifi.On("ConfigureScanMonitorAsync", true, ScanMonitoringCookie).Return(nil).Twice()

	// The completion for this request never arrives.
	f.host(stepStart(t, 1, wire.StepSetup))
	require.True(t, f.m.State().SetupInFlight)

	f.host(stepStart(t, 1, wire.StepInit))
	assert.Equal(t, State{HostEndpoint: 1, Step: wire.StepInit}, f.m.State())

	f.host(stepStart(t, 1, wire.StepSetup))

	f.tr.AssertNotCalled(t, "SendMessageToHost", mock.Anything, mock.Anything, mock.Anything)
	f.wifi.AssertNumberOfCalls(t, "ConfigureScanMonitorAsync", 2)
	assert.True(t, f.m.State().SetupInFlight)

	var setupStates []string
	for _, e := range f.plog.Events() {
		if e.StateChange != nil && e.StateChange.Entity == log.StateEntitySetupRequest {
			setupStates = append(setupStates, e.StateChange.NewState+"/"+e.StateChange.Reason)
		}
	}
	assert.Equal(t, []string{"IN_FLIGHT/request accepted", "IDLE/reset by INIT", "IN_FLIGHT/request accepted"}, setupStates)

	// The resubmitted request completes normally.
	f.expectResult(t, wire.Passed(), 1)
	f.complete(true, hub.ErrorNone)
	f.tr.AssertExpectations(t)
	assert.False(t, f.m.State().SetupInFlight)
}

func TestFullSequence(t *testing.T) {
	f := newFixture(t, nil)
	f.wifi.On("ConfigureScanMonitorAsync", true, ScanMonitoringCookie).Return(nil).Once()
	f.expectResult(t, wire.Passed(), 1)

	f.host(stepStart(t, 1, wire.StepInit))
	f.host(stepStart(t, 1, wire.StepSetup))
	f.complete(true, hub.ErrorNone)
	f.host(stepStart(t, 1, wire.StepValidate))

	f.tr.AssertExpectations(t)
	f.wifi.AssertExpectations(t)
	assert.Equal(t, State{HostEndpoint: 1, Step: wire.StepValidate}, f.m.State())
	assert.Equal(t, Stats{ResultsSent: 1, ResultsSuppressed: 1}, f.m.Stats())
}

func TestReplyUsesLatestEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.wifi.On("ConfigureScanMonitorAsync", true, ScanMonitoringCookie).Return(nil).Once()

	f.host(stepStart(t, 1, wire.StepSetup))
	f.host(&hub.MessageFromHost{HostEndpoint: 9, MessageType: 77})

	f.expectResult(t, wire.Passed(), 9)
	f.complete(true, hub.ErrorNone)

	f.tr.AssertExpectations(t)
}

func TestTransportErrorReleasesBuffer(t *testing.T) {
	f := newFixture(t, nil)
	f.wifi.On("ConfigureScanMonitorAsync", true, ScanMonitoringCookie).Return(errors.New("rejected"))
	f.tr.On("SendMessageToHost", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("link down")).Once()

	f.host(stepStart(t, 7, wire.StepSetup))

	f.tr.AssertExpectations(t)
	assert.Equal(t, 0, f.alloc.InUse())
	assert.Equal(t, Stats{SendFailures: 1}, f.m.Stats())
	assert.Equal(t, wire.StepSetup, f.m.State().Step)
}

func TestAllocationFailureDropsResult(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Allocator = hub.NewHeapAllocator(4) })
	f.wifi.On("ConfigureScanMonitorAsync", true, ScanMonitoringCookie).Return(errors.New("rejected"))

	f.host(stepStart(t, 7, wire.StepSetup))

	f.tr.AssertNotCalled(t, "SendMessageToHost", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1, f.m.Stats().SendFailures)
	assert.Equal(t, wire.StepSetup, f.m.State().Step)
}

func TestProtocolLogOrder(t *testing.T) {
	f := newFixture(t, nil)
	f.wifi.On("ConfigureScanMonitorAsync", true, ScanMonitoringCookie).Return(nil).Once()

	f.host(stepStart(t, 6, wire.StepSetup))

	events := f.plog.Events()
	require.Len(t, events, 4)

	assert.Equal(t, log.CategoryMessage, events[0].Category)
	assert.Equal(t, log.DirectionIn, events[0].Direction)
	require.NotNil(t, events[0].Message.Step)
	assert.Equal(t, wire.StepSetup, *events[0].Message.Step)

	assert.Equal(t, log.CategoryCapability, events[1].Category)
	assert.Equal(t, log.CapabilityRequest, events[1].Capability.Kind)
	require.NotNil(t, events[1].Capability.Success)
	assert.True(t, *events[1].Capability.Success)

	assert.Equal(t, log.StateEntitySetupRequest, events[2].StateChange.Entity)
	assert.Equal(t, "IN_FLIGHT", events[2].StateChange.NewState)

	assert.Equal(t, log.StateEntityStep, events[3].StateChange.Entity)
	assert.Equal(t, "INIT", events[3].StateChange.OldState)
	assert.Equal(t, "SETUP", events[3].StateChange.NewState)

	for _, e := range events {
		assert.Equal(t, testRunID, e.RunID)
		require.NotNil(t, e.HostEndpoint)
		assert.Equal(t, uint16(6), *e.HostEndpoint)
		assert.False(t, e.Timestamp.IsZero())
	}
}
