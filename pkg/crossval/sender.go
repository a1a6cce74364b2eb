package crossval

import (
	"github.com/mash-protocol/crossval-go/pkg/log"
	"github.com/mash-protocol/crossval-go/pkg/wire"
)

// sendResult encodes r into a buffer of exactly its encoded size and hands
// it to the transport, addressed to the current host endpoint. Failures
// are logged and counted, never retried.
func (m *Manager) sendResult(r *wire.TestResult) {
	size := wire.EncodedSize(r)

	buf, err := m.alloc.Alloc(size)
	if err != nil {
		m.stats.SendFailures++
		m.errorLog("sendResult: could not allocate result buffer", "size", size, "error", err)
		m.logError(log.LayerService, err.Error(), "sendResult: alloc", nil)
		return
	}

	n, err := wire.EncodeTestResultInto(buf, r)
	if err != nil {
		m.alloc.Free(buf)
		m.stats.SendFailures++
		m.errorLog("sendResult: could not encode test result", "error", err)
		m.logError(log.LayerWire, err.Error(), "sendResult: encode", nil)
		return
	}

	endpoint := m.state.HostEndpoint
	if err := m.transport.SendMessageToHost(buf[:n], uint32(wire.MessageTypeStepResult), endpoint, m.alloc.Free); err != nil {
		m.alloc.Free(buf)
		m.stats.SendFailures++
		m.errorLog("sendResult: could not send message to host", "hostEndpoint", endpoint, "error", err)
		m.logError(log.LayerTransport, err.Error(), "sendResult: send", nil)
		return
	}

	m.stats.ResultsSent++
	m.debugLog("sendResult: sent", "hostEndpoint", endpoint, "code", r.Code.String(), "size", n)
	m.logResult(r, n, log.DirectionOut, false)
}

// reportInternal handles the two failure results that are recorded but,
// unless ReportInternalFailures is set, not sent to the host.
func (m *Manager) reportInternal(r *wire.TestResult, context string) {
	if m.config.ReportInternalFailures {
		m.sendResult(r)
		return
	}

	m.stats.ResultsSuppressed++
	m.debugLog(context+": result not sent", "result", r.String())
	m.logResult(r, wire.EncodedSize(r), log.DirectionInternal, true)
}
