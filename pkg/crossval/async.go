package crossval

import (
	"github.com/mash-protocol/crossval-go/pkg/hub"
	"github.com/mash-protocol/crossval-go/pkg/wire"
)

// handleWifiAsyncResult turns a WiFi completion event into a step result.
func (m *Manager) handleWifiAsyncResult(result *hub.AsyncResult) {
	m.infoLog("handleWifiAsyncResult",
		"requestType", result.RequestType,
		"success", result.Success,
		"errorCode", result.ErrorCode)
	m.logCapabilityCompletion(result)

	if result.RequestType != hub.WifiRequestTypeConfigureScanMonitor {
		m.reportInternal(wire.Failed(MsgUnknownAsyncResult), "handleWifiAsyncResult: unknown request type")
		return
	}

	m.setSetupInFlight(false, "completion received")

	if m.state.Step != wire.StepSetup {
		m.errorLog("handleWifiAsyncResult: scan monitor result outside SETUP", "step", m.state.Step.String())
		m.sendResult(wire.Failed(MsgResultNotInSetup))
		return
	}

	if result.Success {
		m.debugLog("handleWifiAsyncResult: wifi scan monitoring setup successfully")
		m.sendResult(wire.Passed())
		return
	}

	m.errorLog("handleWifiAsyncResult: wifi scan monitoring setup failed async",
		"errorCode", result.ErrorCode)
	m.sendResult(wire.Failedf(MsgSetupFailedAsyncFmt, result.ErrorCode))
}
