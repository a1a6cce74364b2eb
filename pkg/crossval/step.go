package crossval

import (
	"github.com/mash-protocol/crossval-go/pkg/wire"
)

// handleStepStart runs the branch for cmd.Step and then moves to it. The
// branches see the previous step in m.state.
func (m *Manager) handleStepStart(cmd *wire.StepStartCommand) {
	switch cmd.Step {
	case wire.StepInit:
		// INIT resynchronizes the run; a completion that never arrived
		// must not lock SETUP out.
		m.setSetupInFlight(false, "reset by INIT")
		m.reportInternal(wire.Failed(MsgInitStep), "handleStepStart: INIT")

	case wire.StepSetup:
		m.startScanMonitorSetup()

	case wire.StepValidate:
		// Scan comparison is not implemented yet.
	}

	m.setStep(cmd.Step)
}

// startScanMonitorSetup submits the scan monitor request. Only a rejected
// submission is reported here; the outcome of an accepted request is
// reported by handleWifiAsyncResult.
func (m *Manager) startScanMonitorSetup() {
	if m.state.SetupInFlight {
		m.errorLog("startScanMonitorSetup: previous request still outstanding")
		m.sendResult(wire.Failed(MsgSetupInFlight))
		return
	}

	err := m.wifi.ConfigureScanMonitorAsync(true, ScanMonitoringCookie)
	m.logCapabilityRequest(err == nil)
	if err != nil {
		m.errorLog("startScanMonitorSetup: ConfigureScanMonitorAsync failed", "error", err)
		m.sendResult(wire.Failed(MsgSetupFailed))
		return
	}

	m.debugLog("startScanMonitorSetup: ConfigureScanMonitorAsync succeeded")
	m.setSetupInFlight(true, "request accepted")
}
