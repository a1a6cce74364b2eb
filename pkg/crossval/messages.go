package crossval

// Diagnostic messages carried by FAILED results.
const (
	MsgInitStep            = "received StepStartCommand for INIT step"
	MsgSetupFailed         = "setupWifiScanMonitoring failed"
	MsgSetupInFlight       = "scan monitor setup already in flight"
	MsgResultNotInSetup    = "received scan monitor result event when step is not SETUP"
	MsgSetupFailedAsyncFmt = "wifi scan monitoring setup failed async w/ error code %d"
	MsgUnknownAsyncResult  = "unknown async result type received"
)

// ScanMonitoringCookie is passed with every scan monitor request. Only one
// request is ever outstanding so completions are not matched against it.
const ScanMonitoringCookie uint32 = 0
