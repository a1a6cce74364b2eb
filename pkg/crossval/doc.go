// Package crossval implements the WiFi cross-validation test agent.
//
// A host drives the test by sending StepStartCommand messages. The agent
// walks through three steps:
//
//   - INIT: nothing to set up. An INIT command is recorded as an internal
//     failure and no result is sent to the host.
//   - SETUP: the agent asks the hub's WiFi subsystem to enable scan
//     monitoring. If the request is rejected outright the host gets a
//     FAILED result straight away; otherwise the result follows once the
//     subsystem reports completion.
//   - VALIDATE: reserved; no behaviour yet.
//
// Manager is the single entry point. The runtime hands it every event via
// HandleEvent, one at a time and never concurrently (see hub.EventLoop), so
// Manager holds no locks.
//
// Example usage:
//
//	loop := hub.NewEventLoop(0, logger)
//	mgr, err := crossval.NewManager(link, wifiSim, crossval.DefaultConfig())
//	go loop.Run(ctx, mgr)
package crossval
