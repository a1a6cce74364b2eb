package crossval

import "github.com/mash-protocol/crossval-go/pkg/wire"

// State is the protocol state owned by a Manager.
type State struct {
	// HostEndpoint addresses replies. Overwritten by every accepted host
	// message.
	HostEndpoint uint16

	// Step is the step named by the most recent StepStartCommand.
	Step wire.Step

	// SetupInFlight is set while a scan monitor request has been accepted
	// by the WiFi subsystem and its completion has not arrived yet.
	SetupInFlight bool
}

// Stats counts Manager outcomes.
type Stats struct {
	// ResultsSent is the number of results handed to the transport.
	ResultsSent int

	// ResultsSuppressed is the number of results built but not sent.
	ResultsSuppressed int

	// SendFailures counts results lost to allocation, encoding or
	// transport errors.
	SendFailures int

	// EventsDropped counts events ignored because of an untrusted sender,
	// an undecodable payload, or an unknown type.
	EventsDropped int
}
