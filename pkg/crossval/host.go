package crossval

import (
	"github.com/mash-protocol/crossval-go/pkg/hub"
	"github.com/mash-protocol/crossval-go/pkg/log"
	"github.com/mash-protocol/crossval-go/pkg/wire"
)

// handleMessageFromHost validates the sender and decodes a host message.
// Nothing is ever sent back from here on error; the host times out and
// restarts the step.
func (m *Manager) handleMessageFromHost(senderInstanceID uint32, msg *hub.MessageFromHost) {
	if senderInstanceID != m.config.TrustedSenderID {
		m.stats.EventsDropped++
		m.errorLog("handleMessageFromHost: incorrect sender instance id",
			"senderInstanceID", senderInstanceID,
			"trusted", m.config.TrustedSenderID)
		m.logError(log.LayerService, "incorrect sender instance id", "handleMessageFromHost", intPtr(int(senderInstanceID)))
		return
	}

	// Recorded before the message type is known.
	m.state.HostEndpoint = msg.HostEndpoint

	switch wire.MessageType(msg.MessageType) {
	case wire.MessageTypeStepStart:
		cmd, err := wire.DecodeStepStartCommand(msg.Message)
		if err != nil {
			m.stats.EventsDropped++
			m.errorLog("handleMessageFromHost: error decoding StepStartCommand", "error", err)
			m.logError(log.LayerWire, err.Error(), "StepStartCommand", nil)
			return
		}
		m.logStepStart(cmd, len(msg.Message))
		m.handleStepStart(cmd)

	default:
		m.stats.EventsDropped++
		m.errorLog("handleMessageFromHost: unknown message type for host message",
			"messageType", msg.MessageType)
		m.logError(log.LayerWire, "unknown host message type", "handleMessageFromHost", intPtr(int(msg.MessageType)))
	}
}
