package hub

import "fmt"

// SystemInstanceID is the sender instance ID the runtime uses for events
// it generates itself, including messages relayed from the host.
const SystemInstanceID uint32 = 0

// Event types delivered to an EventHandler.
const (
	// EventMessageFromHost carries a *MessageFromHost.
	EventMessageFromHost uint16 = 0x0001

	// EventWifiAsyncResult carries an *AsyncResult.
	EventWifiAsyncResult uint16 = 0x0300
)

// EventTypeName returns a readable name for known event types.
func EventTypeName(eventType uint16) string {
	switch eventType {
	case EventMessageFromHost:
		return "MESSAGE_FROM_HOST"
	case EventWifiAsyncResult:
		return "WIFI_ASYNC_RESULT"
	default:
		return fmt.Sprintf("0x%04x", eventType)
	}
}

// WiFi asynchronous request types, reported back in AsyncResult.RequestType.
const (
	WifiRequestTypeConfigureScanMonitor uint8 = 1
	WifiRequestTypeRequestScan          uint8 = 2
	WifiRequestTypeRanging              uint8 = 3
)

// WiFi async error codes.
const (
	ErrorNone         uint8 = 0
	ErrorGeneric      uint8 = 1
	ErrorInvalidArg   uint8 = 2
	ErrorBusy         uint8 = 3
	ErrorNoMemory     uint8 = 4
	ErrorNotSupported uint8 = 5
	ErrorTimeout      uint8 = 6
)

// MessageFromHost is the envelope of a message relayed from the host.
type MessageFromHost struct {
	// HostEndpoint identifies the host session that sent the message and
	// is used to address the reply.
	HostEndpoint uint16

	// MessageType is the application-defined message type.
	MessageType uint32

	// Message is the encoded payload.
	Message []byte
}

// AsyncResult reports the completion of an asynchronous capability request.
type AsyncResult struct {
	RequestType uint8
	Success     bool
	ErrorCode   uint8

	// Cookie is the opaque value passed with the original request.
	Cookie uint32
}

// Event is a single runtime event queued for delivery.
type Event struct {
	SenderInstanceID uint32
	Type             uint16
	Data             any
}
