package hub

// EventHandler receives runtime events. Calls are never concurrent.
type EventHandler interface {
	HandleEvent(senderInstanceID uint32, eventType uint16, eventData any)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(senderInstanceID uint32, eventType uint16, eventData any)

// HandleEvent calls f.
func (f EventHandlerFunc) HandleEvent(senderInstanceID uint32, eventType uint16, eventData any) {
	f(senderInstanceID, eventType, eventData)
}

// EventPoster queues events for later delivery to an EventHandler.
// Implemented by EventLoop.
type EventPoster interface {
	Post(event Event) error
}

// ReleaseFunc returns an outbound buffer to its allocator once the
// transport is done with it.
type ReleaseFunc func(buf []byte)

// Transport delivers messages to the host.
type Transport interface {
	// SendMessageToHost queues data for the given host endpoint. On success
	// the transport owns data and calls release once it no longer needs it,
	// which may be before the bytes reach the host. On error the caller
	// keeps ownership.
	SendMessageToHost(data []byte, messageType uint32, hostEndpoint uint16, release ReleaseFunc) error
}

// WifiCapability is the hub's WiFi subsystem.
type WifiCapability interface {
	// ConfigureScanMonitorAsync enables or disables passive scan
	// monitoring. A nil return only means the request was accepted; the
	// outcome arrives later as an EventWifiAsyncResult carrying cookie.
	ConfigureScanMonitorAsync(enable bool, cookie uint32) error
}

// Allocator hands out outbound message buffers.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(buf []byte)
}
