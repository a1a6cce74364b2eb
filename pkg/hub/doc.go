// Package hub models the sensor-hub runtime that hosts the cross-validation
// agent.
//
// The runtime delivers events one at a time to a single EventHandler. Two
// event kinds matter to the agent:
//
//   - EventMessageFromHost: a MessageFromHost envelope, sent on behalf of
//     the host by the runtime itself (SystemInstanceID).
//   - EventWifiAsyncResult: an AsyncResult reporting the completion of an
//     earlier asynchronous WiFi request.
//
// The package also defines the collaborators the agent talks to: the
// Transport that carries messages back to the host, the WifiCapability
// that accepts asynchronous requests, and the Allocator for outbound
// buffers. EventLoop provides the single-consumer delivery guarantee.
package hub
