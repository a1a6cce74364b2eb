// Package transport carries host messages between the cross-validator agent
// and its test host over TCP.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│  Step payload (CBOR)           │
//	├────────────────────────────────┤
//	│  HostFrame envelope (CBOR)     │
//	├────────────────────────────────┤
//	│  Length-Prefix Framing (4B)    │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// The envelope carries the host endpoint and message type that the hub
// runtime would otherwise attach to a relayed message. HostLink is the
// agent side: it turns inbound envelopes into EventMessageFromHost
// events and implements hub.Transport for replies. Replies are queued
// per connection and written by that connection's own goroutine, so the
// event loop never blocks on a slow host. HostClient is the host side.
package transport
