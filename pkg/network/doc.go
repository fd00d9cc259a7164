// Package network is the virtual packet fabric the simulated nodes talk over.
//
// Key concepts:
// - Host: a numbered endpoint with a Role (gateway, cloud or radio device)
// - Listener: a Handler bound to a host:port; frames to unbound ports are dropped
// - Route: every radio device and the cloud hang off the gateway, so any
//   exchange not involving the gateway transits it and is shown to Taps
// - Link: latency plus serialization at a configured rate, per sending host
//
// Frames are encoded to bytes on send and decoded on delivery, so receivers
// never share memory with senders and link corruption hits real bytes.
package network
