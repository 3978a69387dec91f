// Package transport defines the Connection contract a Context routes over and
// the stream based engine every concrete transport shares.
//
// Key concepts:
// - Transport: listens for and dials raw byte streams for one protocol
//   (tcp, itc, quic, pipe)
// - StreamConnection: one link between two contexts. It owns an outbound
//   package queue, a sending goroutine that emits heartbeats when idle and a
//   receiving goroutine that hands packages to the owning Context
// - Registry: maps the protocol part of an address to a Transport
package transport
