// Package node implements the Context: one participant in the messaging
// fabric. A Context multiplexes slots over any number of connections,
// buffers packages while it has none, floods and forwards packages through
// the mesh and drops duplicates using a per-source sequence ledger.
package node
