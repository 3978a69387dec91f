package node

import (
    "sync/atomic"

    "yoton/pkg/core/ledger"
)

type counters struct {
    sent      atomic.Uint64
    buffered  atomic.Uint64
    received  atomic.Uint64
    stale     atomic.Uint64
    forwarded atomic.Uint64
    delivered atomic.Uint64
    unrouted  atomic.Uint64
    control   atomic.Uint64
    closed    atomic.Uint64
}

// Stats is a snapshot of a context's traffic counters.
type Stats struct {
    Sent      uint64 // packages originated here
    Buffered  uint64 // of those, parked in the startup queue
    Received  uint64 // packages handed in by connections
    Stale     uint64 // dropped as already seen
    Forwarded uint64 // copies passed on to other connections
    Delivered uint64 // deposited in a receiving channel
    Unrouted  uint64 // addressed here but no channel on the slot
    Control   uint64
    Closed    uint64 // connections that ended

    Connections int
    Pending     int // packages currently in the startup queue
    Ledger      ledger.Stats
}

// Stats returns the current counters.
func (c *Context) Stats() Stats {
    return Stats{
        Sent:        c.stats.sent.Load(),
        Buffered:    c.stats.buffered.Load(),
        Received:    c.stats.received.Load(),
        Stale:       c.stats.stale.Load(),
        Forwarded:   c.stats.forwarded.Load(),
        Delivered:   c.stats.delivered.Load(),
        Unrouted:    c.stats.unrouted.Load(),
        Control:     c.stats.control.Load(),
        Closed:      c.stats.closed.Load(),
        Connections: c.ConnectionCount(),
        Pending:     c.BufferedLen(),
        Ledger:      c.seen.Metrics(),
    }
}
