package node

import (
    "yoton/pkg/address"
    "yoton/pkg/core/ledger"
    "yoton/pkg/core/pkgqueue"
    "yoton/pkg/transport"
    "yoton/pkg/transports"
)

// Options configures a Context. The zero value is usable.
type Options struct {
    QueueCapacity int
    Discard       pkgqueue.Discard
    Conn          transport.Options
    Ledger        ledger.Options
    // Transports resolves address protocols; nil means transports.Default().
    Transports *transport.Registry
    Parser     address.Parser
}

func (o Options) withDefaults() Options {
    if o.QueueCapacity <= 0 { o.QueueCapacity = pkgqueue.DefaultCapacity }
    // Links inherit the context queue policy unless tuned separately.
    if o.Conn == (transport.Options{}) { o.Conn.Discard = o.Discard }
    if o.Conn.QueueCapacity <= 0 { o.Conn.QueueCapacity = o.QueueCapacity }
    if o.Transports == nil { o.Transports = transports.Default() }
    return o
}
