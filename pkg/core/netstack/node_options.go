package netstack

import (
    "yoton/pkg/config"
    "yoton/pkg/core/ledger"
    "yoton/pkg/core/pkgqueue"
    "yoton/pkg/node"
    "yoton/pkg/transport"
)

// NodeOptions builds context options from the context and net sections.
func NodeOptions(c *config.Config) (node.Options, error) {
    discard, err := pkgqueue.ParseDiscard(c.Context.DiscardMode)
    if err != nil { return node.Options{}, err }
    return node.Options{
        QueueCapacity: c.Context.QueueCapacity,
        Discard:       discard,
        Conn: transport.Options{
            QueueCapacity:    c.Context.QueueCapacity,
            SoftLimit:        c.Context.TinyLen,
            Discard:          discard,
            PushTimeout:      config.Ms(c.Context.PushTimeoutMS),
            Heartbeat:        config.Ms(c.Net.HeartbeatMS),
            IdleTimeout:      config.Ms(c.Net.IdleTimeoutMS),
            HandshakeTimeout: config.Ms(c.Net.HandshakeTimeoutMS),
            CloseFlush:       config.Ms(c.Net.CloseFlushMS),
            SendRate:         c.Net.SendRateBytes,
        },
        Ledger: ledger.Options{
            Shards:  c.Context.LedgerShards,
            IdleTTL: config.Ms(c.Context.LedgerIdleTTLMS),
        },
    }, nil
}
