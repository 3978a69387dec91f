package transport

import (
    "time"

    "yoton/pkg/core/pkgqueue"
    "yoton/pkg/handshake"
)

// MinIdleTimeout is the lowest receive idle timeout. The other side's
// heartbeat interval is unknown, so shorter timeouts would fire spuriously.
const MinIdleTimeout = 500 * time.Millisecond

// Options tunes a StreamConnection.
type Options struct {
    QueueCapacity    int // hard limit of the outbound queue
    SoftLimit        int // outbound pushes beyond this wait for the sender
    Discard          pkgqueue.Discard
    PushTimeout      time.Duration
    Heartbeat        time.Duration // idle interval after which a heartbeat is sent
    IdleTimeout      time.Duration // receive silence before timed-out is reported
    HandshakeTimeout time.Duration
    CloseFlush       time.Duration // how long Close waits to deliver the close notice
    SendRate         int64         // bytes per second, 0 for unlimited
}

// DefaultOptions returns the stock link parameters.
func DefaultOptions() Options {
    return Options{
        QueueCapacity:    pkgqueue.DefaultCapacity,
        SoftLimit:        64,
        Discard:          pkgqueue.DiscardOld,
        PushTimeout:      time.Second,
        Heartbeat:        MinIdleTimeout / 2,
        IdleTimeout:      MinIdleTimeout,
        HandshakeTimeout: handshake.DefaultTimeout,
        CloseFlush:       time.Second,
    }
}

func (o Options) withDefaults() Options {
    d := DefaultOptions()
    if o.QueueCapacity <= 0 { o.QueueCapacity = d.QueueCapacity }
    if o.SoftLimit <= 0 { o.SoftLimit = d.SoftLimit }
    if o.PushTimeout <= 0 { o.PushTimeout = d.PushTimeout }
    if o.Heartbeat <= 0 { o.Heartbeat = d.Heartbeat }
    if o.IdleTimeout < MinIdleTimeout { o.IdleTimeout = MinIdleTimeout }
    if o.HandshakeTimeout <= 0 { o.HandshakeTimeout = d.HandshakeTimeout }
    if o.CloseFlush <= 0 { o.CloseFlush = d.CloseFlush }
    return o
}
