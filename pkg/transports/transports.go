// Package transports assembles the protocol registry used by default.
package transports

import (
    "go.uber.org/zap"

    "yoton/pkg/transport"
    "yoton/pkg/transport/mem"
    "yoton/pkg/transport/quic"
    "yoton/pkg/transport/tcp"
)

// Protocol names as written in addresses.
const (
    TCP  = "tcp"
    ITC  = "itc"
    QUIC = "quic"
    Pipe = "pipe"
)

// Default returns a registry with every transport available on this
// platform. The itc protocol uses the process-wide in-memory hub.
func Default() *transport.Registry {
    r := transport.NewRegistry()
    r.Register(TCP, tcp.New())
    r.Register(ITC, mem.Shared())
    r.Register(QUIC, quic.New())
    if wp, err := newWinPipeTransport(); err == nil {
        r.Register(Pipe, wp)
    } else {
        zap.L().Debug("pipe transport unavailable", zap.Error(err))
    }
    return r
}

// ByKind returns a fresh transport of kind k.
func ByKind(k transport.Kind) (transport.Transport, error) {
    switch k {
    case transport.KindTCP:
        return tcp.New(), nil
    case transport.KindMem:
        return mem.New(), nil
    case transport.KindQUIC:
        return quic.New(), nil
    case transport.KindWinPipe:
        return newWinPipeTransport()
    }
    return nil, transport.ErrUnknownProtocol(k.String())
}
