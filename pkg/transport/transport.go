package transport

import (
    "context"
    "net"

    "yoton/pkg/address"
)

// Kind identifies the link type of a connection.
type Kind int

const (
    KindUnknown Kind = iota
    KindTCP
    KindMem
    KindQUIC
    KindWinPipe
)

func (k Kind) String() string {
    switch k {
    case KindTCP:
        return "tcp"
    case KindMem:
        return "itc"
    case KindQUIC:
        return "quic"
    case KindWinPipe:
        return "pipe"
    default:
        return "unknown"
    }
}

// Listener accepts inbound byte streams.
type Listener interface {
    // Accept blocks until an inbound stream is available or ctx is done.
    Accept(ctx context.Context) (net.Conn, error)
    // Addr returns the local listening address.
    Addr() net.Addr
    // Close stops the listener and unblocks Accept.
    Close() error
}

// Transport provides dialing/listening for a specific link kind.
type Transport interface {
    Kind() Kind
    // Listen binds exactly addr; it fails when the endpoint is taken.
    Listen(ctx context.Context, addr address.Address) (Listener, error)
    // Dial opens an outbound stream to addr.
    Dial(ctx context.Context, addr address.Address) (net.Conn, error)
}
