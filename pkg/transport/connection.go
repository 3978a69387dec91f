package transport

import (
    "errors"
    "net"
    "time"

    "yoton/pkg/protocol"
    "yoton/pkg/uid"
)

// Status of a connection. Only the order matters: alive means at least
// StatusPending.
type Status int32

const (
    StatusClosed Status = iota
    StatusClosing
    StatusPending // bound, waiting for a peer
    StatusConnected
)

func (s Status) String() string {
    switch s {
    case StatusClosed:
        return "closed"
    case StatusClosing:
        return "closing"
    case StatusPending:
        return "waiting"
    case StatusConnected:
        return "connected"
    default:
        return "unknown"
    }
}

// Close reasons reported to OnClose handlers and logs.
const (
    ReasonDefault          = "Closed on command."
    ReasonUnspecified      = "Unspecified problem"
    ReasonTimeout          = "Connection timed out."
    ReasonHandshakeTimeout = "Handshake timed out."
    ReasonHandshakeFailed  = "Handshake failed."
    ReasonHandshakeSelf    = "Handshake failed (context cannot connect to self)."
    ReasonClosedFromThere  = "Closed from other end."
    ReasonSocketError      = "Socket error."
    ReasonEOF              = "Other end dropped the connection."
    ReasonLostTrack        = "Lost track of the stream."
    ReasonContextClosed    = "Closed by the context."
)

var (
    ErrConnectionClosed = errors.New("transport: connection closed")
    ErrNotConnected     = errors.New("transport: not connected")
    ErrFlushTimeout     = errors.New("transport: sending the packages timed out")
)

// ErrUnknownProtocol is returned for an address protocol nobody registered.
type ErrUnknownProtocol string

func (e ErrUnknownProtocol) Error() string { return "transport: unknown protocol: " + string(e) }

// Owner is the context a connection delivers into.
type Owner interface {
    ID() uid.UID
    // Receive is called from the connection's receiving goroutine.
    Receive(p *protocol.Package, from Connection)
}

// Connection is one link between two contexts.
type Connection interface {
    Name() string
    Kind() Kind
    Status() Status
    // IsAlive reports pending or connected.
    IsAlive() bool
    IsConnected() bool
    // Id2 is the id of the context on the other end, zero until connected.
    Id2() uid.UID
    Pid2() int
    LocalAddr() net.Addr
    RemoteAddr() net.Addr

    // Send queues p for transmission. It may block briefly under backpressure.
    Send(p *protocol.Package) error
    // InjectPackage appends p to the outbound queue without blocking or
    // discarding; used to replay buffered packages into a new connection.
    InjectPackage(p *protocol.Package)
    // Flush waits until everything queued so far has been written.
    Flush(timeout time.Duration) error
    // Close is idempotent. With notifyPeer the other end is told to close too.
    Close(reason string, notifyPeer bool) error

    // Done is closed once the connection reached StatusClosed.
    Done() <-chan struct{}
    // Reason is the close reason, empty while alive.
    Reason() string
}
