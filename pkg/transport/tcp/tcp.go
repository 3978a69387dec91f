// Package tcp implements the TCP transport.
package tcp

import (
    "context"
    "errors"
    "net"
    "syscall"

    "yoton/pkg/address"
    "yoton/pkg/transport"
)

// BufferSize is applied to SO_SNDBUF and SO_RCVBUF of every socket.
const BufferSize = 10 * 1024

// Transport dials and listens on TCP sockets.
type Transport struct {
    lc net.ListenConfig
    d  net.Dialer
}

func New() *Transport {
    return &Transport{
        lc: net.ListenConfig{Control: listenControl},
        d:  net.Dialer{Control: dialControl},
    }
}

func (t *Transport) Kind() transport.Kind { return transport.KindTCP }

func (t *Transport) Listen(ctx context.Context, addr address.Address) (transport.Listener, error) {
    l, err := t.lc.Listen(ctx, "tcp", addr.HostPort())
    if err != nil { return nil, err }
    tl := &listener{l: l, newCh: make(chan net.Conn), closeCh: make(chan struct{})}
    go tl.acceptLoop()
    go func() {
        select {
        case <-ctx.Done():
            _ = tl.Close()
        case <-tl.closeCh:
        }
    }()
    return tl, nil
}

func (t *Transport) Dial(ctx context.Context, addr address.Address) (net.Conn, error) {
    c, err := t.d.DialContext(ctx, "tcp", addr.HostPort())
    if err != nil { return nil, err }
    if tc, ok := c.(*net.TCPConn); ok { _ = tc.SetNoDelay(true) }
    return c, nil
}

type listener struct {
    l       net.Listener
    newCh   chan net.Conn
    closeCh chan struct{}
}

func (l *listener) Addr() net.Addr { return l.l.Addr() }

func (l *listener) Accept(ctx context.Context) (net.Conn, error) {
    select {
    case <-ctx.Done():
        return nil, ctx.Err()
    case <-l.closeCh:
        return nil, errors.New("tcp listener closed")
    case c := <-l.newCh:
        return c, nil
    }
}

func (l *listener) Close() error {
    select { case <-l.closeCh: default: close(l.closeCh) }
    return l.l.Close()
}

func (l *listener) acceptLoop() {
    for {
        c, err := l.l.Accept()
        if err != nil { return }
        if tc, ok := c.(*net.TCPConn); ok { _ = tc.SetNoDelay(true) }
        select {
        case l.newCh <- c:
        case <-l.closeCh:
            _ = c.Close()
            return
        }
    }
}

func dialControl(network, address string, rc syscall.RawConn) error {
    var serr error
    err := rc.Control(func(fd uintptr) { serr = setBuffers(fd, BufferSize) })
    if err != nil { return err }
    return serr
}

func listenControl(network, address string, rc syscall.RawConn) error {
    var serr error
    err := rc.Control(func(fd uintptr) {
        if serr = setReuseAddr(fd); serr != nil { return }
        serr = setBuffers(fd, BufferSize)
    })
    if err != nil { return err }
    return serr
}
