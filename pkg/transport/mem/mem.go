// Package mem is the in-process ("itc") transport: endpoints live in a
// per-Transport table and links are net.Pipe pairs.
package mem

import (
    "context"
    "errors"
    "fmt"
    "net"
    "sync"

    "yoton/pkg/address"
    "yoton/pkg/transport"
)

var (
    ErrAddrInUse    = errors.New("mem: address already in use")
    ErrNoListener   = errors.New("mem: no such listener")
    ErrListenClosed = errors.New("mem: listener closed")
)

// Transport is an in-process transport using net.Pipe.
type Transport struct {
    mu        sync.Mutex
    listeners map[string]*listener
    dials     uint64
}

func New() *Transport { return &Transport{listeners: make(map[string]*listener)} }

var shared = New()

// Shared returns the process-wide instance, so contexts created anywhere in
// the process can reach each other.
func Shared() *Transport { return shared }

func (t *Transport) Kind() transport.Kind { return transport.KindMem }

func (t *Transport) Listen(ctx context.Context, addr address.Address) (transport.Listener, error) {
    key := addr.HostPort()
    t.mu.Lock(); defer t.mu.Unlock()
    if _, ok := t.listeners[key]; ok {
        return nil, fmt.Errorf("%w: %s", ErrAddrInUse, key)
    }
    l := &listener{t: t, key: key, newCh: make(chan net.Conn), closeCh: make(chan struct{})}
    t.listeners[key] = l
    go func() {
        select {
        case <-ctx.Done():
            _ = l.Close()
        case <-l.closeCh:
        }
    }()
    return l, nil
}

func (t *Transport) Dial(ctx context.Context, addr address.Address) (net.Conn, error) {
    key := addr.HostPort()
    t.mu.Lock()
    l := t.listeners[key]
    t.dials++
    n := t.dials
    t.mu.Unlock()
    if l == nil { return nil, fmt.Errorf("%w: %s", ErrNoListener, key) }

    c1, c2 := net.Pipe()
    local := memAddr(fmt.Sprintf("itc-client-%d", n))
    srv := &pipeConn{Conn: c1, local: memAddr(key), remote: local}
    cli := &pipeConn{Conn: c2, local: local, remote: memAddr(key)}
    select {
    case l.newCh <- srv:
        return cli, nil
    case <-l.closeCh:
    case <-ctx.Done():
    }
    _ = c1.Close()
    _ = c2.Close()
    if ctx.Err() != nil { return nil, ctx.Err() }
    return nil, fmt.Errorf("%w: %s", ErrListenClosed, key)
}

type listener struct {
    t       *Transport
    key     string
    newCh   chan net.Conn
    closeCh chan struct{}
    once    sync.Once
}

func (l *listener) Addr() net.Addr { return memAddr(l.key) }

func (l *listener) Accept(ctx context.Context) (net.Conn, error) {
    select {
    case <-ctx.Done():
        return nil, ctx.Err()
    case <-l.closeCh:
        return nil, ErrListenClosed
    case c := <-l.newCh:
        return c, nil
    }
}

func (l *listener) Close() error {
    l.once.Do(func() {
        close(l.closeCh)
        l.t.mu.Lock()
        if l.t.listeners[l.key] == l { delete(l.t.listeners, l.key) }
        l.t.mu.Unlock()
    })
    return nil
}

type memAddr string

func (a memAddr) Network() string { return "itc" }
func (a memAddr) String() string  { return string(a) }

type pipeConn struct {
    net.Conn
    local, remote net.Addr
}

func (c *pipeConn) LocalAddr() net.Addr  { return c.local }
func (c *pipeConn) RemoteAddr() net.Addr { return c.remote }
