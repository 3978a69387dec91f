package node

import (
    "net"
    "sync"
    "time"

    "yoton/pkg/protocol"
    "yoton/pkg/transport"
    "yoton/pkg/uid"
)

// link is an in-memory connection whose packages only move when pumped,
// so tests control interleaving and no goroutines are involved.
type link struct {
    name string
    to   *Context
    back *link
    id2  uid.UID

    mu     sync.Mutex
    out    []*protocol.Package
    sent   []*protocol.Package
    status transport.Status
    reason string
    done   chan struct{}
}

func newLink(name string, to *Context) *link {
    return &link{name: name, to: to, id2: to.ID(), status: transport.StatusConnected, done: make(chan struct{})}
}

// connect links a and b in both directions and returns (a->b, b->a).
func connect(a, b *Context) (*link, *link) {
    ab := newLink(a.ID().Hex()+">"+b.ID().Hex(), b)
    ba := newLink(b.ID().Hex()+">"+a.ID().Hex(), a)
    ab.back, ba.back = ba, ab
    a.add(ab)
    b.add(ba)
    return ab, ba
}

func (l *link) Name() string             { return l.name }
func (l *link) Kind() transport.Kind     { return transport.KindMem }
func (l *link) Id2() uid.UID             { return l.id2 }
func (l *link) Pid2() int                { return 0 }
func (l *link) LocalAddr() net.Addr      { return nil }
func (l *link) RemoteAddr() net.Addr     { return nil }
func (l *link) Done() <-chan struct{}    { return l.done }
func (l *link) Flush(time.Duration) error { return nil }

func (l *link) Status() transport.Status {
    l.mu.Lock()
    defer l.mu.Unlock()
    return l.status
}

func (l *link) IsAlive() bool     { return l.Status() >= transport.StatusPending }
func (l *link) IsConnected() bool { return l.Status() == transport.StatusConnected }

func (l *link) Reason() string {
    l.mu.Lock()
    defer l.mu.Unlock()
    return l.reason
}

func (l *link) Send(p *protocol.Package) error {
    l.mu.Lock()
    defer l.mu.Unlock()
    if l.status < transport.StatusPending { return transport.ErrConnectionClosed }
    l.out = append(l.out, p.Clone())
    l.sent = append(l.sent, p.Clone())
    return nil
}

func (l *link) InjectPackage(p *protocol.Package) {
    l.mu.Lock()
    defer l.mu.Unlock()
    l.out = append(l.out, p.Clone())
    l.sent = append(l.sent, p.Clone())
}

func (l *link) Close(reason string, notifyPeer bool) error {
    l.mu.Lock()
    defer l.mu.Unlock()
    if l.status == transport.StatusClosed { return nil }
    l.status = transport.StatusClosed
    l.reason = reason
    close(l.done)
    return nil
}

// pump delivers everything queued on l. It reports whether anything moved.
func (l *link) pump() bool {
    l.mu.Lock()
    out := l.out
    l.out = nil
    l.mu.Unlock()
    for _, p := range out {
        p.RecvSeq = 0
        l.to.Receive(p, l.back)
    }
    return len(out) > 0
}

func pumpAll(links ...*link) {
    for {
        moved := false
        for _, l := range links {
            if l.pump() { moved = true }
        }
        if !moved { return }
    }
}

func (l *link) sentCount(src uid.UID, seq uint64) int {
    l.mu.Lock()
    defer l.mu.Unlock()
    n := 0
    for _, p := range l.sent {
        if p.SourceID == src && p.SourceSeq == seq { n++ }
    }
    return n
}

// sink is a receiving channel that records what it gets.
type sink struct {
    mu  sync.Mutex
    got []*protocol.Package
    ch  chan struct{}

    closed bool
}

func newSink() *sink { return &sink{ch: make(chan struct{}, 1024)} }

func (s *sink) ReceivePackage(p *protocol.Package) {
    s.mu.Lock()
    s.got = append(s.got, p)
    s.mu.Unlock()
    s.ch <- struct{}{}
}

func (s *sink) Close() error {
    s.mu.Lock()
    s.closed = true
    s.mu.Unlock()
    return nil
}

func (s *sink) packages() []*protocol.Package {
    s.mu.Lock()
    defer s.mu.Unlock()
    return append([]*protocol.Package(nil), s.got...)
}

// resender counts ResendLast calls.
type resender struct {
    mu sync.Mutex
    n  int
}

func (r *resender) ResendLast() error {
    r.mu.Lock()
    r.n++
    r.mu.Unlock()
    return nil
}

func (r *resender) count() int {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.n
}
