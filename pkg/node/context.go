package node

import (
    "context"
    "fmt"
    "os"
    "sync"
    "time"

    "go.uber.org/zap"

    "yoton/pkg/address"
    "yoton/pkg/core/ledger"
    "yoton/pkg/core/pkgqueue"
    "yoton/pkg/protocol"
    "yoton/pkg/transport"
    "yoton/pkg/uid"
)

// Context is a node in the network. Channels registered on it send and
// receive packages; connections link it to other contexts. Packages sent
// while no connection is alive wait in the startup queue and go out over
// the first connection that is made.
type Context struct {
    id   uid.UID
    opts Options

    // mu guards conns, startup and sendSeq. The startup queue is only ever
    // drained with mu held so a send cannot race the drain.
    mu      sync.Mutex
    conns   []transport.Connection
    startup *pkgqueue.Queue
    sendSeq uint64

    chMu      sync.RWMutex
    sending   map[uint64]Channel
    receiving map[uint64]Channel

    // routeMu serializes Receive so packages of one source are deposited
    // in sequence order whatever connection goroutine delivers them.
    routeMu sync.Mutex
    recvSeq uint64
    seen    *ledger.Ledger

    stats counters
}

// New creates a Context with a fresh id.
func New(opts Options) *Context {
    opts = opts.withDefaults()
    return &Context{
        id:        uid.New(),
        opts:      opts,
        startup:   pkgqueue.New(opts.QueueCapacity, opts.Discard),
        sending:   make(map[uint64]Channel),
        receiving: make(map[uint64]Channel),
        seen:      ledger.New(opts.Ledger),
    }
}

// ID is this context's 64 bit id.
func (c *Context) ID() uid.UID { return c.id }

func (c *Context) String() string {
    return fmt.Sprintf("<Context %s pid=%d conns=%d>", c.id.Hex(), os.Getpid(), c.ConnectionCount())
}

// ========================= Connections =========================

// Bind hosts a connection at address, trying maxTries consecutive ports.
// The returned connection is pending until another context connects.
func (c *Context) Bind(address string, maxTries int, name string) (transport.Connection, error) {
    addr, tr, err := c.resolve(address)
    if err != nil { return nil, err }
    conn, err := transport.Bind(c, tr, addr, maxTries, name, c.opts.Conn)
    if err != nil { return nil, err }
    c.track(conn)
    c.add(conn)
    c.announce()
    return conn, nil
}

// Connect dials a hosting context, retrying until timeout.
func (c *Context) Connect(address string, timeout time.Duration, name string) (transport.Connection, error) {
    return c.ConnectContext(context.Background(), address, timeout, name)
}

// ConnectContext is Connect with cancellation.
func (c *Context) ConnectContext(ctx context.Context, address string, timeout time.Duration, name string) (transport.Connection, error) {
    addr, tr, err := c.resolve(address)
    if err != nil { return nil, err }
    conn, err := transport.Connect(ctx, c, tr, addr, timeout, name, c.opts.Conn)
    if err != nil { return nil, err }
    c.track(conn)
    c.add(conn)
    c.announce()
    return conn, nil
}

func (c *Context) resolve(s string) (address.Address, transport.Transport, error) {
    addr, err := c.opts.Parser.Split(s)
    if err != nil { return addr, nil, err }
    tr, err := c.opts.Transports.Lookup(addr.Protocol)
    if err != nil { return addr, nil, err }
    return addr, tr, nil
}

func (c *Context) track(conn *transport.StreamConnection) {
    conn.OnClose(func(cn transport.Connection, reason string) {
        c.stats.closed.Add(1)
        zap.L().Debug("context lost connection",
            zap.String("context", c.id.Hex()),
            zap.String("conn", cn.Name()),
            zap.String("reason", reason))
    })
    conn.OnTimeout(func(cn transport.Connection, timedOut bool) {
        if timedOut {
            zap.L().Warn("connection timed out", zap.String("conn", cn.Name()), zap.String("peer", cn.Id2().Hex()))
        } else {
            zap.L().Info("connection back", zap.String("conn", cn.Name()), zap.String("peer", cn.Id2().Hex()))
        }
    })
}

// add drains the startup queue into conn and makes it part of the live set
// in one step, so buffered packages precede anything sent afterwards.
func (c *Context) add(conn transport.Connection) {
    c.mu.Lock()
    defer c.mu.Unlock()
    for _, p := range c.startup.Drain() { conn.InjectPackage(p) }
    c.conns = append(c.conns, conn)
    c.pruneLocked()
}

func (c *Context) announce() {
    c.Send(protocol.NewControl(msgNewConnection, 0))
}

func (c *Context) pruneLocked() {
    keep := c.conns[:0]
    for _, cn := range c.conns {
        if cn.IsAlive() { keep = append(keep, cn) }
    }
    for i := len(keep); i < len(c.conns); i++ { c.conns[i] = nil }
    c.conns = keep
}

// Connections returns the connected connections and forgets closed ones.
func (c *Context) Connections() []transport.Connection {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.pruneLocked()
    out := make([]transport.Connection, 0, len(c.conns))
    for _, cn := range c.conns {
        if cn.IsConnected() { out = append(out, cn) }
    }
    return out
}

// ConnectionsAll also includes connections still waiting for a peer.
func (c *Context) ConnectionsAll() []transport.Connection {
    c.mu.Lock()
    defer c.mu.Unlock()
    out := make([]transport.Connection, 0, len(c.conns))
    for _, cn := range c.conns {
        if cn.IsAlive() { out = append(out, cn) }
    }
    return out
}

// ConnectionByName finds an alive connection by its name.
func (c *Context) ConnectionByName(name string) (transport.Connection, bool) {
    for _, cn := range c.ConnectionsAll() {
        if cn.Name() == name { return cn, true }
    }
    return nil, false
}

// ConnectionCount is the number of connected contexts.
func (c *Context) ConnectionCount() int { return len(c.Connections()) }

// Flush waits until every connection has written what was queued before
// the call.
func (c *Context) Flush(timeout time.Duration) error {
    for _, cn := range c.Connections() {
        if err := cn.Flush(timeout); err != nil {
            return fmt.Errorf("flush %s: %w", cn.Name(), err)
        }
    }
    return nil
}

// Disconnect asks the context with id peer to drop its connection to us.
func (c *Context) Disconnect(peer uid.UID) {
    c.Send(protocol.NewControl(msgCloseConnection, peer))
}

// Close closes all connections and all registered channels. A closed
// Context can be bound or connected again; it keeps its sequence ledger
// but stops expiring idle sources.
func (c *Context) Close() {
    c.mu.Lock()
    conns := c.conns
    c.conns = nil
    c.startup.Close()
    c.startup = pkgqueue.New(c.opts.QueueCapacity, c.opts.Discard)
    c.mu.Unlock()

    for _, cn := range conns { _ = cn.Close(transport.ReasonContextClosed, true) }
    c.CloseChannels()
    c.seen.Close()
}

// CloseChannels closes and unregisters every channel without touching the
// connections.
func (c *Context) CloseChannels() {
    c.chMu.Lock()
    set := make(map[Channel]struct{}, len(c.sending)+len(c.receiving))
    for _, ch := range c.sending { set[ch] = struct{}{} }
    for _, ch := range c.receiving { set[ch] = struct{}{} }
    c.sending = make(map[uint64]Channel)
    c.receiving = make(map[uint64]Channel)
    c.chMu.Unlock()

    for ch := range set {
        if cl, ok := ch.(Closer); ok {
            if err := cl.Close(); err != nil {
                zap.L().Warn("closing channel", zap.Error(err))
            }
        }
    }
}

// ========================= Sending =========================

// Send stamps p with this context as source and the next sequence number
// and hands it to every alive connection, or buffers it when there is none.
func (c *Context) Send(p *protocol.Package) {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.sendSeq++
    p.SourceID = c.id
    p.SourceSeq = c.sendSeq
    // own packages that come back around a cycle are stale
    c.seen.Advance(c.id, c.sendSeq)
    c.stats.sent.Add(1)

    delivered := false
    for _, cn := range c.conns {
        if !cn.IsAlive() { continue }
        if err := cn.Send(p); err != nil {
            zap.L().Debug("send on connection failed", zap.String("conn", cn.Name()), zap.Error(err))
            continue
        }
        delivered = true
    }
    if !delivered {
        c.startup.Push(p)
        c.stats.buffered.Add(1)
    }
}

// BufferedLen is the number of packages waiting for a first connection.
func (c *Context) BufferedLen() int {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.startup.Len()
}

// ========================= Receiving =========================

// Receive is called by connections for every data package that arrives.
// Stale packages are dropped; fresh ones are forwarded along every other
// alive connection and/or deposited locally depending on their
// destination.
func (c *Context) Receive(p *protocol.Package, from transport.Connection) {
    c.routeMu.Lock()
    defer c.routeMu.Unlock()
    c.stats.received.Add(1)

    if !c.seen.Advance(p.SourceID, p.SourceSeq) {
        c.stats.stale.Add(1)
        return
    }

    var forward, deposit bool
    switch p.DestID {
    case 0:
        forward, deposit = true, true
    case c.id:
        deposit = true
    default:
        forward = true
    }

    if forward { c.forward(p, from) }
    if !deposit { return }

    if forward { p = p.Clone() }
    c.recvSeq++
    p.RecvSeq = c.recvSeq

    if p.Slot == protocol.SlotContext {
        c.stats.control.Add(1)
        c.handleControl(p)
        return
    }
    c.chMu.RLock()
    ch := c.receiving[p.Slot]
    c.chMu.RUnlock()
    rc, ok := ch.(ReceivingChannel)
    if !ok {
        c.stats.unrouted.Add(1)
        return
    }
    c.stats.delivered.Add(1)
    rc.ReceivePackage(p)
}

func (c *Context) forward(p *protocol.Package, from transport.Connection) {
    c.mu.Lock()
    defer c.mu.Unlock()
    for _, cn := range c.conns {
        if cn == from || !cn.IsAlive() { continue }
        if err := cn.Send(p); err != nil {
            zap.L().Debug("forward failed", zap.String("conn", cn.Name()), zap.Error(err))
            continue
        }
        c.stats.forwarded.Add(1)
    }
}
