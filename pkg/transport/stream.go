package transport

import (
    "context"
    "errors"
    "io"
    "net"
    "sync"
    "sync/atomic"
    "time"

    "go.uber.org/zap"

    "yoton/pkg/core/pkgqueue"
    "yoton/pkg/handshake"
    "yoton/pkg/protocol"
    "yoton/pkg/protocol/stream"
    "yoton/pkg/uid"
)

// StreamConnection implements Connection over any net.Conn.
type StreamConnection struct {
    name  string
    kind  Kind
    owner Owner
    opts  Options

    ctx    context.Context
    cancel context.CancelFunc

    mu     sync.Mutex
    status Status
    reason string
    conn   net.Conn
    sc     *stream.Conn
    ln     Listener
    peer   handshake.Peer
    local  net.Addr
    remote net.Addr

    qout   *pkgqueue.Queue
    qin    *pkgqueue.Queue // read but not yet handed to the owner
    shaper *pkgqueue.TokenBucket

    done      chan struct{}
    abort     chan struct{}
    abortOnce sync.Once

    hmu       sync.Mutex
    onClose   []func(Connection, string)
    onTimeout []func(Connection, bool)
    marks     map[*protocol.Package]chan struct{}

    timedOut atomic.Bool
}

func newStreamConnection(owner Owner, kind Kind, name string, opts Options) *StreamConnection {
    opts = opts.withDefaults()
    ctx, cancel := context.WithCancel(context.Background())
    return &StreamConnection{
        name:   name,
        kind:   kind,
        owner:  owner,
        opts:   opts,
        ctx:    ctx,
        cancel: cancel,
        status: StatusPending,
        qout:   pkgqueue.NewTiny(opts.SoftLimit, opts.QueueCapacity, opts.Discard, opts.PushTimeout),
        qin:    pkgqueue.New(opts.QueueCapacity, opts.Discard),
        shaper: pkgqueue.NewTokenBucket(opts.SendRate, 0),
        done:   make(chan struct{}),
        abort:  make(chan struct{}),
        marks:  make(map[*protocol.Package]chan struct{}),
    }
}

// ========================= Accessors =========================

func (c *StreamConnection) Name() string { return c.name }
func (c *StreamConnection) Kind() Kind   { return c.kind }

func (c *StreamConnection) Status() Status {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.status
}

func (c *StreamConnection) IsAlive() bool     { return c.Status() >= StatusPending }
func (c *StreamConnection) IsConnected() bool { return c.Status() == StatusConnected }
func (c *StreamConnection) IsWaiting() bool   { return c.Status() == StatusPending }

func (c *StreamConnection) Id2() uid.UID {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.peer.ID
}

func (c *StreamConnection) Pid2() int {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.peer.PID
}

func (c *StreamConnection) LocalAddr() net.Addr {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.local
}

func (c *StreamConnection) RemoteAddr() net.Addr {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.remote
}

func (c *StreamConnection) Done() <-chan struct{} { return c.done }

func (c *StreamConnection) Reason() string {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.reason
}

// TimedOut reports whether the peer has been silent for longer than the
// idle timeout.
func (c *StreamConnection) TimedOut() bool { return c.timedOut.Load() }

// QueueLen is the number of packages waiting to be written.
func (c *StreamConnection) QueueLen() int { return c.qout.Len() }

// OnClose registers fn to run once when the connection closes.
func (c *StreamConnection) OnClose(fn func(Connection, string)) {
    c.hmu.Lock()
    c.onClose = append(c.onClose, fn)
    c.hmu.Unlock()
}

// OnTimeout registers fn to run when the peer goes silent (true) and when
// it is heard from again (false).
func (c *StreamConnection) OnTimeout(fn func(Connection, bool)) {
    c.hmu.Lock()
    c.onTimeout = append(c.onTimeout, fn)
    c.hmu.Unlock()
}

// ========================= Sending =========================

func (c *StreamConnection) Send(p *protocol.Package) error {
    if !c.IsAlive() { return ErrConnectionClosed }
    if !c.qout.Push(p) && c.qout.Closed() {
        return ErrConnectionClosed
    }
    return nil
}

func (c *StreamConnection) InjectPackage(p *protocol.Package) { c.qout.Inject(p) }

func (c *StreamConnection) Flush(timeout time.Duration) error {
    if !c.IsConnected() { return ErrNotConnected }
    return c.flushWith(protocol.Heartbeat(), timeout)
}

// flushWith queues mark and waits until the sender has written it. The
// queue is FIFO, so everything queued before mark is on the wire too.
func (c *StreamConnection) flushWith(mark *protocol.Package, timeout time.Duration) error {
    ch := make(chan struct{})
    c.hmu.Lock()
    c.marks[mark] = ch
    c.hmu.Unlock()
    defer func() {
        c.hmu.Lock()
        delete(c.marks, mark)
        c.hmu.Unlock()
    }()
    c.qout.Push(mark)

    t := time.NewTimer(timeout)
    defer t.Stop()
    select {
    case <-ch:
        return nil
    case <-c.abort:
        return ErrConnectionClosed
    case <-c.done:
        return ErrConnectionClosed
    case <-t.C:
        return ErrFlushTimeout
    }
}

func (c *StreamConnection) written(p *protocol.Package) {
    if p.Kind == protocol.KindData { return }
    c.hmu.Lock()
    if ch, ok := c.marks[p]; ok {
        close(ch)
        delete(c.marks, p)
    }
    c.hmu.Unlock()
}

// ========================= Closing =========================

func (c *StreamConnection) Close(reason string, notifyPeer bool) error {
    if reason == "" { reason = ReasonDefault }
    c.mu.Lock()
    old := c.status
    if old == StatusClosed || old == StatusClosing {
        c.mu.Unlock()
        return nil
    }
    c.status = StatusClosing
    c.mu.Unlock()

    if notifyPeer && old == StatusConnected {
        if err := c.flushWith(protocol.CloseNotice(), c.opts.CloseFlush); err != nil {
            zap.L().Debug("close notice not delivered", zap.String("conn", c.name), zap.Error(err))
        }
    }
    c.finish(reason, old)
    return nil
}

// closeOnProblem closes without telling the peer. During a Close in
// progress it only aborts the pending flush; Close finishes the job.
func (c *StreamConnection) closeOnProblem(reason string) {
    if reason == "" { reason = ReasonUnspecified }
    c.mu.Lock()
    old := c.status
    switch old {
    case StatusClosed:
        c.mu.Unlock()
        return
    case StatusClosing:
        c.mu.Unlock()
        c.abortOnce.Do(func() { close(c.abort) })
        return
    }
    c.status = StatusClosing
    c.mu.Unlock()
    c.finish(reason, old)
}

func (c *StreamConnection) finish(reason string, old Status) {
    c.mu.Lock()
    c.status = StatusClosed
    c.reason = reason
    conn, ln := c.conn, c.ln
    c.ln = nil
    c.mu.Unlock()

    c.cancel()
    c.qout.Close()
    c.qin.Close()
    c.abortOnce.Do(func() { close(c.abort) })
    if ln != nil { _ = ln.Close() }
    if conn != nil { _ = conn.Close() }
    close(c.done)

    zap.L().Info("connection closed",
        zap.String("conn", c.name),
        zap.String("kind", c.kind.String()),
        zap.String("was", old.String()),
        zap.String("reason", reason))

    c.hmu.Lock()
    handlers := append([]func(Connection, string){}, c.onClose...)
    c.hmu.Unlock()
    for _, fn := range handlers { fn(c, reason) }
}

// ========================= IO goroutines =========================

// attach switches a pending connection to connected and starts its IO.
func (c *StreamConnection) attach(conn net.Conn, sc *stream.Conn, peer handshake.Peer) bool {
    c.mu.Lock()
    if c.status != StatusPending {
        c.mu.Unlock()
        _ = conn.Close()
        return false
    }
    c.conn = conn
    c.sc = sc
    c.peer = peer
    c.local = conn.LocalAddr()
    c.remote = conn.RemoteAddr()
    c.status = StatusConnected
    c.mu.Unlock()

    zap.L().Debug("connection established",
        zap.String("conn", c.name),
        zap.String("kind", c.kind.String()),
        zap.String("peer", peer.ID.Hex()),
        zap.Int("peer_pid", peer.PID),
        zap.Stringer("remote", conn.RemoteAddr()))

    go c.sendLoop(sc)
    go c.recvLoop(sc)
    go c.dispatchLoop()
    return true
}

func (c *StreamConnection) sendLoop(sc *stream.Conn) {
    for {
        p, err := c.qout.Pop(c.opts.Heartbeat)
        if errors.Is(err, pkgqueue.ErrClosed) { return }
        if err != nil {
            // a closing connection may still have its close notice coming
            if st := c.Status(); st != StatusConnected && st != StatusClosing { return }
            p = protocol.Heartbeat()
        }
        if err := c.shaper.Wait(c.ctx, int64(protocol.HeaderSize+len(p.Data))); err != nil {
            return
        }
        if err := sc.Send(p); err != nil {
            c.closeOnProblem(reasonFor(err))
            return
        }
        c.written(p)
    }
}

func (c *StreamConnection) recvLoop(sc *stream.Conn) {
    for {
        ok, err := sc.Poll(c.opts.IdleTimeout)
        if err != nil {
            c.closeOnProblem(reasonFor(err))
            return
        }
        if !ok {
            if !c.IsConnected() { return }
            if c.timedOut.CompareAndSwap(false, true) { c.emitTimeout(true) }
            continue
        }
        if c.timedOut.CompareAndSwap(true, false) { c.emitTimeout(false) }

        p := new(protocol.Package)
        if err := sc.Recv(p); err != nil {
            c.closeOnProblem(reasonFor(err))
            return
        }
        switch p.Kind {
        case protocol.KindHeartbeat:
            continue
        case protocol.KindClose:
            c.closeOnProblem(ReasonClosedFromThere)
            return
        }
        if !c.qin.Push(p) {
            zap.L().Debug("inbound queue full, package dropped", zap.String("conn", c.name), zap.Stringer("package", p))
        }
    }
}

// dispatchLoop hands received packages to the owner. The reader never
// waits on the owner, so a busy owner cannot stall the peer's writer.
func (c *StreamConnection) dispatchLoop() {
    for {
        p, err := c.qin.Pop(pkgqueue.Forever)
        if err != nil { return }
        c.deliver(p)
    }
}

func (c *StreamConnection) deliver(p *protocol.Package) {
    defer func() {
        if r := recover(); r != nil {
            zap.L().Error("panic while depositing package",
                zap.String("conn", c.name), zap.Stringer("package", p), zap.Any("panic", r))
        }
    }()
    c.owner.Receive(p, c)
}

func (c *StreamConnection) emitTimeout(timedOut bool) {
    zap.L().Debug("connection timeout state", zap.String("conn", c.name), zap.Bool("timed_out", timedOut))
    c.hmu.Lock()
    handlers := append([]func(Connection, bool){}, c.onTimeout...)
    c.hmu.Unlock()
    for _, fn := range handlers { fn(c, timedOut) }
}

func reasonFor(err error) string {
    switch {
    case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
        return ReasonEOF
    case errors.Is(err, protocol.ErrBadMagic), errors.Is(err, protocol.ErrShortHeader):
        return ReasonLostTrack
    }
    return ReasonSocketError + " " + err.Error()
}

func handshakeReason(err error) string {
    switch {
    case errors.Is(err, handshake.ErrSelf):
        return ReasonHandshakeSelf
    case errors.Is(err, handshake.ErrTimeout):
        return ReasonHandshakeTimeout
    }
    return ReasonHandshakeFailed
}
