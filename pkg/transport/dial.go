package transport

import (
    "context"
    "errors"
    "fmt"
    "time"

    "go.uber.org/zap"

    "yoton/pkg/address"
    "yoton/pkg/handshake"
    "yoton/pkg/protocol/stream"
)

const maxPort = 65535

// Bind listens on addr, trying up to maxTries consecutive ports, and returns
// a pending connection that turns connected when the first peer completes
// the handshake. The chosen endpoint is LocalAddr().
func Bind(owner Owner, tr Transport, addr address.Address, maxTries int, name string, opts Options) (*StreamConnection, error) {
    if maxTries <= 0 { maxTries = 1 }
    c := newStreamConnection(owner, tr.Kind(), name, opts)

    var ln Listener
    var err error
    for i := 0; i < maxTries; i++ {
        a := addr
        if addr.Port != 0 { a = addr.WithPort(addr.Port + i) }
        if a.Port > maxPort { break }
        ln, err = tr.Listen(c.ctx, a)
        if err == nil { break }
    }
    if ln == nil {
        c.cancel()
        if err == nil { err = errors.New("no port left in range") }
        return nil, fmt.Errorf("bind %s (tried %d ports): %w", addr, maxTries, err)
    }

    c.mu.Lock()
    c.ln = ln
    c.local = ln.Addr()
    c.mu.Unlock()

    zap.L().Debug("connection hosting",
        zap.String("conn", name),
        zap.String("kind", tr.Kind().String()),
        zap.Stringer("addr", ln.Addr()))
    go c.host(ln)
    return c, nil
}

// host accepts streams until one completes the handshake. Failed peers are
// dropped and the wait continues.
func (c *StreamConnection) host(ln Listener) {
    for c.IsWaiting() {
        conn, err := ln.Accept(c.ctx)
        if err != nil {
            if c.ctx.Err() == nil && c.IsWaiting() {
                c.closeOnProblem(ReasonSocketError + " " + err.Error())
            }
            return
        }
        sc := stream.NewNetConn(conn)
        peer, err := handshake.AsHost(sc, c.owner.ID(), c.opts.HandshakeTimeout)
        if err != nil {
            zap.L().Debug("handshake rejected",
                zap.String("conn", c.name),
                zap.Stringer("remote", conn.RemoteAddr()),
                zap.String("reason", handshakeReason(err)),
                zap.Error(err))
            _ = conn.Close()
            continue
        }
        c.mu.Lock()
        c.ln = nil
        c.mu.Unlock()
        _ = ln.Close()
        c.attach(conn, sc, peer)
        return
    }
}

// Connect dials addr until it succeeds or timeout passes, sleeping a
// hundredth of the timeout between attempts, then performs the handshake.
func Connect(ctx context.Context, owner Owner, tr Transport, addr address.Address, timeout time.Duration, name string, opts Options) (*StreamConnection, error) {
    if timeout <= 0 { timeout = time.Second }
    deadline := time.Now().Add(timeout)
    pause := timeout / 100
    if pause < time.Millisecond { pause = time.Millisecond }

    var lastErr error
    for {
        dctx, cancel := context.WithDeadline(ctx, deadline)
        conn, err := tr.Dial(dctx, addr)
        cancel()
        if err == nil {
            c := newStreamConnection(owner, tr.Kind(), name, opts)
            sc := stream.NewNetConn(conn)
            peer, err := handshake.AsClient(sc, owner.ID(), c.opts.HandshakeTimeout)
            if err != nil {
                _ = conn.Close()
                c.cancel()
                return nil, fmt.Errorf("connect %s: %s: %w", addr, handshakeReason(err), err)
            }
            if !c.attach(conn, sc, peer) {
                return nil, fmt.Errorf("connect %s: %w", addr, ErrConnectionClosed)
            }
            return c, nil
        }
        lastErr = err
        if ctx.Err() != nil || time.Now().Add(pause).After(deadline) {
            return nil, fmt.Errorf("connect %s: %s: %w", addr, ReasonTimeout, lastErr)
        }
        t := time.NewTimer(pause)
        select {
        case <-ctx.Done():
            t.Stop()
            return nil, fmt.Errorf("connect %s: %w", addr, ctx.Err())
        case <-t.C:
        }
    }
}
