// Package netstack opens the links a node is configured with and keeps them
// up: connect links are redialed with backoff after they drop, bind links
// can host again once their peer is gone.
package netstack

import (
    "context"
    "fmt"
    "sync"
    "sync/atomic"
    "time"

    "go.uber.org/zap"

    "yoton/pkg/config"
    "yoton/pkg/transport"
)

// Node is the part of node.Context the stack drives.
type Node interface {
    Bind(address string, maxTries int, name string) (transport.Connection, error)
    ConnectContext(ctx context.Context, address string, timeout time.Duration, name string) (transport.Connection, error)
}

type Options struct {
    BackoffInitial time.Duration
    BackoffMax     time.Duration
    BackoffJitter  time.Duration
    ConnectTimeout time.Duration
    BindMaxTries   int
}

// OptionsFrom converts the net section of the config.
func OptionsFrom(n config.NetConfig) Options {
    return Options{
        BackoffInitial: config.Ms(n.DialBackoffInitialMS),
        BackoffMax:     config.Ms(n.DialBackoffMaxMS),
        BackoffJitter:  config.Ms(n.DialBackoffJitterMS),
        ConnectTimeout: config.Ms(n.ConnectTimeoutMS),
        BindMaxTries:   n.BindMaxTries,
    }
}

func (o Options) withDefaults() Options {
    if o.BackoffInitial <= 0 { o.BackoffInitial = 500 * time.Millisecond }
    if o.BackoffMax <= 0 { o.BackoffMax = 30 * time.Second }
    if o.BackoffMax < o.BackoffInitial { o.BackoffMax = o.BackoffInitial }
    if o.ConnectTimeout <= 0 { o.ConnectTimeout = time.Second }
    if o.BindMaxTries <= 0 { o.BindMaxTries = 1 }
    return o
}

// Manager tracks the link goroutines started by Start.
type Manager struct {
    wg sync.WaitGroup

    activeDials atomic.Int64
    activeBinds atomic.Int64
    established atomic.Int64
    failures    atomic.Int64
}

// ActiveDials is the number of connect links currently connected.
func (m *Manager) ActiveDials() int64 { return m.activeDials.Load() }

// ActiveBinds is the number of bind links currently open (pending or connected).
func (m *Manager) ActiveBinds() int64 { return m.activeBinds.Load() }

// Established counts every link that came up, reconnections included.
func (m *Manager) Established() int64 { return m.established.Load() }

// Failures counts failed bind or connect attempts.
func (m *Manager) Failures() int64 { return m.failures.Load() }

// Wait blocks until every link goroutine has stopped; they stop when the
// context passed to Start is cancelled.
func (m *Manager) Wait() { m.wg.Wait() }

// Start opens every link in the background. Invalid link modes are
// reported before anything starts.
func Start(ctx context.Context, n Node, links []config.LinkConfig, opts Options) (*Manager, error) {
    opts = opts.withDefaults()
    for i, l := range links {
        if l.Mode != config.ModeBind && l.Mode != config.ModeConnect {
            return nil, fmt.Errorf("link %d (%s): unknown mode %q", i, l.Address, l.Mode)
        }
    }
    m := &Manager{}
    for _, l := range links {
        m.wg.Add(1)
        if l.Mode == config.ModeBind {
            go func() { defer m.wg.Done(); m.bindLoop(ctx, n, l, opts) }()
        } else {
            go func() { defer m.wg.Done(); m.dialLoop(ctx, n, l, opts) }()
        }
    }
    return m, nil
}

// hold waits until conn ends or ctx is cancelled, closing conn in the
// latter case. It reports whether the caller should keep going.
func hold(ctx context.Context, conn transport.Connection) bool {
    select {
    case <-conn.Done():
        return ctx.Err() == nil
    case <-ctx.Done():
        _ = conn.Close(transport.ReasonContextClosed, true)
        return false
    }
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func logLink(l config.LinkConfig) []zap.Field {
    return []zap.Field{zap.String("link", l.Name), zap.String("mode", l.Mode), zap.String("addr", l.Address)}
}
