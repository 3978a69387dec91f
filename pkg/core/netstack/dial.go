package netstack

import (
    "context"

    "go.uber.org/zap"

    "yoton/pkg/config"
)

func (m *Manager) dialLoop(ctx context.Context, n Node, l config.LinkConfig, opts Options) {
    b := newBackoff(opts)
    for ctx.Err() == nil {
        conn, err := n.ConnectContext(ctx, l.Address, opts.ConnectTimeout, l.Name)
        if err != nil {
            if ctx.Err() != nil { return }
            m.failures.Add(1)
            zap.L().Warn("connect failed", append(logLink(l), zap.Error(err))...)
            if !sleep(ctx, b.next()) { return }
            continue
        }
        b.reset()
        m.established.Add(1)
        m.activeDials.Add(1)
        zap.L().Info("connected", append(logLink(l), zap.String("peer", conn.Id2().Hex()))...)
        more := hold(ctx, conn)
        m.activeDials.Add(-1)
        if !more { return }
        zap.L().Info("link dropped, redialing", append(logLink(l), zap.String("reason", conn.Reason()))...)
        if !sleep(ctx, withJitter(opts.BackoffInitial, opts.BackoffJitter)) { return }
    }
}
