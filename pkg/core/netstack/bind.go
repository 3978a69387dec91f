package netstack

import (
    "context"

    "go.uber.org/zap"

    "yoton/pkg/config"
)

func (m *Manager) bindLoop(ctx context.Context, n Node, l config.LinkConfig, opts Options) {
    b := newBackoff(opts)
    tries := l.MaxTries
    if tries <= 0 { tries = opts.BindMaxTries }
    for ctx.Err() == nil {
        conn, err := n.Bind(l.Address, tries, l.Name)
        if err != nil {
            m.failures.Add(1)
            zap.L().Warn("bind failed", append(logLink(l), zap.Error(err))...)
            if !sleep(ctx, b.next()) { return }
            continue
        }
        b.reset()
        m.established.Add(1)
        m.activeBinds.Add(1)
        zap.L().Info("hosting", append(logLink(l), zap.Stringer("local", conn.LocalAddr()))...)
        more := hold(ctx, conn)
        m.activeBinds.Add(-1)
        if !more || !l.Rebind { return }
        zap.L().Info("rebinding", append(logLink(l), zap.String("reason", conn.Reason()))...)
    }
}
