package node

import (
    "go.uber.org/zap"

    "yoton/pkg/protocol"
    "yoton/pkg/transport"
)

const (
    msgNewConnection   = protocol.MsgNewConnection
    msgCloseConnection = protocol.MsgCloseConnection
)

func (c *Context) handleControl(p *protocol.Package) {
    switch msg := p.Text(); msg {
    case msgNewConnection:
        c.resendAll()
    case msgCloseConnection:
        c.closeLinkTo(p)
    default:
        zap.L().Warn("unknown context message", zap.String("message", msg), zap.String("from", p.SourceID.Hex()))
    }
}

// resendAll runs outside chMu; resending goes through Send.
func (c *Context) resendAll() {
    c.chMu.RLock()
    var rs []Resender
    for _, ch := range c.sending {
        if r, ok := ch.(Resender); ok { rs = append(rs, r) }
    }
    c.chMu.RUnlock()
    for _, r := range rs {
        if err := r.ResendLast(); err != nil {
            zap.L().Warn("resend last failed", zap.Error(err))
        }
    }
}

func (c *Context) closeLinkTo(p *protocol.Package) {
    for _, cn := range c.Connections() {
        if cn.Id2() == p.SourceID {
            _ = cn.Close(transport.ReasonClosedFromThere, false)
        }
    }
}
