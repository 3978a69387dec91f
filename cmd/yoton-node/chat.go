package main

import (
    "io"
    "sync"
    "time"

    "github.com/pterm/pterm"
    "go.uber.org/zap"

    "yoton/pkg/node"
    "yoton/pkg/protocol"
)

// message is the chat payload, CBOR encoded with integer keys.
type message struct {
    From string `cbor:"1,keyasint"`
    Text string `cbor:"2,keyasint"`
    At   int64  `cbor:"3,keyasint"` // unix millis
}

// chat sends and receives on one slot. It repeats its last line when a
// new context joins so late comers see where the conversation is.
type chat struct {
    ctx  *node.Context
    slot uint64
    nick string
    out  io.Writer

    mu   sync.Mutex
    last *message
}

func newChat(ctx *node.Context, slot uint64, nick string, out io.Writer) (*chat, error) {
    c := &chat{ctx: ctx, slot: slot, nick: nick, out: out}
    if err := ctx.RegisterSending(c, slot, nick); err != nil { return nil, err }
    if err := ctx.RegisterReceiving(c, slot, nick); err != nil {
        ctx.Unregister(c)
        return nil, err
    }
    return c, nil
}

func (c *chat) Say(text string) error {
    m := &message{From: c.nick, Text: text, At: time.Now().UnixMilli()}
    if err := c.send(m); err != nil { return err }
    c.mu.Lock()
    c.last = m
    c.mu.Unlock()
    return nil
}

func (c *chat) send(m *message) error {
    p, err := protocol.NewWithBody(c.slot, 0, protocol.FormatCBOR, m, nil)
    if err != nil { return err }
    c.ctx.Send(p)
    return nil
}

func (c *chat) ResendLast() error {
    c.mu.Lock()
    m := c.last
    c.mu.Unlock()
    if m == nil { return nil }
    return c.send(m)
}

func (c *chat) ReceivePackage(p *protocol.Package) {
    var m message
    if _, err := protocol.DecodePackageBody(p, &m, nil); err != nil {
        zap.L().Warn("undecodable chat message", zap.Stringer("package", p), zap.Error(err))
        return
    }
    at := time.UnixMilli(m.At).Format("15:04:05")
    pterm.Fprintln(c.out, pterm.Gray(at), pterm.LightCyan(m.From+":"), m.Text)
}

func (c *chat) Close() error {
    c.ctx.Unregister(c)
    return nil
}
