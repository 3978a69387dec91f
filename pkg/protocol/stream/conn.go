// Package stream moves protocol packages over a byte stream.
package stream

import (
    "bufio"
    "errors"
    "io"
    "net"
    "os"
    "sync"
    "time"

    "yoton/pkg/protocol"
)

// Deadliner is the subset of net.Conn needed for Poll.
type Deadliner interface {
    SetReadDeadline(t time.Time) error
}

// Conn wraps an io.ReadWriter to send/receive package frames. Send and Recv
// may be used from different goroutines; each side is single-user.
type Conn struct {
    rw  io.ReadWriter
    br  *bufio.Reader
    wmu sync.Mutex
    bw  *bufio.Writer
}

func New(rw io.ReadWriter) *Conn {
    return &Conn{rw: rw, br: bufio.NewReader(rw), bw: bufio.NewWriter(rw)}
}

func NewNetConn(c net.Conn) *Conn { return New(c) }

// Reader exposes the buffered reader, e.g. for a line based handshake that
// precedes framing. Bytes it buffers stay available to Recv.
func (c *Conn) Reader() *bufio.Reader { return c.br }

// SetReadDeadline forwards to the underlying conn when it supports deadlines.
func (c *Conn) SetReadDeadline(t time.Time) error {
    if d, ok := c.rw.(Deadliner); ok { return d.SetReadDeadline(t) }
    return nil
}

// Send writes one frame and flushes.
func (c *Conn) Send(p *protocol.Package) error {
    c.wmu.Lock()
    defer c.wmu.Unlock()
    if _, err := p.WriteTo(c.bw); err != nil { return err }
    return c.bw.Flush()
}

// WriteRaw writes b unframed and flushes.
func (c *Conn) WriteRaw(b []byte) error {
    c.wmu.Lock()
    defer c.wmu.Unlock()
    if _, err := c.bw.Write(b); err != nil { return err }
    return c.bw.Flush()
}

// Recv blocks until a whole frame is read.
func (c *Conn) Recv(p *protocol.Package) error {
    _, err := p.ReadFrom(c.br)
    return err
}

// Poll waits up to timeout for at least one readable byte. It returns false
// with a nil error on timeout. The read deadline is cleared before returning
// so a frame is never cut in half by it.
func (c *Conn) Poll(timeout time.Duration) (bool, error) {
    if c.br.Buffered() > 0 { return true, nil }
    d, ok := c.rw.(Deadliner)
    if !ok {
        _, err := c.br.Peek(1)
        return err == nil, err
    }
    if err := d.SetReadDeadline(time.Now().Add(timeout)); err != nil { return false, err }
    _, err := c.br.Peek(1)
    if rerr := d.SetReadDeadline(time.Time{}); rerr != nil && err == nil { err = rerr }
    if err == nil { return true, nil }
    if IsTimeout(err) { return false, nil }
    return false, err
}

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool {
    if errors.Is(err, os.ErrDeadlineExceeded) { return true }
    var ne net.Error
    return errors.As(err, &ne) && ne.Timeout()
}
