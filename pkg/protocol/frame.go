package protocol

import (
    "fmt"
    "io"
)

// WriteTo writes header + payload to w.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
    if len(p.Data) > MaxPayload {
        return 0, fmt.Errorf("protocol: payload too large: %d", len(p.Data))
    }
    var hb [HeaderSize]byte
    h := p.header()
    h.put(hb[:])
    n1, err := w.Write(hb[:])
    if err != nil {
        return int64(n1), err
    }
    if len(p.Data) == 0 {
        return int64(n1), nil
    }
    n2, err := w.Write(p.Data)
    return int64(n1 + n2), err
}

// ReadFrom reads one frame from r into p.
func (p *Package) ReadFrom(r io.Reader) (int64, error) {
    var hb [HeaderSize]byte
    if _, err := io.ReadFull(r, hb[:]); err != nil {
        return 0, err
    }
    var h Header
    if err := h.UnmarshalBinary(hb[:]); err != nil {
        return HeaderSize, err
    }
    p.fromHeader(h)
    if h.PayloadLen == 0 {
        p.Data = nil
        return HeaderSize, nil
    }
    p.Data = make([]byte, int(h.PayloadLen))
    if _, err := io.ReadFull(r, p.Data); err != nil {
        return HeaderSize, err
    }
    return int64(HeaderSize + int(h.PayloadLen)), nil
}

// EncodeFrame returns header+payload as a single byte slice.
func (p *Package) EncodeFrame() ([]byte, error) {
    if len(p.Data) > MaxPayload {
        return nil, fmt.Errorf("protocol: payload too large: %d", len(p.Data))
    }
    out := make([]byte, HeaderSize+len(p.Data))
    h := p.header()
    h.put(out)
    copy(out[HeaderSize:], p.Data)
    return out, nil
}

// DecodeFrame parses a single frame from buf and returns the bytes consumed.
func (p *Package) DecodeFrame(buf []byte) (int, error) {
    if len(buf) < HeaderSize {
        return 0, io.ErrUnexpectedEOF
    }
    var h Header
    if err := h.UnmarshalBinary(buf[:HeaderSize]); err != nil {
        return 0, err
    }
    need := HeaderSize + int(h.PayloadLen)
    if need > len(buf) {
        return 0, io.ErrUnexpectedEOF
    }
    p.fromHeader(h)
    if h.PayloadLen == 0 {
        p.Data = nil
    } else {
        p.Data = append([]byte(nil), buf[HeaderSize:need]...)
    }
    return need, nil
}
