package protocol

import (
    "encoding/binary"
    "errors"
    "fmt"
)

// Fixed header layout (40 bytes), little-endian:
//
//  0  ..1   Magic      'Y''O' (0x4f59)
//  2        Version    u8
//  3        Kind       u8
//  4  ..7   PayloadLen u32
//  8  ..15  Slot       u64
//  16 ..23  SourceID   u64
//  24 ..31  SourceSeq  u64
//  32 ..39  DestID     u64
const (
    HeaderSize = 40
    magicWord  = uint16(0x4f59)
)

var (
    ErrShortHeader = errors.New("protocol: short header")
    ErrBadMagic    = errors.New("protocol: bad magic")
)

// Header is the decoded fixed part of a frame.
type Header struct {
    Version    uint8
    Kind       Kind
    PayloadLen uint32
    Slot       uint64
    SourceID   uint64
    SourceSeq  uint64
    DestID     uint64
}

// MarshalBinary encodes the header into a fresh HeaderSize buffer.
func (h *Header) MarshalBinary() ([]byte, error) {
    buf := make([]byte, HeaderSize)
    h.put(buf)
    return buf, nil
}

func (h *Header) put(buf []byte) {
    binary.LittleEndian.PutUint16(buf[0:2], magicWord)
    buf[2] = h.Version
    buf[3] = byte(h.Kind)
    binary.LittleEndian.PutUint32(buf[4:8], h.PayloadLen)
    binary.LittleEndian.PutUint64(buf[8:16], h.Slot)
    binary.LittleEndian.PutUint64(buf[16:24], h.SourceID)
    binary.LittleEndian.PutUint64(buf[24:32], h.SourceSeq)
    binary.LittleEndian.PutUint64(buf[32:40], h.DestID)
}

// UnmarshalBinary decodes and validates a header.
func (h *Header) UnmarshalBinary(buf []byte) error {
    if len(buf) < HeaderSize {
        return ErrShortHeader
    }
    if binary.LittleEndian.Uint16(buf[0:2]) != magicWord {
        return ErrBadMagic
    }
    h.Version = buf[2]
    h.Kind = Kind(buf[3])
    h.PayloadLen = binary.LittleEndian.Uint32(buf[4:8])
    h.Slot = binary.LittleEndian.Uint64(buf[8:16])
    h.SourceID = binary.LittleEndian.Uint64(buf[16:24])
    h.SourceSeq = binary.LittleEndian.Uint64(buf[24:32])
    h.DestID = binary.LittleEndian.Uint64(buf[32:40])
    if h.Version != Version {
        return fmt.Errorf("protocol: unsupported version %d", h.Version)
    }
    if h.Kind > KindClose {
        return fmt.Errorf("protocol: unknown frame kind %d", h.Kind)
    }
    if h.PayloadLen > MaxPayload {
        return fmt.Errorf("protocol: payload too large: %d", h.PayloadLen)
    }
    return nil
}
