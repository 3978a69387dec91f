package protocol

import (
    "fmt"
    "strings"

    "yoton/pkg/uid"
)

// Package is the unit of transfer between contexts. Connections treat a
// Package as read-only; the same value may sit in several out queues.
type Package struct {
    Kind      Kind
    Data      []byte
    Slot      uint64
    SourceID  uid.UID
    SourceSeq uint64
    // DestID zero floods the package to every context.
    DestID uid.UID
    // RecvSeq is stamped on local deposit and never sent.
    RecvSeq uint64
}

// New returns a data package for slot addressed to dest (0 = everyone).
func New(slot uint64, data []byte, dest uid.UID) *Package {
    return &Package{Kind: KindData, Slot: slot, Data: data, DestID: dest}
}

// NewControl returns a context control message.
func NewControl(text string, dest uid.UID) *Package {
    return New(SlotContext, []byte(text), dest)
}

// Heartbeat and CloseNotice build link maintenance frames.
func Heartbeat() *Package   { return &Package{Kind: KindHeartbeat} }
func CloseNotice() *Package { return &Package{Kind: KindClose} }

// IsControl reports whether p travels on the reserved context slot.
func (p *Package) IsControl() bool { return p.Kind == KindData && p.Slot == SlotContext }

// Text returns Data as a string, replacing invalid UTF-8.
func (p *Package) Text() string {
    return strings.ToValidUTF8(string(p.Data), "\uFFFD")
}

// Clone returns a shallow copy sharing Data.
func (p *Package) Clone() *Package {
    c := *p
    return &c
}

func (p *Package) header() Header {
    return Header{
        Version:    Version,
        Kind:       p.Kind,
        PayloadLen: uint32(len(p.Data)),
        Slot:       p.Slot,
        SourceID:   uint64(p.SourceID),
        SourceSeq:  p.SourceSeq,
        DestID:     uint64(p.DestID),
    }
}

func (p *Package) fromHeader(h Header) {
    p.Kind = h.Kind
    p.Slot = h.Slot
    p.SourceID = uid.UID(h.SourceID)
    p.SourceSeq = h.SourceSeq
    p.DestID = uid.UID(h.DestID)
    p.RecvSeq = 0
}

func (p *Package) String() string {
    if p.Kind != KindData {
        return fmt.Sprintf("<Package %s>", p.Kind)
    }
    return fmt.Sprintf("<Package slot=%d src=%s seq=%d dest=%s len=%d>",
        p.Slot, p.SourceID.Hex(), p.SourceSeq, p.DestID.Hex(), len(p.Data))
}
