package protocol

// Kind distinguishes payload frames from link maintenance frames.
// Only KindData frames ever reach a Context.
type Kind uint8

const (
    KindData      Kind = iota
    KindHeartbeat      // keeps an idle link from timing out
    KindClose          // peer is closing the link
)

func (k Kind) String() string {
    switch k {
    case KindData:
        return "data"
    case KindHeartbeat:
        return "heartbeat"
    case KindClose:
        return "close"
    default:
        return "unknown"
    }
}

// Reserved slots. Slot hashes of channel names never fall below ReservedSlots.
const (
    SlotContext   uint64 = 0
    ReservedSlots uint64 = 8
)

// Control texts carried on SlotContext.
const (
    MsgNewConnection   = "NEW_CONNECTION"
    MsgCloseConnection = "CLOSE_CONNECTION"
)

// Version is written in every frame header.
const Version uint8 = 1

// MaxPayload bounds a single package payload on the wire.
const MaxPayload = 1 << 24
