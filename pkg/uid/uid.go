// Package uid generates the 64-bit identifiers used for contexts and
// connections. The high 32 bits carry a millisecond timestamp that is strictly
// increasing per generator, the low 32 bits are random.
package uid

import (
    "encoding/binary"
    "fmt"
    "math/rand/v2"
    "strconv"
    "sync"
    "time"
)

// UID is an 8-byte unique identifier. The zero UID means "no id".
type UID uint64

// Hex returns the 16 character hexadecimal representation.
func (u UID) Hex() string { return fmt.Sprintf("%016x", uint64(u)) }

// Bytes returns the id as 8 little-endian bytes.
func (u UID) Bytes() []byte {
    b := make([]byte, 8)
    binary.LittleEndian.PutUint64(b, uint64(u))
    return b
}

// Timestamp returns the 32-bit timestamp part.
func (u UID) Timestamp() uint32 { return uint32(uint64(u) >> 32) }

func (u UID) String() string {
    h := u.Hex()
    return "<UID " + h[:8] + "-" + h[8:] + ">"
}

// Parse reads a hexadecimal UID as produced by Hex.
func Parse(s string) (UID, error) {
    v, err := strconv.ParseUint(s, 16, 64)
    if err != nil { return 0, fmt.Errorf("uid: parse %q: %w", s, err) }
    return UID(v), nil
}

// FromBytes decodes 8 little-endian bytes.
func FromBytes(b []byte) (UID, error) {
    if len(b) != 8 { return 0, fmt.Errorf("uid: need 8 bytes, got %d", len(b)) }
    return UID(binary.LittleEndian.Uint64(b)), nil
}

// Generator produces UIDs. Safe for concurrent use.
type Generator struct {
    mu     sync.Mutex
    last   uint64
    now    func() time.Time
    random func() uint32
}

// NewGenerator returns a generator with its own timestamp state. Nil clock or
// random source fall back to time.Now and math/rand.
func NewGenerator(now func() time.Time, random func() uint32) *Generator {
    if now == nil { now = time.Now }
    if random == nil { random = rand.Uint32 }
    return &Generator{now: now, random: random}
}

// New returns the next id.
func (g *Generator) New() UID {
    g.mu.Lock()
    ts := uint64(g.now().UnixMilli())
    if ts <= g.last {
        ts = g.last + 1
    }
    g.last = ts
    // Wraps after roughly 50 days; zero is skipped.
    ts &= 0xffffffff
    if ts == 0 {
        ts++
        g.last++
    }
    g.mu.Unlock()
    return UID(ts<<32 | uint64(g.random()))
}

var defaultGenerator = NewGenerator(nil, nil)

// New returns an id from the process-wide generator.
func New() UID { return defaultGenerator.New() }
