package address

import "math/big"

const (
    hashFactor = 0xd2d84a61

    // ReservedSlots is the number of slot ids below which SlotHash never maps.
    ReservedSlots = 8

    // PortBase is the first port in the IANA dynamic range.
    PortBase = 49152
    portSpan = 1 << 14
)

var (
    slotModulus = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(ReservedSlots))
    portModulus = big.NewInt(portSpan)
)

// rollingHash accumulates over the runes of name with unbounded precision so
// values match across platforms for long names.
func rollingHash(name string) *big.Int {
    fac := big.NewInt(hashFactor)
    val := new(big.Int)
    tmp := new(big.Int)
    n := 0
    for _, r := range name {
        tmp.Rsh(val, 3)
        val.Add(val, tmp)
        tmp.Mul(big.NewInt(int64(r)), fac)
        val.Add(val, tmp)
        n++
    }
    tmp.Rsh(val, 3)
    val.Add(val, tmp)
    tmp.Mul(big.NewInt(int64(n)), fac)
    val.Add(val, tmp)
    return val
}

// SlotHash maps a channel name to a slot id in [8, 2^64).
func SlotHash(name string) uint64 {
    v := new(big.Int).Mod(rollingHash(name), slotModulus)
    return ReservedSlots + v.Uint64()
}

// PortHash maps a name to a port in [49152, 65535].
func PortHash(name string) int {
    v := new(big.Int).Mod(rollingHash(name), portModulus)
    return PortBase + int(v.Int64())
}
