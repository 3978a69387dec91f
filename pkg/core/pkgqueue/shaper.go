package pkgqueue

import (
    "context"
    "sync"
    "time"
)

// TokenBucket limits outbound bytes per second on a connection.
type TokenBucket struct {
    mu       sync.Mutex
    capacity int64
    tokens   int64
    rate     int64 // tokens per second
    last     time.Time
}

// NewTokenBucket returns nil for a non-positive rate, meaning unlimited.
func NewTokenBucket(ratePerSec, capacity int64) *TokenBucket {
    if ratePerSec <= 0 { return nil }
    if capacity <= 0 { capacity = ratePerSec }
    return &TokenBucket{capacity: capacity, tokens: capacity, rate: ratePerSec, last: time.Now()}
}

// Allow tries to consume n tokens; if not enough, returns duration to wait.
func (b *TokenBucket) Allow(n int64) (ok bool, wait time.Duration) {
    b.mu.Lock(); defer b.mu.Unlock()
    now := time.Now()
    dt := now.Sub(b.last)
    if dt > 0 {
        add := (b.rate * dt.Nanoseconds()) / int64(time.Second)
        if add > 0 {
            b.tokens += add
            if b.tokens > b.capacity { b.tokens = b.capacity }
            b.last = now
        }
    }
    // A frame larger than the bucket drains it completely.
    if n > b.capacity { n = b.capacity }
    if b.tokens >= n {
        b.tokens -= n
        return true, 0
    }
    need := n - b.tokens
    nanos := (need * int64(time.Second)) / b.rate
    return false, time.Duration(nanos)
}

// Wait blocks until n tokens are available or ctx is done. A nil bucket
// never waits.
func (b *TokenBucket) Wait(ctx context.Context, n int64) error {
    if b == nil { return nil }
    for {
        ok, wait := b.Allow(n)
        if ok { return nil }
        t := time.NewTimer(wait)
        select {
        case <-ctx.Done():
            t.Stop()
            return ctx.Err()
        case <-t.C:
        }
    }
}
