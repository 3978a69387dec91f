package netstack

import (
    "math/rand/v2"
    "time"
)

// backoff doubles from BackoffInitial up to BackoffMax.
type backoff struct {
    initial, max, jitter time.Duration
    cur                  time.Duration
}

func newBackoff(o Options) *backoff {
    return &backoff{initial: o.BackoffInitial, max: o.BackoffMax, jitter: o.BackoffJitter, cur: o.BackoffInitial}
}

func (b *backoff) next() time.Duration {
    d := b.cur
    if b.cur < b.max {
        b.cur *= 2
        if b.cur > b.max { b.cur = b.max }
    }
    return withJitter(d, b.jitter)
}

func (b *backoff) reset() { b.cur = b.initial }

// withJitter adds a random 0..jitter to d.
func withJitter(d, jitter time.Duration) time.Duration {
    if jitter <= 0 { return d }
    return d + rand.N(jitter)
}
