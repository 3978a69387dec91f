package pkgqueue

import (
    "context"
    "testing"
    "time"
)

func TestTokenBucketLimits(t *testing.T) {
    b := NewTokenBucket(1000, 100)
    if ok, _ := b.Allow(100); !ok { t.Fatalf("initial burst refused") }
    ok, wait := b.Allow(50)
    if ok || wait <= 0 { t.Fatalf("expected to wait, got ok=%v wait=%v", ok, wait) }

    ctx, cancel := context.WithTimeout(context.Background(), time.Second)
    defer cancel()
    start := time.Now()
    if err := b.Wait(ctx, 50); err != nil { t.Fatalf("wait: %v", err) }
    if time.Since(start) < 30*time.Millisecond { t.Fatalf("wait returned too early") }
}

func TestNilTokenBucketIsUnlimited(t *testing.T) {
    b := NewTokenBucket(0, 0)
    if b != nil { t.Fatalf("expected nil bucket") }
    if err := b.Wait(context.Background(), 1<<30); err != nil { t.Fatalf("wait: %v", err) }
}
