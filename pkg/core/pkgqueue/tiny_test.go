package pkgqueue

import (
    "testing"
    "time"
)

func TestTinyPushBelowSoftLimitIsImmediate(t *testing.T) {
    q := NewTiny(2, 5, DiscardOld, time.Second)
    start := time.Now()
    q.Push(pkg(1))
    q.Push(pkg(2))
    if el := time.Since(start); el > 100*time.Millisecond {
        t.Fatalf("push below soft limit took %v", el)
    }
}

func TestTinyPushBlocksForTimeout(t *testing.T) {
    q := NewTiny(2, 5, DiscardOld, 80*time.Millisecond)
    q.Push(pkg(1))
    q.Push(pkg(2))
    start := time.Now()
    q.Push(pkg(3))
    if el := time.Since(start); el < 70*time.Millisecond {
        t.Fatalf("push over soft limit returned after %v", el)
    }
    if q.Len() != 3 { t.Fatalf("item not appended after timeout: len %d", q.Len()) }
}

func TestTinyPushWokenByPop(t *testing.T) {
    q := NewTiny(2, 5, DiscardOld, 5*time.Second)
    q.Push(pkg(1))
    q.Push(pkg(2))
    go func() {
        time.Sleep(30 * time.Millisecond)
        _, _ = q.Pop(NoWait)
    }()
    start := time.Now()
    q.Push(pkg(3))
    if el := time.Since(start); el > 2*time.Second {
        t.Fatalf("pop did not wake pusher, took %v", el)
    }
    if q.Len() != 2 { t.Fatalf("len = %d", q.Len()) }
}

func TestTinyHardLimitDiscards(t *testing.T) {
    q := NewTiny(1, 3, DiscardNew, time.Millisecond)
    for i := uint64(1); i <= 5; i++ { q.Push(pkg(i)) }
    if q.Len() != 3 { t.Fatalf("len = %d", q.Len()) }
    if p, _ := q.Peek(-1); p.SourceSeq != 3 { t.Fatalf("newest kept = %d", p.SourceSeq) }
}

func TestTinyCloseReleasesPusher(t *testing.T) {
    q := NewTiny(1, 3, DiscardOld, 10*time.Second)
    q.Push(pkg(1))
    done := make(chan bool, 1)
    go func() { done <- q.Push(pkg(2)) }()
    time.Sleep(20 * time.Millisecond)
    q.Close()
    select {
    case stored := <-done:
        if stored { t.Fatalf("push stored after close") }
    case <-time.After(time.Second):
        t.Fatalf("pusher not released")
    }
}
