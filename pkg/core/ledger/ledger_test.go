package ledger

import (
    "container/heap"
    "sync"
    "testing"
    "time"

    "yoton/pkg/uid"
)

func TestAdvanceRejectsStaleAndRepeated(t *testing.T) {
    l := New(Options{})
    defer l.Close()

    src := uid.UID(0xabc)
    if !l.Advance(src, 5) { t.Fatalf("first seq rejected") }
    if l.Advance(src, 5) { t.Fatalf("repeated seq accepted") }
    if l.Advance(src, 3) { t.Fatalf("stale seq accepted") }
    if !l.Advance(src, 9) { t.Fatalf("newer seq rejected") }
    if last, ok := l.Last(src); !ok || last != 9 { t.Fatalf("last = %d %v", last, ok) }

    other := uid.UID(0xdef)
    if !l.Advance(other, 1) { t.Fatalf("independent source rejected") }
    m := l.Metrics()
    if m.Sources != 2 || m.Accepted != 3 || m.Stale != 2 {
        t.Fatalf("metrics %+v", m)
    }
}

func TestForget(t *testing.T) {
    l := New(Options{Shards: 4})
    defer l.Close()
    src := uid.UID(7)
    l.Advance(src, 100)
    if !l.Forget(src) { t.Fatalf("forget missing") }
    if l.Forget(src) { t.Fatalf("double forget") }
    if !l.Advance(src, 1) { t.Fatalf("restarted source rejected after forget") }
    if l.Len() != 1 { t.Fatalf("len = %d", l.Len()) }
}

func TestConcurrentAdvanceAcceptsEachSeqOnce(t *testing.T) {
    l := New(Options{})
    defer l.Close()
    src := uid.UID(42)
    var mu sync.Mutex
    seen := make(map[uint64]int)
    var wg sync.WaitGroup
    for g := 0; g < 8; g++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for seq := uint64(1); seq <= 500; seq++ {
                if l.Advance(src, seq) {
                    mu.Lock()
                    seen[seq]++
                    mu.Unlock()
                }
            }
        }()
    }
    wg.Wait()
    if last, _ := l.Last(src); last != 500 { t.Fatalf("last = %d", last) }
    for seq, n := range seen {
        if n != 1 { t.Fatalf("seq %d accepted %d times", seq, n) }
    }
    if m := l.Metrics(); m.Accepted+m.Stale != 8*500 {
        t.Fatalf("every call must be counted: %+v", m)
    }
}

func TestIdleExpiry(t *testing.T) {
    l := New(Options{IdleTTL: 40 * time.Millisecond})
    defer l.Close()
    idle, busy := uid.UID(1), uid.UID(2)
    l.Advance(idle, 10)
    l.Advance(busy, 10)

    deadline := time.Now().Add(2 * time.Second)
    seq := uint64(11)
    for time.Now().Before(deadline) {
        l.Advance(busy, seq)
        seq++
        if _, ok := l.Last(idle); !ok { break }
        time.Sleep(5 * time.Millisecond)
    }
    if _, ok := l.Last(idle); ok { t.Fatalf("idle source not expired") }
    if _, ok := l.Last(busy); !ok { t.Fatalf("busy source expired") }
    if l.Metrics().Expired != 1 { t.Fatalf("metrics %+v", l.Metrics()) }
    if !l.Advance(idle, 1) { t.Fatalf("expired source should start afresh") }
}

func TestNoExpiryByDefault(t *testing.T) {
    now := time.Unix(0, 0)
    l := newWithClock(Options{}, func() time.Time { return now })
    defer l.Close()
    l.Advance(uid.UID(3), 1)
    now = now.Add(24 * time.Hour)
    if _, ok := l.Last(uid.UID(3)); !ok { t.Fatalf("entry dropped without IdleTTL") }
}

func TestExpiryHeapOrdersByDeadline(t *testing.T) {
    var h expHeap
    for _, w := range []int64{50, 10, 40, 20, 30} {
        heap.Push(&h, expItem{when: w, src: uid.UID(w)})
    }
    for want := int64(10); want <= 50; want += 10 {
        if it := heap.Pop(&h).(expItem); it.when != want { t.Fatalf("popped %d, want %d", it.when, want) }
    }
}

func TestExpiryWhileAdvancingManySources(t *testing.T) {
    l := New(Options{IdleTTL: 5 * time.Millisecond})
    defer l.Close()
    var wg sync.WaitGroup
    for g := 0; g < 4; g++ {
        wg.Add(1)
        go func(g int) {
            defer wg.Done()
            for i := 0; i < 300; i++ {
                l.Advance(uid.UID(g*1000+i%50), uint64(i+1))
                if i%50 == 0 { time.Sleep(time.Millisecond) }
            }
        }(g)
    }
    wg.Wait()

    deadline := time.Now().Add(2 * time.Second)
    for l.Metrics().Sources != 0 {
        if time.Now().After(deadline) { t.Fatalf("sources left: %+v", l.Metrics()) }
        time.Sleep(5 * time.Millisecond)
    }
}
