package pkgqueue

import (
    "sync"
    "testing"
    "time"

    "yoton/pkg/protocol"
)

func pkg(seq uint64) *protocol.Package {
    return &protocol.Package{Slot: 10, SourceSeq: seq}
}

func popSeq(t *testing.T, q *Queue) uint64 {
    t.Helper()
    p, err := q.Pop(NoWait)
    if err != nil { t.Fatalf("pop: %v", err) }
    return p.SourceSeq
}

func TestDiscardOld(t *testing.T) {
    q := New(3, DiscardOld)
    for i := uint64(1); i <= 5; i++ {
        if !q.Push(pkg(i)) { t.Fatalf("push %d rejected", i) }
    }
    if q.Len() != 3 || !q.Full() { t.Fatalf("len = %d", q.Len()) }
    for _, want := range []uint64{3, 4, 5} {
        if got := popSeq(t, q); got != want { t.Fatalf("got %d want %d", got, want) }
    }
}

func TestDiscardNew(t *testing.T) {
    q := New(3, DiscardNew)
    for i := uint64(1); i <= 5; i++ {
        stored := q.Push(pkg(i))
        if stored != (i <= 3) { t.Fatalf("push %d stored=%v", i, stored) }
    }
    for _, want := range []uint64{1, 2, 3} {
        if got := popSeq(t, q); got != want { t.Fatalf("got %d want %d", got, want) }
    }
}

func TestInsertGoesFirstAndNeverDiscards(t *testing.T) {
    q := New(2, DiscardNew)
    q.Push(pkg(1))
    q.Push(pkg(2))
    q.Insert(pkg(9))
    q.Insert(pkg(8))
    if q.Len() != 4 { t.Fatalf("insert discarded: len %d", q.Len()) }
    if p, _ := q.Peek(0); p.SourceSeq != 8 { t.Fatalf("peek 0 = %d", p.SourceSeq) }
    if p, _ := q.Peek(-1); p.SourceSeq != 2 { t.Fatalf("peek -1 = %d", p.SourceSeq) }
    if p, _ := q.Peek(2); p.SourceSeq != 1 { t.Fatalf("peek 2 = %d", p.SourceSeq) }
    if _, ok := q.Peek(4); ok { t.Fatalf("peek past end") }
    if _, ok := q.Peek(-5); ok { t.Fatalf("peek before start") }
    for _, want := range []uint64{8, 9, 1, 2} {
        if got := popSeq(t, q); got != want { t.Fatalf("got %d want %d", got, want) }
    }
}

func TestPopModes(t *testing.T) {
    q := New(10, DiscardOld)
    if _, err := q.Pop(NoWait); err != ErrEmpty { t.Fatalf("nowait: %v", err) }

    start := time.Now()
    if _, err := q.Pop(60 * time.Millisecond); err != ErrEmpty { t.Fatalf("timeout: %v", err) }
    if el := time.Since(start); el < 50*time.Millisecond {
        t.Fatalf("timed pop returned after %v", el)
    }

    go func() {
        time.Sleep(20 * time.Millisecond)
        q.Push(pkg(7))
    }()
    p, err := q.Pop(Forever)
    if err != nil || p.SourceSeq != 7 { t.Fatalf("blocking pop: %v %v", p, err) }
}

func TestCloseWakesPoppers(t *testing.T) {
    q := New(10, DiscardOld)
    q.Push(pkg(1))
    q.Close()
    q.Push(pkg(2))
    if got := popSeq(t, q); got != 1 { t.Fatalf("drain got %d", got) }
    if _, err := q.Pop(Forever); err != ErrClosed { t.Fatalf("after close: %v", err) }

    q2 := New(10, DiscardOld)
    done := make(chan error, 1)
    go func() {
        _, err := q2.Pop(Forever)
        done <- err
    }()
    time.Sleep(20 * time.Millisecond)
    q2.Close()
    select {
    case err := <-done:
        if err != ErrClosed { t.Fatalf("woken with %v", err) }
    case <-time.After(time.Second):
        t.Fatalf("blocked pop not woken by close")
    }
}

func TestDrainAndClear(t *testing.T) {
    q := New(10, DiscardOld)
    for i := uint64(1); i <= 3; i++ { q.Push(pkg(i)) }
    q.Insert(pkg(0))
    got := q.Drain()
    if len(got) != 4 || got[0].SourceSeq != 0 || got[3].SourceSeq != 3 {
        t.Fatalf("drain order wrong: %v", got)
    }
    q.Push(pkg(5))
    q.Clear()
    if !q.Empty() { t.Fatalf("clear left %d", q.Len()) }
}

func TestConcurrentProducersKeepAll(t *testing.T) {
    q := New(1000, DiscardNew)
    var wg sync.WaitGroup
    for g := 0; g < 4; g++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for i := 0; i < 100; i++ { q.Push(pkg(uint64(i))) }
        }()
    }
    got := 0
    for got < 400 {
        if _, err := q.Pop(time.Second); err != nil { t.Fatalf("pop %d: %v", got, err) }
        got++
    }
    wg.Wait()
}

func TestParseDiscard(t *testing.T) {
    if d, err := ParseDiscard("NEW"); err != nil || d != DiscardNew { t.Fatalf("%v %v", d, err) }
    if _, err := ParseDiscard("middle"); err == nil { t.Fatalf("expected error") }
}
