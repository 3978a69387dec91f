package ledger

import (
    "container/heap"
    "sync"
    "sync/atomic"
    "time"

    "yoton/pkg/uid"
)

// ========================= Options =========================

type Options struct {
    Shards int // default 64
    // IdleTTL forgets a source that has not advanced for this long.
    // Zero keeps every source for the lifetime of the ledger.
    IdleTTL time.Duration
}

func (o Options) withDefaults() Options {
    if o.Shards <= 0 {
        o.Shards = 64
    }
    return o
}

// ========================= Ledger =========================

type Ledger struct {
    opts    Options
    shards  []shard
    expq    *expQueue
    closeCh chan struct{}
    closed  atomic.Bool
    wg      sync.WaitGroup

    nowFn func() time.Time

    mSources  atomic.Uint64
    mAccepted atomic.Uint64
    mStale    atomic.Uint64
    mExpired  atomic.Uint64
}

type shard struct {
    mu sync.Mutex
    m  map[uid.UID]*entry
}

type entry struct {
    last    uint64
    touched int64 // unix nano of the last accepted sequence
}

// New returns a ledger. With IdleTTL set a background goroutine sweeps idle
// sources until Close.
func New(opts Options) *Ledger {
    return newWithClock(opts, time.Now)
}

func newWithClock(opts Options, now func() time.Time) *Ledger {
    opts = opts.withDefaults()
    l := &Ledger{
        opts:    opts,
        shards:  make([]shard, opts.Shards),
        expq:    &expQueue{},
        closeCh: make(chan struct{}),
        nowFn:   now,
    }
    for i := range l.shards {
        l.shards[i].m = make(map[uid.UID]*entry)
    }
    l.expq.cond = sync.NewCond(&l.expq.mu)
    if opts.IdleTTL > 0 {
        l.wg.Add(1)
        go l.expirer()
    }
    return l
}

// Close stops the sweeper. The ledger stays usable without expiry.
func (l *Ledger) Close() {
    if !l.closed.CompareAndSwap(false, true) { return }
    close(l.closeCh)
    l.expq.mu.Lock()
    l.expq.cond.Broadcast()
    l.expq.mu.Unlock()
    l.wg.Wait()
}

func (l *Ledger) shardFor(src uid.UID) *shard {
    // FNV-1a over the 8 id bytes
    var h uint64 = 1469598103934665603
    v := uint64(src)
    for i := 0; i < 8; i++ {
        h ^= v & 0xff
        h *= 1099511628211
        v >>= 8
    }
    return &l.shards[int(h%uint64(len(l.shards)))]
}

// ========================= Operations =========================

// Advance records seq for src if it is newer than anything seen before. It
// returns false, leaving the ledger untouched, for a stale or repeated seq.
func (l *Ledger) Advance(src uid.UID, seq uint64) bool {
    sh := l.shardFor(src)
    now := l.nowFn().UnixNano()
    sh.mu.Lock()
    e := sh.m[src]
    if e == nil {
        sh.m[src] = &entry{last: seq, touched: now}
        sh.mu.Unlock()
        l.mSources.Add(1)
        l.mAccepted.Add(1)
        if l.opts.IdleTTL > 0 {
            l.enqueueExpire(src, now+int64(l.opts.IdleTTL))
        }
        return true
    }
    if seq <= e.last {
        sh.mu.Unlock()
        l.mStale.Add(1)
        return false
    }
    e.last = seq
    e.touched = now
    sh.mu.Unlock()
    l.mAccepted.Add(1)
    return true
}

// Last returns the highest sequence seen for src.
func (l *Ledger) Last(src uid.UID) (uint64, bool) {
    sh := l.shardFor(src)
    sh.mu.Lock()
    defer sh.mu.Unlock()
    if e := sh.m[src]; e != nil {
        return e.last, true
    }
    return 0, false
}

// Forget drops src so its next sequence is accepted whatever its value.
func (l *Ledger) Forget(src uid.UID) bool {
    sh := l.shardFor(src)
    sh.mu.Lock()
    _, ok := sh.m[src]
    if ok {
        delete(sh.m, src)
    }
    sh.mu.Unlock()
    if ok {
        l.mSources.Add(^uint64(0))
    }
    return ok
}

// Len returns the number of tracked sources.
func (l *Ledger) Len() int { return int(l.mSources.Load()) }

// ========================= Metrics =========================

// Stats is a snapshot of the ledger counters.
type Stats struct {
    Sources  uint64
    Accepted uint64
    Stale    uint64
    Expired  uint64
}

func (l *Ledger) Metrics() Stats {
    return Stats{
        Sources:  l.mSources.Load(),
        Accepted: l.mAccepted.Load(),
        Stale:    l.mStale.Load(),
        Expired:  l.mExpired.Load(),
    }
}

// ========================= Expiry =========================

// One heap item per source. When it comes due and the source was touched
// since, it is pushed back with the new deadline.
type expItem struct {
    when int64
    src  uid.UID
}

// expHeap is ordered by deadline. It is only touched with expQueue.mu held.
type expHeap []expItem

func (h expHeap) Len() int           { return len(h) }
func (h expHeap) Less(i, j int) bool { return h[i].when < h[j].when }
func (h expHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *expHeap) Push(x any)        { *h = append(*h, x.(expItem)) }
func (h *expHeap) Pop() any {
    old := *h
    n := len(old)
    it := old[n-1]
    *h = old[:n-1]
    return it
}

type expQueue struct {
    mu    sync.Mutex
    cond  *sync.Cond
    items expHeap
}

func (l *Ledger) enqueueExpire(src uid.UID, when int64) {
    l.expq.mu.Lock()
    heap.Push(&l.expq.items, expItem{when: when, src: src})
    l.expq.cond.Broadcast()
    l.expq.mu.Unlock()
}

func (l *Ledger) expirer() {
    defer l.wg.Done()
    for {
        l.expq.mu.Lock()
        for len(l.expq.items) == 0 {
            if l.closed.Load() {
                l.expq.mu.Unlock()
                return
            }
            l.expq.cond.Wait()
        }
        if l.closed.Load() {
            l.expq.mu.Unlock()
            return
        }
        it := l.expq.items[0]
        now := l.nowFn().UnixNano()
        if it.when > now {
            timer := time.NewTimer(time.Duration(it.when - now))
            l.expq.mu.Unlock()
            select {
            case <-timer.C:
            case <-l.closeCh:
                timer.Stop()
                return
            }
            continue
        }
        heap.Pop(&l.expq.items)
        l.expq.mu.Unlock()
        l.sweep(it.src)
    }
}

func (l *Ledger) sweep(src uid.UID) {
    sh := l.shardFor(src)
    now := l.nowFn().UnixNano()
    ttl := int64(l.opts.IdleTTL)
    sh.mu.Lock()
    e := sh.m[src]
    if e == nil {
        sh.mu.Unlock()
        return
    }
    if due := e.touched + ttl; due > now {
        sh.mu.Unlock()
        l.enqueueExpire(src, due)
        return
    }
    delete(sh.m, src)
    sh.mu.Unlock()
    l.mSources.Add(^uint64(0))
    l.mExpired.Add(1)
}
