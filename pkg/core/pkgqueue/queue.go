// Package pkgqueue provides the bounded package queues used for outbound
// connection buffers and the startup buffer of a context.
package pkgqueue

import (
    "errors"
    "fmt"
    "strings"
    "sync"
    "time"

    "github.com/eapache/queue"

    "yoton/pkg/protocol"
)

// Discard selects what a full queue drops on Push.
type Discard int

const (
    DiscardOld Discard = iota // drop the head, keep the new item
    DiscardNew                // drop the new item
)

func (d Discard) String() string {
    if d == DiscardNew { return "new" }
    return "old"
}

// ParseDiscard accepts "old" or "new", case-insensitively.
func ParseDiscard(s string) (Discard, error) {
    switch strings.ToLower(s) {
    case "old", "":
        return DiscardOld, nil
    case "new":
        return DiscardNew, nil
    }
    return DiscardOld, fmt.Errorf("invalid discard mode %q", s)
}

// Wait values for Pop besides a positive duration.
const (
    NoWait  time.Duration = 0
    Forever time.Duration = -1
)

// DefaultCapacity matches the context buffer size.
const DefaultCapacity = 10000

var (
    ErrEmpty  = errors.New("pop from an empty PackageQueue")
    ErrClosed = errors.New("pkgqueue: closed")
)

// Queue is a bounded FIFO of packages with blocking pops. A queue built
// with NewTiny also applies backpressure: once it holds soft items a Push
// waits up to its push timeout for a Pop before appending anyway.
type Queue struct {
    mu      sync.Mutex
    front   []*protocol.Package // Insert stack, last element is the head
    ring    *queue.Queue
    max     int
    discard Discard
    closed  bool

    soft     int
    pushWait time.Duration

    notEmpty   waitList // poppers
    belowLimit waitList // pushers held by the soft limit
}

// New returns a queue holding at most n packages.
func New(n int, discard Discard) *Queue {
    if n <= 0 { n = DefaultCapacity }
    return &Queue{ring: queue.New(), max: n, discard: discard}
}

// NewTiny returns a queue with soft limit n1 and hard limit n2. Pushes
// beyond n1 wait up to pushWait for a consumer.
func NewTiny(n1, n2 int, discard Discard, pushWait time.Duration) *Queue {
    q := New(n2, discard)
    if n1 <= 0 || n1 >= q.max { n1 = q.max - 1 }
    q.soft = n1
    q.pushWait = pushWait
    return q
}

func (q *Queue) lenLocked() int { return len(q.front) + q.ring.Length() }

func (q *Queue) popLocked() *protocol.Package {
    if n := len(q.front); n > 0 {
        p := q.front[n-1]
        q.front[n-1] = nil
        q.front = q.front[:n-1]
        return p
    }
    return q.ring.Remove().(*protocol.Package)
}

// Push appends p, applying the discard policy when full. It reports whether
// p was stored.
func (q *Queue) Push(p *protocol.Package) bool {
    q.mu.Lock()
    defer q.mu.Unlock()
    if q.closed { return false }
    if n := q.lenLocked(); q.soft > 0 && n >= q.soft && n < q.max {
        q.belowLimit.wait(&q.mu, q.pushWait)
        if q.closed { return false }
    }
    if q.lenLocked() < q.max {
        q.ring.Add(p)
        q.notEmpty.signal()
        return true
    }
    if q.discard == DiscardNew { return false }
    q.popLocked()
    q.ring.Add(p)
    return true
}

// Insert puts p at the head. It never discards.
func (q *Queue) Insert(p *protocol.Package) {
    q.mu.Lock()
    defer q.mu.Unlock()
    if q.closed { return }
    q.front = append(q.front, p)
    q.notEmpty.signal()
}

// Inject appends p without blocking and without discarding.
func (q *Queue) Inject(p *protocol.Package) {
    q.mu.Lock()
    defer q.mu.Unlock()
    if q.closed { return }
    q.ring.Add(p)
    q.notEmpty.signal()
}

// Pop removes the head. wait is NoWait, Forever, or how long to wait for an
// item. It returns ErrEmpty when nothing arrived in time and ErrClosed once
// a closed queue is drained.
func (q *Queue) Pop(wait time.Duration) (*protocol.Package, error) {
    q.mu.Lock()
    defer q.mu.Unlock()
    switch {
    case wait < 0:
        for q.lenLocked() == 0 && !q.closed {
            q.notEmpty.wait(&q.mu, Forever)
        }
    case wait > 0:
        deadline := time.Now().Add(wait)
        for q.lenLocked() == 0 && !q.closed {
            left := time.Until(deadline)
            if left <= 0 { break }
            q.notEmpty.wait(&q.mu, left)
        }
    }
    if q.lenLocked() == 0 {
        if q.closed { return nil, ErrClosed }
        return nil, ErrEmpty
    }
    p := q.popLocked()
    if q.soft > 0 && q.lenLocked() <= q.soft {
        q.belowLimit.broadcast()
    }
    return p, nil
}

// Peek returns the item at index without removing it. Index 0 is the head,
// negative indexes count from the tail.
func (q *Queue) Peek(index int) (*protocol.Package, bool) {
    q.mu.Lock()
    defer q.mu.Unlock()
    n := q.lenLocked()
    if index < 0 { index += n }
    if index < 0 || index >= n { return nil, false }
    f := len(q.front)
    if index < f {
        return q.front[f-1-index], true
    }
    return q.ring.Get(index - f).(*protocol.Package), true
}

// Drain removes and returns every queued package in order.
func (q *Queue) Drain() []*protocol.Package {
    q.mu.Lock()
    defer q.mu.Unlock()
    out := make([]*protocol.Package, 0, q.lenLocked())
    for q.lenLocked() > 0 {
        out = append(out, q.popLocked())
    }
    q.belowLimit.broadcast()
    return out
}

// Clear drops every queued package.
func (q *Queue) Clear() {
    q.mu.Lock()
    defer q.mu.Unlock()
    q.front = nil
    q.ring = queue.New()
    q.belowLimit.broadcast()
}

// Close wakes all blocked callers. Further pushes are dropped; pops drain
// what is left and then return ErrClosed.
func (q *Queue) Close() {
    q.mu.Lock()
    defer q.mu.Unlock()
    if q.closed { return }
    q.closed = true
    q.notEmpty.broadcast()
    q.belowLimit.broadcast()
}

func (q *Queue) Len() int {
    q.mu.Lock()
    defer q.mu.Unlock()
    return q.lenLocked()
}

func (q *Queue) Cap() int { return q.max }

// Full and Empty are snapshots; another goroutine may change the queue
// right after they return.
func (q *Queue) Full() bool  { return q.Len() >= q.max }
func (q *Queue) Empty() bool { return q.Len() == 0 }

func (q *Queue) Closed() bool {
    q.mu.Lock()
    defer q.mu.Unlock()
    return q.closed
}
