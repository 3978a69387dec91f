package pkgqueue

import (
    "sync"
    "time"
)

// waitList is a condition variable with timed waits. Every method must be
// called with the owning mutex held.
type waitList struct {
    chans []chan struct{}
}

// wait releases mu, blocks until signalled or d elapses (d < 0 waits
// forever), then reacquires mu. It reports whether it was signalled.
func (w *waitList) wait(mu *sync.Mutex, d time.Duration) bool {
    ch := make(chan struct{})
    w.chans = append(w.chans, ch)
    mu.Unlock()
    if d < 0 {
        <-ch
        mu.Lock()
        return true
    }
    t := time.NewTimer(d)
    select {
    case <-ch:
        t.Stop()
        mu.Lock()
        return true
    case <-t.C:
    }
    mu.Lock()
    // A signal may have raced the timer; it already removed ch.
    select {
    case <-ch:
        return true
    default:
    }
    w.remove(ch)
    return false
}

func (w *waitList) remove(ch chan struct{}) {
    for i, c := range w.chans {
        if c == ch {
            w.chans = append(w.chans[:i], w.chans[i+1:]...)
            return
        }
    }
}

// signal wakes the longest waiting goroutine.
func (w *waitList) signal() {
    if len(w.chans) == 0 { return }
    close(w.chans[0])
    w.chans = w.chans[1:]
}

func (w *waitList) broadcast() {
    for _, c := range w.chans { close(c) }
    w.chans = nil
}
