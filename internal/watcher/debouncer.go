package watcher

import (
	"sort"
	"sync"
	"time"
)

// FlushFunc receives every path that changed during one debounce window
type FlushFunc func(paths []string)

// Invalidator collects changed paths and hands them to a flush callback once a quiet
// period has passed. Each Schedule restarts the period. The pending set is swapped out
// whole before the callback runs, so paths scheduled during a flush land in the next one.
// Flushes never overlap.
type Invalidator struct {
	delay time.Duration
	flush FlushFunc

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool

	flushMu sync.Mutex
}

// NewInvalidator creates an invalidator with the given quiet period.
func NewInvalidator(delay time.Duration, flush FlushFunc) *Invalidator {
	return &Invalidator{
		delay:   delay,
		flush:   flush,
		pending: make(map[string]struct{}),
	}
}

// Schedule adds path to the pending set and restarts the timer.
func (inv *Invalidator) Schedule(path string) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.stopped {
		return
	}
	inv.pending[path] = struct{}{}

	if inv.timer != nil {
		inv.timer.Stop()
	}
	inv.timer = time.AfterFunc(inv.delay, func() {
		inv.drain()
	})
}

// Flush drains the pending set immediately and returns how many paths were flushed.
func (inv *Invalidator) Flush() int {
	inv.mu.Lock()
	if inv.timer != nil {
		inv.timer.Stop()
		inv.timer = nil
	}
	inv.mu.Unlock()

	return inv.drain()
}

// Stop cancels the timer, flushes whatever is pending and ignores later Schedule calls.
func (inv *Invalidator) Stop() {
	inv.mu.Lock()
	inv.stopped = true
	inv.mu.Unlock()

	inv.Flush()
}

// Pending returns the number of paths waiting for the next flush.
func (inv *Invalidator) Pending() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return len(inv.pending)
}

func (inv *Invalidator) drain() int {
	inv.flushMu.Lock()
	defer inv.flushMu.Unlock()

	inv.mu.Lock()
	batch := inv.pending
	inv.pending = make(map[string]struct{})
	inv.timer = nil
	inv.mu.Unlock()

	if len(batch) == 0 {
		return 0
	}

	paths := make([]string, 0, len(batch))
	for p := range batch {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	if inv.flush != nil {
		inv.flush(paths)
	}
	return len(paths)
}
