// Package cell provides a thread-safe single-value container guarded
// by a reader/writer lock.
//
// A Cell holds exactly one value. Writers replace the value wholesale
// while holding the exclusive lock, so a reader always observes either
// the value before a given write or the value after it, never a
// partially-applied intermediate.
package cell

import (
	"sync"
	"time"
)

// Cell is a thread-safe container for a single value of type T.
//
// Multiple concurrent readers are permitted; a writer excludes all
// readers and other writers. Signaled writes wake every goroutine
// blocked in WaitFor.
type Cell[T any] struct {
	mu    sync.RWMutex
	value T

	// waiters is closed and replaced on each signaled write,
	// broadcasting the change to all blocked WaitFor calls.
	waiters chan struct{}
}

// New creates a Cell holding the initial value.
func New[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value:   initial,
		waiters: make(chan struct{}),
	}
}

// Read returns the current value under the shared lock.
func (c *Cell[T]) Read() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Write replaces the value under the exclusive lock.
// When signal is true, all goroutines blocked in WaitFor are woken.
func (c *Cell[T]) Write(v T, signal bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	if signal {
		c.signalLocked()
	}
}

// Update applies a pure transform to the value under the exclusive
// lock and wakes all waiters.
func (c *Cell[T]) Update(f func(T) T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = f(c.value)
	c.signalLocked()
}

// View runs f with the current value while holding the shared lock.
// f must not block and must not re-enter a write on the same Cell.
func (c *Cell[T]) View(f func(T)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f(c.value)
}

// WaitFor blocks until pred holds for the current value or the timeout
// elapses. A timeout <= 0 waits indefinitely. It returns whether pred
// held before the timeout.
//
// Only signaled writes wake waiters; a Write with signal=false is not
// observed until the next signaled mutation.
func (c *Cell[T]) WaitFor(pred func(T) bool, timeout time.Duration) bool {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		c.mu.RLock()
		if pred(c.value) {
			c.mu.RUnlock()
			return true
		}
		ch := c.waiters
		c.mu.RUnlock()

		select {
		case <-ch:
		case <-deadline:
			return false
		}
	}
}

// signalLocked wakes all waiters. Callers must hold the exclusive lock.
func (c *Cell[T]) signalLocked() {
	close(c.waiters)
	c.waiters = make(chan struct{})
}

// With runs f with the current value of c while holding the shared
// lock and returns f's result. f must not block and must not re-enter
// a write on the same Cell.
func With[T, R any](c *Cell[T], f func(T) R) R {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return f(c.value)
}
