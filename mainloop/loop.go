// Package mainloop implements the designated "main" execution context.
//
// All worker pools, the message actor, and the queue consumers marshal
// their completion callbacks onto a single Loop, so state visible to
// the rest of the application is only ever mutated from one place. The
// owning goroutine either calls Run to block and serve callbacks, or
// calls Drain once per frame to poll for pending work.
package mainloop

import (
	"context"
	"log"
	"sync"
)

// Loop is an ordered queue of callbacks drained by one goroutine.
type Loop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []func()
	closed  bool
}

// New creates an empty Loop.
func New() *Loop {
	l := &Loop{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Post enqueues fn to run on the loop's owning goroutine.
// Posts after Close are dropped with a log message.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		log.Printf("[mainloop] dropped callback posted after close")
		return
	}
	l.pending = append(l.pending, fn)
	l.cond.Broadcast()
}

// Len returns the number of callbacks waiting to run.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Drain runs every callback queued at the time of the call and returns
// how many ran. Callbacks posted while draining wait for the next
// Drain, which keeps a self-posting callback from starving the caller.
func (l *Loop) Drain() int {
	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	l.mu.Unlock()

	for _, fn := range batch {
		l.invoke(fn)
	}
	return len(batch)
}

// Run serves callbacks until ctx is canceled, then drains whatever is
// still queued and returns. It blocks the calling goroutine; that
// goroutine becomes the main execution context.
func (l *Loop) Run(ctx context.Context) {
	// Wake the wait loop when the context is canceled.
	stop := context.AfterFunc(ctx, func() {
		l.mu.Lock()
		l.closed = true
		l.cond.Broadcast()
		l.mu.Unlock()
	})
	defer stop()

	for {
		l.mu.Lock()
		for len(l.pending) == 0 && !l.closed {
			l.cond.Wait()
		}
		batch := l.pending
		l.pending = nil
		closed := l.closed
		l.mu.Unlock()

		for _, fn := range batch {
			l.invoke(fn)
		}
		if closed {
			return
		}
	}
}

// invoke runs one callback, containing panics so a misbehaving
// callback cannot take down the main context.
func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[mainloop] callback panicked: %v", r)
		}
	}()
	fn()
}
