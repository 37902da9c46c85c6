package pool

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/gridlockgame/gridlock/mainloop"
)

// Task is a unit of background work producing a result.
type Task func(ctx context.Context) (any, error)

// Runner submits work to a WorkerPool and marshals results and errors
// back onto the main execution context.
//
// Callback delivery order across different tasks is not guaranteed;
// delivery for a single task happens exactly once. A task failure is
// delivered to onError when one was supplied, otherwise it is logged
// and swallowed; it never propagates into the worker.
type Runner struct {
	pool *WorkerPool
	loop *mainloop.Loop

	mu       sync.Mutex
	inflight map[uint64]*TaskHandle
	seq      atomic.Uint64
}

// NewRunner creates a Runner on top of the given pool and main loop.
func NewRunner(p *WorkerPool, loop *mainloop.Loop) *Runner {
	return &Runner{
		pool:     p,
		loop:     loop,
		inflight: make(map[uint64]*TaskHandle),
	}
}

// ExecuteAsync runs task on a pool worker. On success onComplete is
// posted to the main loop with the result; on failure onError is
// posted with the error when non-nil. It returns the runner-assigned
// task id usable for cancellation bookkeeping.
func (r *Runner) ExecuteAsync(task Task, onComplete func(any), onError func(error)) (uint64, error) {
	if task == nil {
		return 0, ErrNilTask
	}

	id := r.seq.Add(1)
	wrapper := func(ctx context.Context) {
		spanCtx, span := spanContext(ctx, "Runner.Task")
		defer span.End()
		defer r.forget(id)

		result, err := runTask(spanCtx, task)
		if err != nil {
			if onError != nil {
				r.loop.Post(func() { onError(err) })
			} else {
				log.Printf("[runner] task %d failed: %v", id, err)
			}
			return
		}
		if onComplete != nil {
			r.loop.Post(func() { onComplete(result) })
		}
	}

	// Register the id before Submit so the wrapper's deferred forget
	// always finds an entry even when the task finishes immediately.
	// The handle is filled in afterwards unless the entry is already
	// gone.
	r.mu.Lock()
	r.inflight[id] = nil
	r.mu.Unlock()

	h, err := r.pool.Submit(wrapper)
	if err != nil {
		r.forget(id)
		return 0, err
	}

	r.mu.Lock()
	if _, ok := r.inflight[id]; ok {
		r.inflight[id] = h
	}
	r.mu.Unlock()

	return id, nil
}

// CancelAllTasks best-effort cancels every in-flight task and forgets
// its handle. With interruptIfRunning true, running tasks have their
// contexts canceled as well; a task past its last interruptible point
// still runs to completion.
func (r *Runner) CancelAllTasks(interruptIfRunning bool) {
	r.mu.Lock()
	handles := r.inflight
	r.inflight = make(map[uint64]*TaskHandle)
	r.mu.Unlock()

	for _, h := range handles {
		// A nil handle is a task still being handed to the pool; it
		// has nothing to cancel yet.
		if h != nil {
			h.Cancel(interruptIfRunning)
		}
	}
	if len(handles) > 0 {
		log.Printf("[runner] canceled %d in-flight tasks", len(handles))
	}
}

// InFlight returns how many submitted tasks have not finished yet.
func (r *Runner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}

func (r *Runner) forget(id uint64) {
	r.mu.Lock()
	delete(r.inflight, id)
	r.mu.Unlock()
}

// runTask invokes the task, converting a panic into an error so a
// misbehaving task cannot take down its worker.
func runTask(ctx context.Context, task Task) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panicked: %v", rec)
		}
	}()
	return task(ctx)
}
