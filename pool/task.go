package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// TaskState represents the lifecycle state of a submitted task.
type TaskState uint32

const (
	// TaskPending means the task is queued and not yet picked up
	TaskPending TaskState = iota

	// TaskRunning means a worker is executing the task
	TaskRunning

	// TaskCompleted means the task finished (successfully or not)
	TaskCompleted

	// TaskCanceled means the task was canceled before it ran
	TaskCanceled
)

// String returns the string representation of TaskState.
func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// TaskHandle identifies one submitted unit of work. The pool that
// created it owns it until completion or cancellation.
type TaskHandle struct {
	id     uint64
	run    func(ctx context.Context)
	ctx    context.Context
	cancel context.CancelFunc

	state    atomic.Uint32
	done     chan struct{}
	doneOnce sync.Once
}

func newTaskHandle(id uint64, parent context.Context, run func(ctx context.Context)) *TaskHandle {
	ctx, cancel := context.WithCancel(parent)
	return &TaskHandle{
		id:     id,
		run:    run,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// ID returns the task's pool-unique identifier.
func (h *TaskHandle) ID() uint64 {
	return h.id
}

// State returns the current task state.
func (h *TaskHandle) State() TaskState {
	return TaskState(h.state.Load())
}

// Done returns a channel closed once the task completes or is
// discarded by cancellation.
func (h *TaskHandle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task is done or the timeout elapses.
// A timeout <= 0 waits indefinitely. It returns whether the task
// finished in time.
func (h *TaskHandle) Wait(timeout time.Duration) bool {
	if timeout <= 0 {
		<-h.done
		return true
	}
	select {
	case <-h.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Cancel cancels the task. A task still pending is discarded without
// running. A task already running is only interrupted (its context
// canceled) when interrupt is true; a task past its last point of
// observing the context runs to completion regardless. It returns
// whether the cancellation had any effect.
func (h *TaskHandle) Cancel(interrupt bool) bool {
	if h.state.CompareAndSwap(uint32(TaskPending), uint32(TaskCanceled)) {
		h.cancel()
		h.finish()
		return true
	}
	if interrupt && h.State() == TaskRunning {
		h.cancel()
		return true
	}
	return false
}

// markRunning moves the task from pending to running.
// It returns false if the task was already canceled.
func (h *TaskHandle) markRunning() bool {
	return h.state.CompareAndSwap(uint32(TaskPending), uint32(TaskRunning))
}

// markCompleted records completion and releases waiters.
func (h *TaskHandle) markCompleted() {
	h.state.CompareAndSwap(uint32(TaskRunning), uint32(TaskCompleted))
	h.cancel()
	h.finish()
}

// markCanceled discards a task that never ran and releases waiters.
func (h *TaskHandle) markCanceled() {
	h.state.CompareAndSwap(uint32(TaskPending), uint32(TaskCanceled))
	h.cancel()
	h.finish()
}

func (h *TaskHandle) finish() {
	h.doneOnce.Do(func() {
		close(h.done)
	})
}
