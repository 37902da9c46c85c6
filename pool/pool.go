// Package pool implements the worker pools of the gridlock core.
//
// A WorkerPool is a bounded general-purpose pool for background work.
// Runner wraps a WorkerPool and marshals results back onto the main
// execution context. InteractionPool is a separate fixed-size pool
// that isolates input-driven work from generic background work.
package pool

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// joinGrace bounds how long Shutdown waits for workers to exit after
// the pool context has been canceled.
const joinGrace = 2 * time.Second

// Options configures a WorkerPool.
type Options struct {
	// Name appears in log output and worker identifiers
	Name string

	// CoreSize is the number of workers kept alive permanently
	CoreSize int

	// MaxSize caps the worker count; extra workers are spawned when
	// the task queue is full and retired after KeepAlive idle time
	MaxSize int

	// QueueSize bounds the task queue
	QueueSize int

	// KeepAlive is the idle lifetime of workers above CoreSize
	KeepAlive time.Duration
}

// DefaultOptions returns sensible defaults for a background pool.
func DefaultOptions() Options {
	return Options{
		Name:      "worker",
		CoreSize:  4,
		MaxSize:   8,
		QueueSize: 64,
		KeepAlive: 30 * time.Second,
	}
}

// WorkerPool is a bounded pool of worker goroutines consuming a shared
// task queue.
type WorkerPool struct {
	opts  Options
	tasks chan *TaskHandle

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	workers int
	closed  bool

	wg     sync.WaitGroup
	seq    atomic.Uint64
	active atomic.Int32
}

// NewWorkerPool creates and starts a pool with the given options.
func NewWorkerPool(opts Options) (*WorkerPool, error) {
	if opts.CoreSize <= 0 || opts.MaxSize < opts.CoreSize {
		return nil, ErrInvalidPoolSize
	}
	if opts.QueueSize <= 0 {
		return nil, ErrInvalidQueue
	}
	if opts.Name == "" {
		opts.Name = "worker"
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		opts:   opts,
		tasks:  make(chan *TaskHandle, opts.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	p.mu.Lock()
	for i := 0; i < opts.CoreSize; i++ {
		p.spawnLocked(false)
	}
	p.mu.Unlock()

	return p, nil
}

// Submit enqueues run for execution on a pool worker. When the queue
// is full the pool grows up to MaxSize; past that, Submit blocks until
// a slot frees up or the pool shuts down.
func (p *WorkerPool) Submit(run func(ctx context.Context)) (*TaskHandle, error) {
	if run == nil {
		return nil, ErrNilTask
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	h := newTaskHandle(p.seq.Add(1), p.ctx, run)
	p.mu.Unlock()

	// Fast path: queue has room.
	select {
	case p.tasks <- h:
		return p.confirmAccepted(h)
	default:
	}

	// Queue full: grow the pool if allowed, then block.
	p.mu.Lock()
	if !p.closed && p.workers < p.opts.MaxSize {
		p.spawnLocked(true)
	}
	p.mu.Unlock()

	select {
	case p.tasks <- h:
		return p.confirmAccepted(h)
	case <-p.ctx.Done():
		h.markCanceled()
		return nil, ErrPoolClosed
	}
}

// confirmAccepted re-checks closed after a successful enqueue. Shutdown
// can finish draining the queue between Submit's entry check and the
// enqueue, in which case the handle would sit in the channel with no
// worker left to take it.
func (p *WorkerPool) confirmAccepted(h *TaskHandle) (*TaskHandle, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed && (h.Cancel(false) || h.State() == TaskCanceled) {
		return nil, ErrPoolClosed
	}
	return h, nil
}

// Active returns how many tasks are currently executing.
func (p *WorkerPool) Active() int {
	return int(p.active.Load())
}

// QueueLen returns the number of tasks waiting for a worker.
func (p *WorkerPool) QueueLen() int {
	return len(p.tasks)
}

// Workers returns the current worker count.
func (p *WorkerPool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// Shutdown stops the pool. With awaitTermination true it first lets
// queued and running tasks drain for up to timeout; whatever remains
// after that is force-canceled and running tasks have their contexts
// canceled. After Shutdown returns no further Submit succeeds.
func (p *WorkerPool) Shutdown(awaitTermination bool, timeout time.Duration) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.closed = true
	p.mu.Unlock()

	if awaitTermination {
		deadline := time.Now().Add(timeout)
		for time.Now().Before(deadline) {
			if len(p.tasks) == 0 && p.active.Load() == 0 {
				break
			}
			time.Sleep(time.Millisecond)
		}
	}

	// Interrupt running tasks and stop the workers.
	p.cancel()

	// Discard whatever never got picked up so waiters are released.
	dropped := 0
	for {
		select {
		case h := <-p.tasks:
			h.markCanceled()
			dropped++
		default:
			if dropped > 0 {
				log.Printf("[%s] dropped %d queued tasks on shutdown", p.opts.Name, dropped)
			}
			p.join()
			return nil
		}
	}
}

// join waits for the workers to exit, bounded by joinGrace.
func (p *WorkerPool) join() {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(joinGrace):
		log.Printf("[%s] workers still busy after shutdown grace period", p.opts.Name)
	}
}

// spawnLocked starts one worker. Callers must hold p.mu.
func (p *WorkerPool) spawnLocked(temporary bool) {
	p.workers++
	idx := p.workers
	p.wg.Add(1)
	go p.worker(idx, temporary)
}

// worker consumes tasks until the pool stops. Temporary workers retire
// after KeepAlive without work.
func (p *WorkerPool) worker(idx int, temporary bool) {
	defer p.wg.Done()
	defer func() {
		p.mu.Lock()
		p.workers--
		p.mu.Unlock()
	}()

	if temporary {
		idle := time.NewTimer(p.opts.KeepAlive)
		defer idle.Stop()
		for {
			select {
			case h := <-p.tasks:
				p.execute(idx, h)
				if !idle.Stop() {
					select {
					case <-idle.C:
					default:
					}
				}
				idle.Reset(p.opts.KeepAlive)
			case <-idle.C:
				return
			case <-p.ctx.Done():
				return
			}
		}
	}

	for {
		select {
		case h := <-p.tasks:
			p.execute(idx, h)
		case <-p.ctx.Done():
			return
		}
	}
}

// execute runs one task, containing panics at the pool boundary.
func (p *WorkerPool) execute(idx int, h *TaskHandle) {
	if !h.markRunning() {
		// Canceled while queued.
		h.finish()
		return
	}

	p.active.Add(1)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] worker %d: task %d panicked: %v", p.opts.Name, idx, h.id, r)
		}
		p.active.Add(-1)
		h.markCompleted()
	}()

	h.run(h.ctx)
}
