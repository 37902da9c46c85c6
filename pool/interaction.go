package pool

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/gridlockgame/gridlock/mainloop"
)

// InteractionPool is a dedicated fixed-size pool for user-input-driven
// work (drags, drops, taps), kept separate from the general background
// pool so interactions are never starved by bulk work.
type InteractionPool struct {
	pool   *WorkerPool
	loop   *mainloop.Loop
	active atomic.Int32
}

// NewInteractionPool creates a fixed-size interaction pool marshaling
// results onto the given main loop.
func NewInteractionPool(size, queueSize int, loop *mainloop.Loop) (*InteractionPool, error) {
	p, err := NewWorkerPool(Options{
		Name:      "interaction",
		CoreSize:  size,
		MaxSize:   size,
		QueueSize: queueSize,
		KeepAlive: time.Minute,
	})
	if err != nil {
		return nil, err
	}
	return &InteractionPool{pool: p, loop: loop}, nil
}

// ProcessInteraction runs task on an interaction worker, fire and
// forget. A returned error or panic is logged and swallowed.
func (ip *InteractionPool) ProcessInteraction(task func(ctx context.Context) error) error {
	if task == nil {
		return ErrNilTask
	}
	_, err := ip.pool.Submit(func(ctx context.Context) {
		ip.active.Add(1)
		defer ip.active.Add(-1)
		if err := task(ctx); err != nil {
			log.Printf("[interaction] task failed: %v", err)
		}
	})
	return err
}

// ProcessInteractionWithResult runs task on an interaction worker and
// posts its result to the main loop via onComplete. Failures are
// logged and swallowed.
func (ip *InteractionPool) ProcessInteractionWithResult(task Task, onComplete func(any)) (*TaskHandle, error) {
	if task == nil {
		return nil, ErrNilTask
	}
	return ip.pool.Submit(func(ctx context.Context) {
		ip.active.Add(1)
		defer ip.active.Add(-1)

		result, err := runTask(ctx, task)
		if err != nil {
			log.Printf("[interaction] task failed: %v", err)
			return
		}
		if onComplete != nil {
			ip.loop.Post(func() { onComplete(result) })
		}
	})
}

// Active returns how many interaction tasks are currently executing.
func (ip *InteractionPool) Active() int {
	return int(ip.active.Load())
}

// Shutdown stops the underlying pool.
func (ip *InteractionPool) Shutdown(awaitTermination bool, timeout time.Duration) error {
	return ip.pool.Shutdown(awaitTermination, timeout)
}
