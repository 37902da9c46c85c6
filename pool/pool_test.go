package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestPool(t *testing.T, core, max, queue int) *WorkerPool {
	t.Helper()
	p, err := NewWorkerPool(Options{
		Name:      "test",
		CoreSize:  core,
		MaxSize:   max,
		QueueSize: queue,
		KeepAlive: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}
	return p
}

func TestNewWorkerPoolValidation(t *testing.T) {
	if _, err := NewWorkerPool(Options{CoreSize: 0, MaxSize: 2, QueueSize: 4}); err != ErrInvalidPoolSize {
		t.Errorf("Expected ErrInvalidPoolSize, got %v", err)
	}
	if _, err := NewWorkerPool(Options{CoreSize: 4, MaxSize: 2, QueueSize: 4}); err != ErrInvalidPoolSize {
		t.Errorf("Expected ErrInvalidPoolSize for max < core, got %v", err)
	}
	if _, err := NewWorkerPool(Options{CoreSize: 1, MaxSize: 2, QueueSize: 0}); err != ErrInvalidQueue {
		t.Errorf("Expected ErrInvalidQueue, got %v", err)
	}
}

func TestSubmitAndExecute(t *testing.T) {
	p := newTestPool(t, 2, 4, 8)
	defer p.Shutdown(true, time.Second)

	var count atomic.Int32
	var handles []*TaskHandle
	for i := 0; i < 10; i++ {
		h, err := p.Submit(func(ctx context.Context) {
			count.Add(1)
		})
		if err != nil {
			t.Fatalf("Failed to submit task: %v", err)
		}
		handles = append(handles, h)
	}

	for _, h := range handles {
		if !h.Wait(time.Second) {
			t.Fatal("Task did not complete in time")
		}
	}

	if got := count.Load(); got != 10 {
		t.Errorf("Expected 10 executed tasks, got %d", got)
	}
}

func TestSubmitAfterShutdown(t *testing.T) {
	p := newTestPool(t, 1, 1, 2)
	p.Shutdown(true, time.Second)

	if _, err := p.Submit(func(ctx context.Context) {}); err != ErrPoolClosed {
		t.Errorf("Expected ErrPoolClosed, got %v", err)
	}
}

func TestGracefulShutdownDrains(t *testing.T) {
	p := newTestPool(t, 1, 1, 8)

	var count atomic.Int32
	for i := 0; i < 5; i++ {
		_, err := p.Submit(func(ctx context.Context) {
			time.Sleep(5 * time.Millisecond)
			count.Add(1)
		})
		if err != nil {
			t.Fatalf("Failed to submit task: %v", err)
		}
	}

	if err := p.Shutdown(true, 2*time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if got := count.Load(); got != 5 {
		t.Errorf("Expected all 5 tasks drained before shutdown, got %d", got)
	}
}

func TestForcedShutdownInterrupts(t *testing.T) {
	p := newTestPool(t, 1, 1, 8)

	interrupted := make(chan struct{})
	started := make(chan struct{})
	_, err := p.Submit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(interrupted)
	})
	if err != nil {
		t.Fatalf("Failed to submit task: %v", err)
	}
	<-started

	// No drain window: the running task must be interrupted.
	if err := p.Shutdown(false, 0); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	select {
	case <-interrupted:
	case <-time.After(time.Second):
		t.Fatal("Running task was not interrupted by forced shutdown")
	}
}

func TestCancelPendingTask(t *testing.T) {
	p := newTestPool(t, 1, 1, 8)
	defer p.Shutdown(false, 0)

	block := make(chan struct{})
	started := make(chan struct{})
	_, err := p.Submit(func(ctx context.Context) {
		close(started)
		<-block
	})
	if err != nil {
		t.Fatalf("Failed to submit blocker: %v", err)
	}
	<-started

	ran := false
	h, err := p.Submit(func(ctx context.Context) { ran = true })
	if err != nil {
		t.Fatalf("Failed to submit pending task: %v", err)
	}

	if !h.Cancel(false) {
		t.Error("Expected Cancel to succeed on a pending task")
	}
	if h.State() != TaskCanceled {
		t.Errorf("Expected state canceled, got %s", h.State())
	}

	close(block)
	if !h.Wait(time.Second) {
		t.Fatal("Canceled handle never became done")
	}
	time.Sleep(20 * time.Millisecond)
	if ran {
		t.Error("Canceled task must not run")
	}
}

func TestPoolGrowsUnderLoad(t *testing.T) {
	p := newTestPool(t, 1, 4, 1)
	defer p.Shutdown(false, 0)

	block := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Submit(func(ctx context.Context) {
				select {
				case <-block:
				case <-ctx.Done():
				}
			})
		}()
	}

	// Submissions beyond the queue spawn extra workers up to MaxSize.
	time.Sleep(50 * time.Millisecond)
	if w := p.Workers(); w < 2 || w > 4 {
		t.Errorf("Expected between 2 and 4 workers under load, got %d", w)
	}

	close(block)
	wg.Wait()
}

func TestSubmitRacingShutdownNeverStrandsHandle(t *testing.T) {
	for i := 0; i < 50; i++ {
		p := newTestPool(t, 1, 2, 4)

		start := make(chan struct{})
		done := make(chan struct{})
		go func() {
			<-start
			p.Shutdown(false, 0)
			close(done)
		}()

		close(start)
		h, err := p.Submit(func(ctx context.Context) {})
		<-done

		if err != nil {
			continue
		}
		// An accepted handle must always complete, either by running
		// or by cancellation during shutdown.
		if !h.Wait(2 * time.Second) {
			t.Fatal("Accepted handle never completed during shutdown")
		}
	}
}
