// Package queue implements a bounded producer-consumer queue with a
// configurable number of consumer goroutines, plus a typed task layer
// for game work with correlation callbacks.
package queue

import (
	"log"
	"sync"
	"time"

	"github.com/gridlockgame/gridlock/mainloop"
)

// defaultJoinTimeout bounds how long Shutdown waits for each consumer
// batch to exit.
const defaultJoinTimeout = 2 * time.Second

// Queue is a bounded blocking queue consumed by N goroutines.
//
// Produce blocks the caller when the queue is at capacity, providing
// backpressure; callers must tolerate blocking or produce off the main
// context. With a single consumer overall FIFO order is preserved;
// with more, items may complete out of submission order.
type Queue[T any] struct {
	name      string
	items     chan T
	stop      chan struct{}
	consumers int
	loop      *mainloop.Loop

	mu      sync.Mutex
	started bool
	closed  bool
	wg      sync.WaitGroup

	joinTimeout time.Duration
}

// New creates a queue with the given capacity and consumer count.
func New[T any](name string, capacity, consumers int, loop *mainloop.Loop) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if consumers <= 0 {
		return nil, ErrInvalidConsumers
	}
	return &Queue[T]{
		name:        name,
		items:       make(chan T, capacity),
		stop:        make(chan struct{}),
		consumers:   consumers,
		loop:        loop,
		joinTimeout: defaultJoinTimeout,
	}, nil
}

// Start spawns the consumer goroutines. Each loops taking items and
// either runs consume directly or, with onMainLoop true, marshals it
// to the main execution context.
func (q *Queue[T]) Start(consume func(T), onMainLoop bool) error {
	if consume == nil {
		return ErrNilConsumer
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	if q.started {
		return ErrAlreadyStarted
	}
	q.started = true

	for i := 0; i < q.consumers; i++ {
		q.wg.Add(1)
		go q.consumeLoop(i, consume, onMainLoop)
	}
	return nil
}

// Produce enqueues item, blocking while the queue is at capacity.
// It fails once the queue has been shut down.
func (q *Queue[T]) Produce(item T) error {
	select {
	case <-q.stop:
		return ErrQueueClosed
	default:
	}

	select {
	case q.items <- item:
		return nil
	case <-q.stop:
		return ErrQueueClosed
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Shutdown stops the consumers, unblocks any blocked take or produce,
// joins each consumer with a bounded timeout, then clears the queue.
// After it returns, no consumer goroutine is alive and the queue is
// empty.
func (q *Queue[T]) Shutdown() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	close(q.stop)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(q.joinTimeout):
		log.Printf("[%s] consumers still busy after shutdown timeout", q.name)
	}

	// Clear whatever was never consumed.
	dropped := 0
	for {
		select {
		case <-q.items:
			dropped++
		default:
			if dropped > 0 {
				log.Printf("[%s] dropped %d queued items on shutdown", q.name, dropped)
			}
			return
		}
	}
}

// consumeLoop is one consumer goroutine: block in take, hand the item
// to consume, repeat until stopped.
func (q *Queue[T]) consumeLoop(idx int, consume func(T), onMainLoop bool) {
	defer q.wg.Done()
	for {
		select {
		case <-q.stop:
			return
		case item := <-q.items:
			if onMainLoop {
				q.loop.Post(func() { q.invoke(idx, consume, item) })
			} else {
				q.invoke(idx, consume, item)
			}
		}
	}
}

// invoke runs consume for one item, containing panics at the consumer
// boundary.
func (q *Queue[T]) invoke(idx int, consume func(T), item T) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] consumer %d panicked: %v", q.name, idx, r)
		}
	}()
	consume(item)
}
