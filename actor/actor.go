// Package actor implements a single-threaded message actor.
//
// One dedicated goroutine owns an ordered mailbox of tagged messages.
// Because dispatch is single-threaded, handlers require no internal
// locking. Messages from a single sender are dispatched in send order;
// across senders, only arrival order at the mailbox is guaranteed.
package actor

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Handler processes a single dispatched message.
type Handler func(msg *Message)

// Actor owns the mailbox and its processing goroutine.
type Actor struct {
	name    string
	mailbox chan *Message
	handler Handler

	mu        sync.RWMutex
	accepting bool

	wg        sync.WaitGroup
	processed atomic.Uint64
}

// New creates an actor and starts its processing loop.
func New(name string, mailboxSize int, handler Handler) (*Actor, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if mailboxSize <= 0 {
		return nil, ErrInvalidMailboxSize
	}

	a := &Actor{
		name:      name,
		mailbox:   make(chan *Message, mailboxSize),
		handler:   handler,
		accepting: true,
	}
	a.wg.Add(1)
	go a.process()
	return a, nil
}

// Send enqueues msg and returns immediately. It fails when the actor
// is shut down or the mailbox is full.
func (a *Actor) Send(msg *Message) error {
	if msg == nil {
		return ErrNilMessage
	}

	_, span := spanContext(context.Background(), "Actor.Send")
	defer span.End()

	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.accepting {
		return ErrActorStopped
	}

	select {
	case a.mailbox <- msg:
		return nil
	default:
		return ErrMailboxFull
	}
}

// SendAndAwait enqueues a message carrying a one-shot completion latch
// and blocks the calling goroutine (never the actor's) until the
// message has been dispatched or the timeout elapses. It returns
// whether the latch fired in time.
func (a *Actor) SendAndAwait(msg *Message, timeout time.Duration) bool {
	if msg == nil {
		return false
	}
	msg.latch = make(chan struct{})

	if err := a.Send(msg); err != nil {
		log.Printf("[%s] send-and-await rejected: %v", a.name, err)
		return false
	}

	if timeout <= 0 {
		<-msg.latch
		return true
	}
	select {
	case <-msg.latch:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Shutdown stops the actor. It refuses new sends, enqueues the
// terminal message, and blocks until the loop has drained every
// message up to and including it and the goroutine has exited.
func (a *Actor) Shutdown() {
	a.mu.Lock()
	if !a.accepting {
		a.mu.Unlock()
		return
	}
	a.accepting = false
	// The terminal message bypasses the accepting check; the mailbox
	// is no longer contended by senders at this point.
	a.mailbox <- NewMessage(KindShutdown, nil)
	a.mu.Unlock()

	a.wg.Wait()
	log.Printf("[%s] shut down, processed %d messages", a.name, a.processed.Load())
}

// Processed returns how many messages have been dispatched.
func (a *Actor) Processed() uint64 {
	return a.processed.Load()
}

// Pending returns the current mailbox depth.
func (a *Actor) Pending() int {
	return len(a.mailbox)
}

// process is the single-threaded dispatch loop.
func (a *Actor) process() {
	defer a.wg.Done()
	for msg := range a.mailbox {
		a.dispatch(msg)
		a.processed.Add(1)
		msg.fire()
		if msg.Kind == KindShutdown {
			return
		}
	}
}

// dispatch hands one message to the handler, containing panics so a
// broken handler cannot kill the loop.
func (a *Actor) dispatch(msg *Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] handler panicked on %s message: %v", a.name, msg.Kind, r)
		}
	}()
	if msg.Kind == KindShutdown {
		// Terminal message has no handler work.
		return
	}
	a.handler(msg)
}
