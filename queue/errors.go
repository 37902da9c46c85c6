// Package queue provides error definitions for the producer-consumer queue
package queue

import "errors"

// Queue errors
var (
	ErrInvalidCapacity  = errors.New("invalid queue capacity")
	ErrInvalidConsumers = errors.New("invalid consumer count")
	ErrNilConsumer      = errors.New("consumer function cannot be nil")
	ErrAlreadyStarted   = errors.New("queue already started")
	ErrQueueClosed      = errors.New("queue is shut down")
	ErrNoHandler        = errors.New("no handler for task kind")
)
