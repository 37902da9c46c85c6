// Package pool provides error definitions for the worker pools
package pool

import "errors"

// Pool errors
var (
	ErrPoolClosed      = errors.New("worker pool is shut down")
	ErrNilTask         = errors.New("task cannot be nil")
	ErrInvalidPoolSize = errors.New("invalid pool size")
	ErrInvalidQueue    = errors.New("invalid task queue size")
)
