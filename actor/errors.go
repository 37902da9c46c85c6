// Package actor provides error definitions for the message actor
package actor

import "errors"

// Actor errors
var (
	ErrNilHandler         = errors.New("handler cannot be nil")
	ErrNilMessage         = errors.New("message cannot be nil")
	ErrInvalidMailboxSize = errors.New("invalid mailbox size")
	ErrActorStopped       = errors.New("actor is shut down")
	ErrMailboxFull        = errors.New("actor mailbox is full")
)
