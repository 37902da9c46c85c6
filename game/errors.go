// Package game provides error definitions for the puzzle core
package game

import "errors"

// Session errors
var (
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrInvalidSnapshot   = errors.New("invalid session snapshot")
	ErrSessionNotSetUp   = errors.New("session has not been set up")
)

// Generation errors
var (
	ErrNoSafeOrder = errors.New("arrangement admits no safe order")
)
