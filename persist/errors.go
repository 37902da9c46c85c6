package persist

import "errors"

var (
	// ErrNoSnapshot indicates no saved session exists in the store
	ErrNoSnapshot = errors.New("no saved session snapshot")

	// ErrCorruptSnapshot indicates the stored snapshot could not be decoded
	ErrCorruptSnapshot = errors.New("saved session snapshot is corrupt")

	// ErrEmptyPath indicates a file store was created without a path
	ErrEmptyPath = errors.New("snapshot path must not be empty")
)
