// Package game implements the authoritative gridlock puzzle state.
//
// This package provides the Monster data model, the Session state
// machine guarding all mutations behind a reader/writer lock, and the
// safety check deciding whether an arrangement of resource-dependent
// monsters can all finish without a circular wait.
package game
