// Package persist saves and restores game session snapshots so a player
// can resume an interrupted puzzle.
package persist

import (
	"sync"
	"time"

	"github.com/gridlockgame/gridlock/game"
)

// Snapshot is the durable form of an in-progress session.
type Snapshot struct {
	// Difficulty is the textual difficulty name
	Difficulty string `yaml:"difficulty" json:"difficulty"`

	// Monsters is the full monster arrangement at save time
	Monsters []game.Monster `yaml:"monsters" json:"monsters"`

	// RemainingTime is how much of the time budget was left
	RemainingTime time.Duration `yaml:"remaining_time" json:"remaining_time"`

	// SavedAt records when the snapshot was taken
	SavedAt time.Time `yaml:"saved_at" json:"saved_at"`
}

// NewSnapshot captures a session's monsters under the given difficulty.
func NewSnapshot(difficulty game.Difficulty, monsters []game.Monster, remaining time.Duration) *Snapshot {
	copied := make([]game.Monster, len(monsters))
	copy(copied, monsters)
	return &Snapshot{
		Difficulty:    difficulty.String(),
		Monsters:      copied,
		RemainingTime: remaining,
		SavedAt:       time.Now(),
	}
}

// Validate checks the snapshot describes a well-formed session.
func (s *Snapshot) Validate() error {
	difficulty, err := game.ParseDifficulty(s.Difficulty)
	if err != nil {
		return err
	}
	if len(s.Monsters) != difficulty.MonsterCount() {
		return game.ErrInvalidSnapshot
	}
	return nil
}

// ParsedDifficulty returns the snapshot's difficulty value.
func (s *Snapshot) ParsedDifficulty() (game.Difficulty, error) {
	return game.ParseDifficulty(s.Difficulty)
}

// Store abstracts snapshot persistence.
type Store interface {
	// SaveSnapshot durably stores the snapshot, replacing any prior one
	SaveSnapshot(snapshot *Snapshot) error

	// LoadSnapshot returns the stored snapshot, or ErrNoSnapshot
	LoadSnapshot() (*Snapshot, error)

	// ClearSnapshot removes any stored snapshot
	ClearSnapshot() error

	// HasSnapshot reports whether a snapshot is stored
	HasSnapshot() bool
}

// MemoryStore keeps the snapshot in process memory, used by tests and
// sessions that opt out of durable saves.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveSnapshot stores the snapshot.
func (m *MemoryStore) SaveSnapshot(snapshot *Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *snapshot
	copied.Monsters = append([]game.Monster(nil), snapshot.Monsters...)
	m.snapshot = &copied
	return nil
}

// LoadSnapshot returns the stored snapshot.
func (m *MemoryStore) LoadSnapshot() (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	copied := *m.snapshot
	copied.Monsters = append([]game.Monster(nil), m.snapshot.Monsters...)
	return &copied, nil
}

// ClearSnapshot removes the stored snapshot.
func (m *MemoryStore) ClearSnapshot() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = nil
	return nil
}

// HasSnapshot reports whether a snapshot is stored.
func (m *MemoryStore) HasSnapshot() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot != nil
}
