package game

import (
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// Session is the authoritative puzzle state machine.
//
// Lifecycle: Setup -> Running -> Completed, with Setup reachable again
// from Completed via Reset. All mutations are linearized by a single
// reader/writer lock; readers always receive defensive copies, never
// aliases into internal storage.
type Session struct {
	mu sync.RWMutex

	difficulty Difficulty
	monsters   []Monster
	running    bool
	completed  bool
	degraded   bool

	// waitCh is closed and replaced on each signaled mutation,
	// broadcasting to WaitForCompletion callers.
	waitCh chan struct{}

	// runGuard admits exactly one concurrent Run; losers are rejected
	// immediately instead of queuing.
	runGuard atomic.Bool

	rng *rand.Rand
}

// NewSession creates an empty session seeded for monster generation.
// Call Setup before use.
func NewSession(seed int64) *Session {
	return &Session{
		waitCh: make(chan struct{}),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Setup generates a fresh monster arrangement for the difficulty,
// clears the running and completed flags, and signals waiters.
func (s *Session) Setup(difficulty Difficulty) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	monsters, degraded, err := GenerateMonsters(difficulty, s.rng)
	if err != nil {
		return err
	}

	s.difficulty = difficulty
	s.monsters = monsters
	s.degraded = degraded
	s.running = false
	s.completed = false
	s.signalLocked()

	log.Printf("[session] set up %s puzzle with %d monsters (degraded=%v)",
		difficulty, len(monsters), degraded)
	return nil
}

// Monsters returns a defensive copy of the monster list in storage
// order.
func (s *Session) Monsters() []Monster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]Monster, len(s.monsters))
	copy(snapshot, s.monsters)
	return snapshot
}

// Difficulty returns the current difficulty.
func (s *Session) Difficulty() Difficulty {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.difficulty
}

// IsRunning reports whether a safety check is in flight.
func (s *Session) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// IsCompleted reports whether the session has finished a run.
func (s *Session) IsCompleted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completed
}

// IsDegraded reports whether the current arrangement came from the
// fallback permutation rather than the generator.
func (s *Session) IsDegraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// Move places the monster with the given id at newPosition, shifting
// every monster strictly between the old and new position by one slot
// so the positions stay a permutation. It is a no-op while the session
// is running or completed. It reports whether a move was applied.
func (s *Session) Move(id, newPosition int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.completed {
		return false
	}

	idx := -1
	for i := range s.monsters {
		if s.monsters[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	if newPosition < 0 {
		newPosition = 0
	}
	if max := len(s.monsters) - 1; newPosition > max {
		newPosition = max
	}

	old := s.monsters[idx].Position
	if old == newPosition {
		return false
	}

	if newPosition > old {
		// Moving down the order: occupants of (old, newPosition]
		// shift up one slot.
		for i := range s.monsters {
			p := s.monsters[i].Position
			if p > old && p <= newPosition {
				s.monsters[i].Position = p - 1
			}
		}
	} else {
		// Moving up the order: occupants of [newPosition, old)
		// shift down one slot.
		for i := range s.monsters {
			p := s.monsters[i].Position
			if p >= newPosition && p < old {
				s.monsters[i].Position = p + 1
			}
		}
	}
	s.monsters[idx].Position = newPosition
	s.signalLocked()
	return true
}

// Run performs the safety check for the current arrangement.
//
// Exactly one concurrent caller wins the compare-and-set guard; every
// other caller returns false immediately without blocking and without
// touching state. The winner snapshots the monsters in position order,
// evaluates the check without holding the lock, then commits the
// verdict: the session completes either way, and the monsters are
// marked completed only when the arrangement is safe. It returns
// whether the arrangement was safe.
func (s *Session) Run() bool {
	if !s.runGuard.CompareAndSwap(false, true) {
		return false
	}
	defer s.runGuard.Store(false)

	s.mu.Lock()
	if len(s.monsters) == 0 || s.running || s.completed {
		s.mu.Unlock()
		return false
	}
	s.running = true
	snapshot := SortedByPosition(s.monsters)
	s.signalLocked()
	s.mu.Unlock()

	// Pure computation, no lock held.
	deadlocked := IsDeadlocked(snapshot)

	s.mu.Lock()
	s.running = false
	s.completed = true
	if !deadlocked {
		for i := range s.monsters {
			s.monsters[i].Completed = true
		}
	}
	s.signalLocked()
	s.mu.Unlock()

	log.Printf("[session] run finished, safe=%v", !deadlocked)
	return !deadlocked
}

// Reset regenerates a fresh arrangement for the current difficulty,
// clears the flags, and signals waiters.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.monsters) == 0 {
		return ErrSessionNotSetUp
	}

	monsters, degraded, err := GenerateMonsters(s.difficulty, s.rng)
	if err != nil {
		return err
	}
	s.monsters = monsters
	s.degraded = degraded
	s.running = false
	s.completed = false
	s.signalLocked()

	log.Printf("[session] reset %s puzzle", s.difficulty)
	return nil
}

// Restore replaces the monsters with independent copies of snapshot,
// infers the difficulty from the count, clears the flags, and signals
// waiters. The snapshot's positions must form a valid permutation.
func (s *Session) Restore(snapshot []Monster) error {
	difficulty, err := DifficultyForCount(len(snapshot))
	if err != nil {
		return ErrInvalidSnapshot
	}
	if !validPermutation(snapshot) {
		return ErrInvalidSnapshot
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.difficulty = difficulty
	s.monsters = make([]Monster, len(snapshot))
	copy(s.monsters, snapshot)
	s.degraded = false
	s.running = false
	s.completed = false
	s.signalLocked()

	log.Printf("[session] restored %s puzzle from snapshot", difficulty)
	return nil
}

// WaitForCompletion blocks the calling goroutine until the session
// completes or the timeout elapses. A timeout <= 0 waits indefinitely.
// It returns whether the session completed in time.
func (s *Session) WaitForCompletion(timeout time.Duration) bool {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		s.mu.RLock()
		if s.completed {
			s.mu.RUnlock()
			return true
		}
		ch := s.waitCh
		s.mu.RUnlock()

		select {
		case <-ch:
		case <-deadline:
			return false
		}
	}
}

// signalLocked wakes all WaitForCompletion callers. Callers must hold
// the write lock.
func (s *Session) signalLocked() {
	close(s.waitCh)
	s.waitCh = make(chan struct{})
}
