package game

import (
	"fmt"
	"sort"
	"time"
)

// Monster is one resource-dependent actor in the puzzle. It holds one
// resource, needs another, and occupies one slot in the player-chosen
// execution order.
type Monster struct {
	// ID is the monster's immutable identity
	ID int `yaml:"id" json:"id"`

	// HeldResourceID is the resource the monster currently owns
	HeldResourceID int `yaml:"held_resource_id" json:"held_resource_id"`

	// NeededResourceID is the resource the monster must obtain to finish
	NeededResourceID int `yaml:"needed_resource_id" json:"needed_resource_id"`

	// Position is the monster's rank in the execution order; across a
	// session the positions always form the permutation {0..n-1}
	Position int `yaml:"position" json:"position"`

	// Completed marks a monster that finished a successful run
	Completed bool `yaml:"completed" json:"completed"`
}

// SortedByPosition returns a copy of monsters ordered by position.
func SortedByPosition(monsters []Monster) []Monster {
	sorted := make([]Monster, len(monsters))
	copy(sorted, monsters)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})
	return sorted
}

// Difficulty selects the monster count and time budget of a session.
type Difficulty int

const (
	// DifficultyEasy is a three-monster puzzle
	DifficultyEasy Difficulty = iota

	// DifficultyNormal is a five-monster puzzle
	DifficultyNormal

	// DifficultyHard is a seven-monster puzzle
	DifficultyHard
)

// String returns the string representation of Difficulty.
func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyNormal:
		return "normal"
	case DifficultyHard:
		return "hard"
	default:
		return "unknown"
	}
}

// IsValid checks if the difficulty is a known level.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		return true
	default:
		return false
	}
}

// MonsterCount returns how many monsters a session of this difficulty
// holds.
func (d Difficulty) MonsterCount() int {
	switch d {
	case DifficultyEasy:
		return 3
	case DifficultyNormal:
		return 5
	case DifficultyHard:
		return 7
	default:
		return 0
	}
}

// TimeBudget returns the time allotted to solve a puzzle of this
// difficulty.
func (d Difficulty) TimeBudget() time.Duration {
	switch d {
	case DifficultyEasy:
		return 90 * time.Second
	case DifficultyNormal:
		return 2 * time.Minute
	case DifficultyHard:
		return 150 * time.Second
	default:
		return 0
	}
}

// ParseDifficulty converts a difficulty name to its Difficulty value.
func ParseDifficulty(name string) (Difficulty, error) {
	switch name {
	case "easy":
		return DifficultyEasy, nil
	case "normal":
		return DifficultyNormal, nil
	case "hard":
		return DifficultyHard, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDifficulty, name)
	}
}

// DifficultyForCount infers the difficulty from a monster count, used
// when rehydrating a persisted snapshot.
func DifficultyForCount(n int) (Difficulty, error) {
	for _, d := range []Difficulty{DifficultyEasy, DifficultyNormal, DifficultyHard} {
		if d.MonsterCount() == n {
			return d, nil
		}
	}
	return 0, ErrInvalidDifficulty
}

// validPermutation reports whether the monsters' positions form the
// permutation {0..n-1} exactly once each.
func validPermutation(monsters []Monster) bool {
	seen := make([]bool, len(monsters))
	for _, m := range monsters {
		if m.Position < 0 || m.Position >= len(monsters) || seen[m.Position] {
			return false
		}
		seen[m.Position] = true
	}
	return true
}
