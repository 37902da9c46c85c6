package game

import (
	"log"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// generateMaxRetries bounds how many fresh arrangements the generator
// tries before substituting the fallback permutation.
const generateMaxRetries = 8

// GenerateMonsters produces a fresh randomized arrangement for the
// difficulty. Monster i holds resource i+1; needed resources are drawn
// from the full resource range (including one resource nobody holds)
// and rerolled until the arrangement admits at least one safe order.
//
// When every attempt fails, the fixed fallback permutation is
// substituted and degraded is returned true so callers can surface the
// degraded result instead of silently shipping it.
func GenerateMonsters(d Difficulty, rng *rand.Rand) (monsters []Monster, degraded bool, err error) {
	if !d.IsValid() {
		return nil, false, ErrInvalidDifficulty
	}
	n := d.MonsterCount()

	attempt := func() error {
		candidate := randomArrangement(n, rng)
		if !hasSafeOrder(candidate) {
			return ErrNoSafeOrder
		}
		monsters = candidate
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = time.Millisecond
	expo.MaxInterval = 10 * time.Millisecond
	if retryErr := backoff.Retry(attempt, backoff.WithMaxRetries(expo, generateMaxRetries)); retryErr != nil {
		log.Printf("[generator] no solvable %s arrangement after %d attempts, using fallback: %v",
			d, generateMaxRetries+1, retryErr)
		return fallbackMonsters(n), true, nil
	}
	return monsters, false, nil
}

// randomArrangement builds one candidate: n monsters, resource ids
// 1..n+1 where resource n+1 is held by nobody, random needs and a
// random position permutation.
func randomArrangement(n int, rng *rand.Rand) []Monster {
	monsters := make([]Monster, n)
	positions := rng.Perm(n)
	for i := range monsters {
		held := i + 1
		needed := held
		for needed == held {
			needed = rng.Intn(n+1) + 1
		}
		monsters[i] = Monster{
			ID:               i,
			HeldResourceID:   held,
			NeededResourceID: needed,
			Position:         positions[i],
		}
	}
	return monsters
}

// fallbackMonsters is the deterministic degraded-mode arrangement: a
// dependency chain ending at the unheld resource, positioned so the
// chain unwinds back to front.
func fallbackMonsters(n int) []Monster {
	monsters := make([]Monster, n)
	for i := range monsters {
		monsters[i] = Monster{
			ID:               i,
			HeldResourceID:   i + 1,
			NeededResourceID: i + 2,
			Position:         n - 1 - i,
		}
	}
	return monsters
}
