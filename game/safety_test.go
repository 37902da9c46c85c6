package game

import (
	"math/rand"
	"testing"
)

func TestDeadlockedCycle(t *testing.T) {
	// M0 holds R1 needs R2, M1 holds R2 needs R3, M2 holds R3 needs
	// R1: every resource is held, M0 blocks immediately.
	monsters := []Monster{
		{ID: 0, HeldResourceID: 1, NeededResourceID: 2, Position: 0},
		{ID: 1, HeldResourceID: 2, NeededResourceID: 3, Position: 1},
		{ID: 2, HeldResourceID: 3, NeededResourceID: 1, Position: 2},
	}

	if !IsDeadlocked(SortedByPosition(monsters)) {
		t.Error("Expected a full cycle to be deadlocked")
	}
}

func TestSafeChain(t *testing.T) {
	// Same holds, but M2 needs the unheld R4, and the order starts
	// with M2: each finisher releases the next resource in the chain.
	monsters := []Monster{
		{ID: 2, HeldResourceID: 3, NeededResourceID: 4, Position: 0},
		{ID: 1, HeldResourceID: 2, NeededResourceID: 3, Position: 1},
		{ID: 0, HeldResourceID: 1, NeededResourceID: 2, Position: 2},
	}

	if IsDeadlocked(SortedByPosition(monsters)) {
		t.Error("Expected the unwinding chain to be safe")
	}
}

func TestOrderSensitivity(t *testing.T) {
	// The same dependency multiset classifies differently purely by
	// position: the walk never reorders to rescue an arrangement.
	safe := []Monster{
		{ID: 2, HeldResourceID: 3, NeededResourceID: 4, Position: 0},
		{ID: 1, HeldResourceID: 2, NeededResourceID: 3, Position: 1},
		{ID: 0, HeldResourceID: 1, NeededResourceID: 2, Position: 2},
	}
	blocked := []Monster{
		{ID: 0, HeldResourceID: 1, NeededResourceID: 2, Position: 0},
		{ID: 1, HeldResourceID: 2, NeededResourceID: 3, Position: 1},
		{ID: 2, HeldResourceID: 3, NeededResourceID: 4, Position: 2},
	}

	if IsDeadlocked(SortedByPosition(safe)) {
		t.Error("Expected the front-loaded chain to be safe")
	}
	if !IsDeadlocked(SortedByPosition(blocked)) {
		t.Error("Expected the reversed chain to deadlock on the first monster")
	}
}

func TestEmptyArrangementIsSafe(t *testing.T) {
	if IsDeadlocked(nil) {
		t.Error("Expected an empty arrangement to be safe")
	}
}

func TestDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	monsters, _, err := GenerateMonsters(DifficultyHard, rng)
	if err != nil {
		t.Fatalf("GenerateMonsters failed: %v", err)
	}
	sorted := SortedByPosition(monsters)

	first := IsDeadlocked(sorted)
	for i := 0; i < 100; i++ {
		if IsDeadlocked(sorted) != first {
			t.Fatal("IsDeadlocked returned different results for identical input")
		}
	}
}

func TestHasSafeOrder(t *testing.T) {
	cycle := []Monster{
		{ID: 0, HeldResourceID: 1, NeededResourceID: 2},
		{ID: 1, HeldResourceID: 2, NeededResourceID: 1},
	}
	if hasSafeOrder(cycle) {
		t.Error("Expected a two-cycle to admit no safe order")
	}

	chain := []Monster{
		{ID: 0, HeldResourceID: 1, NeededResourceID: 2},
		{ID: 1, HeldResourceID: 2, NeededResourceID: 3},
	}
	if !hasSafeOrder(chain) {
		t.Error("Expected a chain ending at an unheld resource to be solvable")
	}
}
