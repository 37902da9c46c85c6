package game

// IsDeadlocked decides whether an arrangement of monsters is
// deadlocked. The input must already be sorted by position.
//
// A resource is available when no monster currently holds it. The walk
// visits monsters strictly in position order: a monster whose needed
// resource is available finishes and releases its held resource; the
// first monster whose needed resource is unavailable deadlocks the
// whole arrangement and stops the walk.
//
// This is deliberately a single left-to-right pass over the
// player-chosen execution order, not a search over all completion
// orders. Two arrangements with the same dependencies can classify
// differently purely by position; that asymmetry is the puzzle.
func IsDeadlocked(monsters []Monster) bool {
	heldCount := make(map[int]int, len(monsters))
	for _, m := range monsters {
		heldCount[m.HeldResourceID]++
	}

	for _, m := range monsters {
		if heldCount[m.NeededResourceID] > 0 {
			return true
		}
		heldCount[m.HeldResourceID]--
	}
	return false
}

// hasSafeOrder reports whether some execution order lets every monster
// finish. Used only by the generator to reject unsolvable
// arrangements; gameplay verdicts always come from IsDeadlocked.
//
// Finishing only ever releases resources, so the greedy "finish anyone
// who can, repeat" pass decides existence exactly.
func hasSafeOrder(monsters []Monster) bool {
	heldCount := make(map[int]int, len(monsters))
	for _, m := range monsters {
		heldCount[m.HeldResourceID]++
	}

	finished := make([]bool, len(monsters))
	remaining := len(monsters)
	for {
		progress := false
		for i, m := range monsters {
			if finished[i] || heldCount[m.NeededResourceID] > 0 {
				continue
			}
			finished[i] = true
			heldCount[m.HeldResourceID]--
			remaining--
			progress = true
		}
		if remaining == 0 {
			return true
		}
		if !progress {
			return false
		}
	}
}
