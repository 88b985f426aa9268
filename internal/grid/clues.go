package grid

import (
	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

// MatchClues attaches at most one clue to each slot and returns the slots in
// the same order.
//
// Clues with an anchor are only ever matched by anchor (and direction, when
// declared). Slots left without a clue then consume, in numbering order, the
// next unclaimed clue that declares no anchor and whose direction is absent
// or equal to the slot's. Slots that still have no clue keep a nil Clue.
func MatchClues(slots []models.Slot, clues []models.Clue) []models.Slot {
	out := make([]models.Slot, len(slots))
	copy(out, slots)
	if len(clues) == 0 {
		return out
	}

	claimed := make([]bool, len(clues))

	for i := range out {
		for j := range clues {
			if claimed[j] || clues[j].Anchor == nil {
				continue
			}
			if *clues[j].Anchor != out[i].Anchor() || !compatible(clues[j], out[i].Direction) {
				continue
			}
			claimed[j] = true
			out[i].Clue = clueRef(clues[j])
			break
		}
	}

	for i := range out {
		if out[i].Clue != nil {
			continue
		}
		for j := range clues {
			if claimed[j] || clues[j].Anchor != nil || !compatible(clues[j], out[i].Direction) {
				continue
			}
			claimed[j] = true
			out[i].Clue = clueRef(clues[j])
			break
		}
	}

	return out
}

func compatible(c models.Clue, d models.Direction) bool {
	return c.Direction == nil || *c.Direction == d
}

func clueRef(c models.Clue) *models.Clue {
	clue := c
	return &clue
}
