// Package grid detects and numbers crossword slots over an activation mask
// and pairs them with authored clues.
package grid

import (
	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

// Analysis is the result of scanning one mask. It depends on the mask and
// clues only and is computed once per exercise instance.
type Analysis struct {
	Rows       int                       `json:"rows"`
	Cols       int                       `json:"cols"`
	Slots      []models.Slot             `json:"slots"`
	Horizontal []models.Slot             `json:"horizontal"`
	Vertical   []models.Slot             `json:"vertical"`
	Badges     map[models.Position][]int `json:"-"`
}

// Analyze detects slots, numbers them and matches clues.
func Analyze(mask [][]bool, clues []models.Clue) *Analysis {
	rows, cols := dims(mask)
	slots := MatchClues(DetectSlots(mask), clues)

	a := &Analysis{
		Rows:   rows,
		Cols:   cols,
		Slots:  slots,
		Badges: make(map[models.Position][]int),
	}
	for _, s := range slots {
		switch s.Direction {
		case models.Horizontal:
			a.Horizontal = append(a.Horizontal, s)
		case models.Vertical:
			a.Vertical = append(a.Vertical, s)
		}
		anchor := s.Anchor()
		a.Badges[anchor] = append(a.Badges[anchor], s.Number)
	}
	return a
}

// BadgesAt returns the slot numbers anchored at a cell, in ascending order.
func (a *Analysis) BadgesAt(p models.Position) []int {
	return a.Badges[p]
}

// SlotsThrough returns every slot that covers the given cell.
func (a *Analysis) SlotsThrough(p models.Position) []models.Slot {
	var out []models.Slot
	for _, s := range a.Slots {
		for _, c := range s.Cells {
			if c == p {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// DetectSlots scans rows then columns. Horizontal slots are numbered from 1
// in row-major order; vertical numbering continues from H+1 in column-major
// order. Runs shorter than two cells are skipped.
func DetectSlots(mask [][]bool) []models.Slot {
	rows, cols := dims(mask)
	var slots []models.Slot
	number := 0

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !active(mask, r, c) || active(mask, r, c-1) {
				continue
			}
			var cells []models.Position
			for cc := c; active(mask, r, cc); cc++ {
				cells = append(cells, models.Position{Row: r, Col: cc})
			}
			if len(cells) < 2 {
				continue
			}
			number++
			slots = append(slots, models.Slot{
				AnchorRow: r,
				AnchorCol: c,
				Direction: models.Horizontal,
				Cells:     cells,
				Number:    number,
			})
		}
	}

	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			if !active(mask, r, c) || active(mask, r-1, c) {
				continue
			}
			var cells []models.Position
			for rr := r; active(mask, rr, c); rr++ {
				cells = append(cells, models.Position{Row: rr, Col: c})
			}
			if len(cells) < 2 {
				continue
			}
			number++
			slots = append(slots, models.Slot{
				AnchorRow: r,
				AnchorCol: c,
				Direction: models.Vertical,
				Cells:     cells,
				Number:    number,
			})
		}
	}

	return slots
}

func dims(mask [][]bool) (rows, cols int) {
	rows = len(mask)
	for _, row := range mask {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return rows, cols
}

// active treats out-of-range and ragged positions as inactive.
func active(mask [][]bool, r, c int) bool {
	if r < 0 || r >= len(mask) || c < 0 || c >= len(mask[r]) {
		return false
	}
	return mask[r][c]
}
