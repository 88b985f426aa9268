package models

import (
	"fmt"
	"strconv"
)

type Direction string

const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Key is the textual cell key used in wire payloads ("row-col").
func (p Position) Key() string {
	return fmt.Sprintf("%d-%d", p.Row, p.Col)
}

// Clue is an authored hint. Anchor and Direction are optional; authors
// frequently omit them.
type Clue struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Anchor    *Position  `json:"anchor,omitempty"`
	Direction *Direction `json:"direction,omitempty"`
}

// Slot is a contiguous run of at least two active cells.
type Slot struct {
	AnchorRow int        `json:"anchor_row"`
	AnchorCol int        `json:"anchor_col"`
	Direction Direction  `json:"direction"`
	Cells     []Position `json:"cells"`
	Number    int        `json:"number"`
	Clue      *Clue      `json:"clue,omitempty"`
}

func (s Slot) Anchor() Position {
	return Position{Row: s.AnchorRow, Col: s.AnchorCol}
}

func (s Slot) Len() int {
	return len(s.Cells)
}

// SlotKey is the feedback item key of a slot verdict.
func SlotKey(number int) string {
	return "slot-" + strconv.Itoa(number)
}
