package models

import "encoding/json"

// ===== ENGINE API REQUESTS =====

type StartInstanceRequest struct {
	QuestionID string          `json:"question_id" validate:"required,max=255"`
	Type       ExerciseType    `json:"type" validate:"required,exercise_type"`
	Content    json.RawMessage `json:"content" validate:"required"`
	// StateKey addresses the persisted snapshot. Empty means no persistence.
	StateKey string `json:"state_key,omitempty" validate:"omitempty,max=255"`
}

// SelectAlternativeRequest selects an alternative; an empty id clears the selection.
type SelectAlternativeRequest struct {
	AlternativeID string `json:"alternative_id" validate:"max=64"`
}

type SelectionRequest struct {
	ItemID string `json:"item_id" validate:"required,max=64"`
}

type SetTextRequest struct {
	Text string `json:"text" validate:"max=20000"`
}

type BlankRequest struct {
	Index *int   `json:"index" validate:"required,min=0"`
	Value string `json:"value" validate:"max=1000"`
}

type MatchRequest struct {
	RightIndex *int   `json:"right_index" validate:"required,min=0"`
	Value      string `json:"value" validate:"max=8"`
}

type CellRequest struct {
	Row   *int   `json:"row" validate:"required,min=0"`
	Col   *int   `json:"col" validate:"required,min=0"`
	Value string `json:"value" validate:"max=16"`
}

type BankAssignRequest struct {
	SlotID  string `json:"slot_id" validate:"required"`
	TokenID string `json:"token_id" validate:"required"`
}

type BankClearRequest struct {
	SlotID string `json:"slot_id" validate:"required"`
}

type BankMoveRequest struct {
	FromSlotID string `json:"from_slot_id" validate:"required"`
	ToSlotID   string `json:"to_slot_id" validate:"required"`
}

type BankTapRequest struct {
	TokenID string `json:"token_id" validate:"required"`
}

// AnalyzeGridRequest runs slot detection over an ad-hoc mask.
type AnalyzeGridRequest struct {
	Mask  [][]bool `json:"mask" validate:"required,min=1,grid_mask"`
	Clues []Clue   `json:"clues" validate:"omitempty,dive"`
}
