package models

// AnswerSnapshot is the persisted form of an instance's answer state. Only
// the fields relevant to Type are populated.
type AnswerSnapshot struct {
	Type       ExerciseType `json:"type"`
	Respondido bool         `json:"respondido"`

	// multiple_choice, true_false
	Choice string `json:"choice,omitempty"`
	// essay, short_answer
	Text string `json:"text,omitempty"`
	// quick_block, fill_blank
	Responses []string `json:"responses,omitempty"`
	// match_columns: authored right index -> typed left ordinal
	Matches    map[int]string `json:"matches,omitempty"`
	RightOrder []int          `json:"right_order,omitempty"`
	// multi_select, color_regions
	Selected []string `json:"selected,omitempty"`
	// fill_blank_word_bank: blank id -> token id
	SlotValues map[string]string `json:"slot_values,omitempty"`
	BankOrder  []string          `json:"bank_order,omitempty"`
	ActiveSlot string            `json:"active_slot,omitempty"`
	// table
	Cells [][]string `json:"cells,omitempty"`

	Feedback *Feedback `json:"feedback,omitempty"`
}
