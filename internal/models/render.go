package models

// RenderState is the render-ready merge of an exercise, its answer state and
// (once answered) its feedback. Hosts render it as-is.
type RenderState struct {
	Type       ExerciseType `json:"type"`
	Respondido bool         `json:"respondido"`
	Overall    Verdict      `json:"overall"`
	Prompt     string       `json:"prompt,omitempty"`

	Items []RenderItem `json:"items,omitempty"`
	// Left is the left column of match_columns, in authored order.
	Left  []RenderItem `json:"left,omitempty"`
	Grid  *RenderGrid  `json:"grid,omitempty"`

	Bank       []BankToken `json:"bank,omitempty"`
	ActiveSlot string      `json:"active_slot,omitempty"`

	Score         *float64 `json:"score,omitempty"`
	Justification string   `json:"justification,omitempty"`
	Suggestion    string   `json:"suggestion,omitempty"`
}

type RenderItem struct {
	Key      string   `json:"key"`
	Label    string   `json:"label,omitempty"`
	Image    string   `json:"image,omitempty"`
	Before   string   `json:"before,omitempty"`
	After    string   `json:"after,omitempty"`
	Options  []string `json:"options,omitempty"`
	Value    string   `json:"value,omitempty"`
	Selected bool     `json:"selected,omitempty"`
	Verdict  Verdict  `json:"verdict"`
	Expected string   `json:"expected,omitempty"`
}

type RenderCell struct {
	Row     int     `json:"row"`
	Col     int     `json:"col"`
	Active  bool    `json:"active"`
	Fixed   bool    `json:"fixed,omitempty"`
	Value   string  `json:"value,omitempty"`
	Badges  []int   `json:"badges,omitempty"`
	Verdict Verdict `json:"verdict"`
}

type RenderClue struct {
	Number    int       `json:"number"`
	Direction Direction `json:"direction"`
	Text      string    `json:"text"`
	Missing   bool      `json:"missing,omitempty"`
	Verdict   Verdict   `json:"verdict"`
}

type RenderGrid struct {
	Variant TableVariant   `json:"variant"`
	Cells   [][]RenderCell `json:"cells"`
	Across  []RenderClue   `json:"across,omitempty"`
	Down    []RenderClue   `json:"down,omitempty"`
}
