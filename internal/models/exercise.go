package models

type ExerciseType string

const (
	MultipleChoice    ExerciseType = "multiple_choice"
	TrueFalse         ExerciseType = "true_false"
	ShortAnswer       ExerciseType = "short_answer"
	Essay             ExerciseType = "essay"
	QuickBlock        ExerciseType = "quick_block"
	MatchColumns      ExerciseType = "match_columns"
	MultiSelect       ExerciseType = "multi_select"
	FillBlank         ExerciseType = "fill_blank"
	FillBlankWordBank ExerciseType = "fill_blank_word_bank"
	Table             ExerciseType = "table"
	ColorRegions      ExerciseType = "color_regions"
)

// ExerciseTypes lists every supported type tag in a stable order.
var ExerciseTypes = []ExerciseType{
	MultipleChoice,
	TrueFalse,
	ShortAnswer,
	Essay,
	QuickBlock,
	MatchColumns,
	MultiSelect,
	FillBlank,
	FillBlankWordBank,
	Table,
	ColorRegions,
}

func (t ExerciseType) Valid() bool {
	for _, known := range ExerciseTypes {
		if t == known {
			return true
		}
	}
	return false
}

// TableVariant distinguishes the two models carried under the "table" tag.
type TableVariant string

const (
	TableCrossword TableVariant = "cruzadinha"
	TableMath      TableVariant = "matematica"
)

type QuickBlockMode string

const (
	QuickBlockTrueFalse QuickBlockMode = "vf"
	QuickBlockText      QuickBlockMode = "texto"
)

// Exercise is the normalized, immutable model of one exercise. The set of
// implementations is closed to this package.
type Exercise interface {
	Type() ExerciseType
	isExercise()
}

type Alternative struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// ChoiceModel backs multiple_choice and true_false.
type ChoiceModel struct {
	Kind         ExerciseType  `json:"kind"`
	Alternatives []Alternative `json:"alternatives"`
}

// TextModel backs essay and short_answer.
type TextModel struct {
	Kind   ExerciseType `json:"kind"`
	Prompt string       `json:"prompt,omitempty"`
}

type QuickBlockItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type QuickBlockModel struct {
	Mode  QuickBlockMode   `json:"mode"`
	Items []QuickBlockItem `json:"items"`
}

type ColumnItem struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// MatchColumnsModel keeps both columns in authored order; the presented
// order of the right column lives in the answer state.
type MatchColumnsModel struct {
	Left  []ColumnItem `json:"left"`
	Right []ColumnItem `json:"right"`
}

type MultiSelectModel struct {
	Alternatives []Alternative `json:"alternatives"`
}

type TwoOptionSentence struct {
	ID         string    `json:"id"`
	TextBefore string    `json:"text_before"`
	TextAfter  string    `json:"text_after"`
	Options    [2]string `json:"options"`
}

type TwoOptionFillModel struct {
	Sentences []TwoOptionSentence `json:"sentences"`
}

type Blank struct {
	ID string `json:"id"`
}

type BankToken struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type WordBankFillModel struct {
	Sentences  []string    `json:"sentences"`
	Blanks     []Blank     `json:"blanks"`
	BankTokens []BankToken `json:"bank_tokens"`
}

// TokenText returns the text of a bank token, or "" if the id is unknown.
func (m *WordBankFillModel) TokenText(id string) string {
	for _, tok := range m.BankTokens {
		if tok.ID == id {
			return tok.Text
		}
	}
	return ""
}

type FixedCell struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Letter string `json:"letter"`
}

// MaxGridSide bounds the rows and columns of crossword and math grids.
const MaxGridSide = 50

type CrosswordModel struct {
	Rows           int         `json:"rows"`
	Cols           int         `json:"cols"`
	ActivationMask [][]bool    `json:"activation_mask"`
	FixedCells     []FixedCell `json:"fixed_cells"`
	Clues          []Clue      `json:"clues"`
}

func (m *CrosswordModel) Active(p Position) bool {
	if p.Row < 0 || p.Row >= len(m.ActivationMask) {
		return false
	}
	row := m.ActivationMask[p.Row]
	return p.Col >= 0 && p.Col < len(row) && row[p.Col]
}

// Fixed returns the authored letter for a pre-filled cell.
func (m *CrosswordModel) Fixed(p Position) (string, bool) {
	for _, fc := range m.FixedCells {
		if fc.Row == p.Row && fc.Col == p.Col {
			return fc.Letter, true
		}
	}
	return "", false
}

// GridTableModel is the math-table variant; a nil cell is editable.
type GridTableModel struct {
	Rows  int         `json:"rows"`
	Cols  int         `json:"cols"`
	Cells [][]*string `json:"cells"`
}

func (m *GridTableModel) Editable(p Position) bool {
	if p.Row < 0 || p.Row >= len(m.Cells) {
		return false
	}
	row := m.Cells[p.Row]
	return p.Col >= 0 && p.Col < len(row) && row[p.Col] == nil
}

type Region struct {
	ID        string `json:"id"`
	IsCorrect bool   `json:"is_correct"`
}

type ColorRegionsModel struct {
	Regions []Region `json:"regions"`
}

func (m *ChoiceModel) Type() ExerciseType        { return m.Kind }
func (m *TextModel) Type() ExerciseType          { return m.Kind }
func (m *QuickBlockModel) Type() ExerciseType    { return QuickBlock }
func (m *MatchColumnsModel) Type() ExerciseType  { return MatchColumns }
func (m *MultiSelectModel) Type() ExerciseType   { return MultiSelect }
func (m *TwoOptionFillModel) Type() ExerciseType { return FillBlank }
func (m *WordBankFillModel) Type() ExerciseType  { return FillBlankWordBank }
func (m *CrosswordModel) Type() ExerciseType     { return Table }
func (m *GridTableModel) Type() ExerciseType     { return Table }
func (m *ColorRegionsModel) Type() ExerciseType  { return ColorRegions }

func (*ChoiceModel) isExercise()        {}
func (*TextModel) isExercise()          {}
func (*QuickBlockModel) isExercise()    {}
func (*MatchColumnsModel) isExercise()  {}
func (*MultiSelectModel) isExercise()   {}
func (*TwoOptionFillModel) isExercise() {}
func (*WordBankFillModel) isExercise()  {}
func (*CrosswordModel) isExercise()     {}
func (*GridTableModel) isExercise()     {}
func (*ColorRegionsModel) isExercise()  {}
