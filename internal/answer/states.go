package answer

import (
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

// State is one variant of the per-type answer state. The implementations in
// this package form a closed set mirroring models.Exercise.
type State interface {
	Type() models.ExerciseType
	// Validate reports the blocking pre-submit rule for the type, if any.
	Validate() error
	// Payload derives the Correction Service request body.
	Payload(questionID string) any
	snapshot(*models.AnswerSnapshot)
}

// ChoiceState backs multiple_choice and true_false.
type ChoiceState struct {
	model    *models.ChoiceModel
	Selected string
}

func newChoiceState(m *models.ChoiceModel, snap *models.AnswerSnapshot) *ChoiceState {
	s := &ChoiceState{model: m}
	if snap != nil && s.known(snap.Choice) {
		s.Selected = snap.Choice
	}
	return s
}

func (s *ChoiceState) known(id string) bool {
	for _, a := range s.model.Alternatives {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Select picks an alternative; an empty id clears the choice.
func (s *ChoiceState) Select(id string) error {
	if id != "" && !s.known(id) {
		return ErrUnknownAlternative
	}
	s.Selected = id
	return nil
}

func (s *ChoiceState) Type() models.ExerciseType { return s.model.Kind }

func (s *ChoiceState) Validate() error {
	if s.Selected == "" {
		return validationError("resposta", RuleExactlyOneAlternative, "select exactly one alternative", nil)
	}
	return nil
}

func (s *ChoiceState) Payload(questionID string) any {
	return models.ChoiceRequest{QuestionID: questionID, Resposta: s.Selected}
}

func (s *ChoiceState) snapshot(out *models.AnswerSnapshot) {
	out.Choice = s.Selected
}

// TextState backs essay and short_answer.
type TextState struct {
	kind models.ExerciseType
	Text string
}

func (s *TextState) Type() models.ExerciseType { return s.kind }

func (s *TextState) Validate() error {
	if strings.TrimSpace(s.Text) == "" {
		return validationError("respostaAluno", RuleNonEmptyText, "answer must not be empty", nil)
	}
	return nil
}

func (s *TextState) Payload(questionID string) any {
	return models.TextRequest{QuestionID: questionID, RespostaAluno: strings.TrimSpace(s.Text)}
}

func (s *TextState) snapshot(out *models.AnswerSnapshot) {
	out.Text = s.Text
}

// BlankState backs quick_block (one free-text or V/F response per item) and
// fill_blank (one of two options per sentence).
type BlankState struct {
	kind      models.ExerciseType
	quick     *models.QuickBlockModel
	twoOption *models.TwoOptionFillModel
	Responses []string
}

func (s *BlankState) expected() int {
	if s.quick != nil {
		return len(s.quick.Items)
	}
	return len(s.twoOption.Sentences)
}

// Set stores a response, growing the backing slice when index is past its
// end. Indexes beyond the authored items are rejected.
func (s *BlankState) Set(index int, value string) error {
	if index < 0 || index >= s.expected() {
		return ErrOutOfRange
	}
	for len(s.Responses) <= index {
		s.Responses = append(s.Responses, "")
	}
	s.Responses[index] = strings.TrimSpace(value)
	return nil
}

func (s *BlankState) response(i int) string {
	if i < len(s.Responses) {
		return s.Responses[i]
	}
	return ""
}

func (s *BlankState) Type() models.ExerciseType { return s.kind }

func (s *BlankState) Validate() error {
	for i := 0; i < s.expected(); i++ {
		v := s.response(i)
		if s.quick != nil && v == "" {
			return validationError("respostas", RuleAllItemsAnswered, "every item needs a response", i)
		}
		if s.twoOption != nil {
			opts := s.twoOption.Sentences[i].Options
			if v == "" || (v != opts[0] && v != opts[1]) {
				return validationError("respostas", RuleAllBlanksChosen, "choose one of the two options for every blank", i)
			}
		}
	}
	return nil
}

func (s *BlankState) Payload(questionID string) any {
	respostas := make([]string, s.expected())
	for i := range respostas {
		respostas[i] = s.response(i)
	}
	if s.quick != nil {
		return models.QuickBlockRequest{QuestionID: questionID, Respostas: respostas}
	}
	return models.TwoOptionRequest{QuestionID: questionID, Respostas: respostas}
}

func (s *BlankState) restore(snap *models.AnswerSnapshot) {
	if snap == nil {
		return
	}
	n := min(len(snap.Responses), s.expected())
	s.Responses = append([]string(nil), snap.Responses[:n]...)
}

func (s *BlankState) snapshot(out *models.AnswerSnapshot) {
	out.Responses = slices.Clone(s.Responses)
}

// MatchState backs match_columns. RightOrder is the presented order of the
// right column (authored indexes), fixed for the lifetime of the instance.
type MatchState struct {
	model      *models.MatchColumnsModel
	RightOrder []int
	Matches    map[int]string
}

func newMatchState(m *models.MatchColumnsModel, snap *models.AnswerSnapshot, rng *rand.Rand) *MatchState {
	s := &MatchState{model: m, Matches: make(map[int]string)}
	if snap != nil && isPermutation(snap.RightOrder, len(m.Right)) {
		s.RightOrder = slices.Clone(snap.RightOrder)
	} else {
		s.RightOrder = make([]int, len(m.Right))
		for i := range s.RightOrder {
			s.RightOrder[i] = i
		}
		shuffle(rng, len(s.RightOrder), func(i, j int) {
			s.RightOrder[i], s.RightOrder[j] = s.RightOrder[j], s.RightOrder[i]
		})
	}
	if snap != nil {
		for k, v := range snap.Matches {
			if k >= 0 && k < len(m.Right) && v != "" {
				s.Matches[k] = v
			}
		}
	}
	return s
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range order {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// Set records the left ordinal typed next to a right-column item. An empty
// value clears it.
func (s *MatchState) Set(rightIndex int, leftOrdinal string) error {
	if rightIndex < 0 || rightIndex >= len(s.model.Right) {
		return ErrOutOfRange
	}
	v := strings.TrimSpace(leftOrdinal)
	if v == "" {
		delete(s.Matches, rightIndex)
		return nil
	}
	s.Matches[rightIndex] = v
	return nil
}

func (s *MatchState) Type() models.ExerciseType { return models.MatchColumns }

func (s *MatchState) Validate() error {
	for i := range s.model.Right {
		n, err := strconv.Atoi(s.Matches[i])
		if err != nil || n < 1 || n > len(s.model.Left) {
			return validationError("respostasAluno", RuleAllMatchesNumeric, "every right-side item needs a numeric match", i)
		}
	}
	return nil
}

func (s *MatchState) Payload(questionID string) any {
	respostas := make(map[string]string, len(s.Matches))
	for k, v := range s.Matches {
		respostas[strconv.Itoa(k)] = v
	}
	return models.MatchColumnsRequest{QuestionID: questionID, RespostasAluno: respostas}
}

func (s *MatchState) snapshot(out *models.AnswerSnapshot) {
	out.RightOrder = slices.Clone(s.RightOrder)
	out.Matches = make(map[int]string, len(s.Matches))
	for k, v := range s.Matches {
		out.Matches[k] = v
	}
}

// SelectionState backs multi_select and color_regions: a set of ids.
type SelectionState struct {
	kind     models.ExerciseType
	ids      []string
	selected map[string]bool
}

func newSelectionState(kind models.ExerciseType, ids []string, snap *models.AnswerSnapshot) *SelectionState {
	s := &SelectionState{kind: kind, ids: ids, selected: make(map[string]bool)}
	if snap != nil {
		for _, id := range snap.Selected {
			if slices.Contains(ids, id) {
				s.selected[id] = true
			}
		}
	}
	return s
}

func (s *SelectionState) Toggle(id string) error {
	if !slices.Contains(s.ids, id) {
		return ErrUnknownAlternative
	}
	if s.selected[id] {
		delete(s.selected, id)
	} else {
		s.selected[id] = true
	}
	return nil
}

func (s *SelectionState) IsSelected(id string) bool {
	return s.selected[id]
}

// Selected returns the selected ids in authored order.
func (s *SelectionState) Selected() []string {
	out := make([]string, 0, len(s.selected))
	for _, id := range s.ids {
		if s.selected[id] {
			out = append(out, id)
		}
	}
	return out
}

func (s *SelectionState) Type() models.ExerciseType { return s.kind }

func (s *SelectionState) Validate() error {
	if s.kind == models.MultiSelect && len(s.selected) == 0 {
		return validationError("selecionadas", RuleAtLeastOneSelected, "select at least one alternative", nil)
	}
	return nil
}

func (s *SelectionState) Payload(questionID string) any {
	if s.kind == models.ColorRegions {
		return models.ColorRegionsRequest{
			QuestionID: questionID,
			Resposta:   models.ColorRegionsAnswer{PartesMarcadas: s.Selected()},
		}
	}
	return models.MultiSelectRequest{
		QuestionID: questionID,
		Resposta:   models.MultiSelectAnswer{Selecionadas: s.Selected()},
	}
}

func (s *SelectionState) snapshot(out *models.AnswerSnapshot) {
	out.Selected = s.Selected()
}

// GridState backs both table variants. Partial grids may be submitted.
type GridState struct {
	crossword *models.CrosswordModel
	math      *models.GridTableModel
	Cells     [][]string
}

func newGridState(cw *models.CrosswordModel, mt *models.GridTableModel, snap *models.AnswerSnapshot) *GridState {
	s := &GridState{crossword: cw, math: mt}
	rows, cols := s.dims()
	s.Cells = make([][]string, rows)
	for r := range s.Cells {
		s.Cells[r] = make([]string, cols)
	}

	if cw != nil {
		for _, fc := range cw.FixedCells {
			s.Cells[fc.Row][fc.Col] = fc.Letter
		}
	}
	if snap != nil {
		for r := 0; r < rows && r < len(snap.Cells); r++ {
			for c := 0; c < cols && c < len(snap.Cells[r]); c++ {
				p := models.Position{Row: r, Col: c}
				if s.writable(p) == nil {
					s.Cells[r][c] = snap.Cells[r][c]
				}
			}
		}
	}
	return s
}

func (s *GridState) dims() (int, int) {
	if s.crossword != nil {
		return s.crossword.Rows, s.crossword.Cols
	}
	return s.math.Rows, s.math.Cols
}

func (s *GridState) Variant() models.TableVariant {
	if s.crossword != nil {
		return models.TableCrossword
	}
	return models.TableMath
}

func (s *GridState) writable(p models.Position) error {
	rows, cols := s.dims()
	if p.Row < 0 || p.Row >= rows || p.Col < 0 || p.Col >= cols {
		return ErrOutOfRange
	}
	if s.crossword != nil {
		if !s.crossword.Active(p) {
			return ErrInactiveCell
		}
		if _, fixed := s.crossword.Fixed(p); fixed {
			return ErrFixedCell
		}
		return nil
	}
	if !s.math.Editable(p) {
		return ErrInactiveCell
	}
	return nil
}

// Set writes a cell. Crossword cells hold a single upper-case letter.
func (s *GridState) Set(p models.Position, value string) error {
	if err := s.writable(p); err != nil {
		return err
	}
	v := strings.TrimSpace(value)
	if s.crossword != nil && v != "" {
		v = strings.ToUpper(string([]rune(v)[:1]))
	}
	s.Cells[p.Row][p.Col] = v
	return nil
}

func (s *GridState) Value(p models.Position) string {
	if p.Row < 0 || p.Row >= len(s.Cells) || p.Col < 0 || p.Col >= len(s.Cells[p.Row]) {
		return ""
	}
	return s.Cells[p.Row][p.Col]
}

func (s *GridState) Type() models.ExerciseType { return models.Table }

func (s *GridState) Validate() error { return nil }

func (s *GridState) Payload(questionID string) any {
	cells := make([][]string, len(s.Cells))
	for r := range s.Cells {
		cells[r] = slices.Clone(s.Cells[r])
	}
	return models.TableRequest{
		QuestionID: questionID,
		Resposta:   models.GridAnswer{Variante: s.Variant(), Celulas: cells},
	}
}

func (s *GridState) snapshot(out *models.AnswerSnapshot) {
	out.Cells = make([][]string, len(s.Cells))
	for r := range s.Cells {
		out.Cells[r] = slices.Clone(s.Cells[r])
	}
}

func shuffle(rng *rand.Rand, n int, swap func(i, j int)) {
	if rng != nil {
		rng.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}
