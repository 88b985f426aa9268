// Package normalizer converts authored, type-tagged exercise content into
// the typed exercise models. Normalization is total: any input yields either
// a model or an *UnavailableError, never a panic.
package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

var gapPattern = regexp.MustCompile(`_{3,}`)

// Normalize decodes raw content for the given exercise type.
func Normalize(t models.ExerciseType, raw json.RawMessage) (ex models.Exercise, err error) {
	defer func() {
		if r := recover(); r != nil {
			ex = nil
			err = unavailable(t, "unexpected content shape: %v", r)
		}
	}()

	if !t.Valid() {
		return nil, unavailable(t, "unknown exercise type")
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = json.RawMessage("{}")
	}

	switch t {
	case models.MultipleChoice, models.TrueFalse:
		return normalizeChoice(t, raw)
	case models.Essay, models.ShortAnswer:
		return normalizeText(t, raw)
	case models.QuickBlock:
		return normalizeQuickBlock(raw)
	case models.MatchColumns:
		return normalizeMatchColumns(raw)
	case models.MultiSelect:
		return normalizeMultiSelect(raw)
	case models.FillBlank:
		return normalizeTwoOption(raw)
	case models.FillBlankWordBank:
		return normalizeWordBank(raw)
	case models.Table:
		return normalizeTable(raw)
	case models.ColorRegions:
		return normalizeColorRegions(raw)
	}
	return nil, unavailable(t, "unsupported exercise type")
}

func decode(t models.ExerciseType, raw json.RawMessage, dest any) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return unavailable(t, "invalid JSON: %v", err)
	}
	return nil
}

func normalizeChoice(t models.ExerciseType, raw json.RawMessage) (models.Exercise, error) {
	var content rawChoice
	if err := decode(t, raw, &content); err != nil {
		return nil, err
	}

	if len(content.Alternatives) == 0 && t == models.TrueFalse {
		return &models.ChoiceModel{
			Kind: t,
			Alternatives: []models.Alternative{
				{ID: "V", Text: "Verdadeiro"},
				{ID: "F", Text: "Falso"},
			},
		}, nil
	}

	alts := make([]models.Alternative, 0, len(content.Alternatives))
	seen := make(map[string]bool)
	for i, a := range content.Alternatives {
		id := a.ID.String()
		if id == "" {
			id = a.Letter.String()
		}
		if id == "" {
			id = string(rune('A' + i%26))
		}
		if seen[id] {
			return nil, unavailable(t, "duplicate alternative %q", id)
		}
		if a.Text.String() == "" && a.Image.String() == "" {
			return nil, unavailable(t, "alternative %q has neither text nor image", id)
		}
		seen[id] = true
		alts = append(alts, models.Alternative{ID: id, Text: a.Text.String(), Image: a.Image.String()})
	}

	if len(alts) < 2 {
		return nil, unavailable(t, "at least 2 alternatives required, got %d", len(alts))
	}
	return &models.ChoiceModel{Kind: t, Alternatives: alts}, nil
}

func normalizeText(t models.ExerciseType, raw json.RawMessage) (models.Exercise, error) {
	var content rawText
	if err := decode(t, raw, &content); err != nil {
		return nil, err
	}
	return &models.TextModel{Kind: t, Prompt: content.Prompt.String()}, nil
}

func normalizeQuickBlock(raw json.RawMessage) (models.Exercise, error) {
	var content rawQuickBlock
	if err := decode(models.QuickBlock, raw, &content); err != nil {
		return nil, err
	}

	mode := models.QuickBlockText
	switch strings.ToLower(content.Mode.String()) {
	case "vf", "v/f", "verdadeiro_falso":
		mode = models.QuickBlockTrueFalse
	}

	items := make([]models.QuickBlockItem, 0, len(content.Items))
	for i, it := range content.Items {
		id := it.ID.String()
		if id == "" {
			id = fmt.Sprintf("item-%d", i+1)
		}
		items = append(items, models.QuickBlockItem{ID: id, Text: it.Text.String()})
	}
	if len(items) == 0 {
		return nil, unavailable(models.QuickBlock, "no items")
	}
	return &models.QuickBlockModel{Mode: mode, Items: items}, nil
}

func normalizeMatchColumns(raw json.RawMessage) (models.Exercise, error) {
	var content rawMatchColumns
	if err := decode(models.MatchColumns, raw, &content); err != nil {
		return nil, err
	}

	left, err := columnItems(content.Left, "colunaA")
	if err != nil {
		return nil, err
	}
	right, err := columnItems(content.Right, "colunaB")
	if err != nil {
		return nil, err
	}
	return &models.MatchColumnsModel{Left: left, Right: right}, nil
}

func columnItems(raw []rawColumnItem, column string) ([]models.ColumnItem, error) {
	if len(raw) == 0 {
		return nil, unavailable(models.MatchColumns, "%s is empty", column)
	}
	items := make([]models.ColumnItem, len(raw))
	for i, it := range raw {
		if it.Text.String() == "" && it.Image.String() == "" {
			return nil, unavailable(models.MatchColumns, "%s item %d has neither text nor image", column, i+1)
		}
		items[i] = models.ColumnItem{Text: it.Text.String(), Image: it.Image.String()}
	}
	return items, nil
}

func normalizeMultiSelect(raw json.RawMessage) (models.Exercise, error) {
	var content rawChoice
	if err := decode(models.MultiSelect, raw, &content); err != nil {
		return nil, err
	}

	alts := make([]models.Alternative, 0, len(content.Alternatives))
	seen := make(map[string]bool)
	for i, a := range content.Alternatives {
		id := a.ID.String()
		if id == "" {
			id = fmt.Sprintf("alt-%d", i+1)
		}
		if seen[id] {
			return nil, unavailable(models.MultiSelect, "duplicate alternative %q", id)
		}
		seen[id] = true
		alts = append(alts, models.Alternative{ID: id, Text: a.Text.String(), Image: a.Image.String()})
	}
	if len(alts) == 0 {
		return nil, unavailable(models.MultiSelect, "no alternatives")
	}
	return &models.MultiSelectModel{Alternatives: alts}, nil
}

// normalizeTwoOption drops sentences that lack two options or a gap.
func normalizeTwoOption(raw json.RawMessage) (models.Exercise, error) {
	var content rawTwoOption
	if err := decode(models.FillBlank, raw, &content); err != nil {
		return nil, err
	}

	sentences := make([]models.TwoOptionSentence, 0, len(content.Sentences))
	for i, s := range content.Sentences {
		if len(s.Options) != 2 || s.Options[0].String() == "" || s.Options[1].String() == "" {
			continue
		}

		before, after := s.TextBefore.String(), s.TextAfter.String()
		if text := string(s.Text); text != "" {
			loc := gapPattern.FindStringIndex(text)
			if loc == nil {
				continue
			}
			before = strings.TrimRight(text[:loc[0]], " ")
			after = strings.TrimLeft(text[loc[1]:], " ")
		} else if before == "" && after == "" {
			continue
		}

		id := s.ID.String()
		if id == "" {
			id = fmt.Sprintf("lacuna-%d", i+1)
		}
		sentences = append(sentences, models.TwoOptionSentence{
			ID:         id,
			TextBefore: before,
			TextAfter:  after,
			Options:    [2]string{s.Options[0].String(), s.Options[1].String()},
		})
	}

	if len(sentences) == 0 {
		return nil, unavailable(models.FillBlank, "no usable sentences")
	}
	return &models.TwoOptionFillModel{Sentences: sentences}, nil
}

// normalizeWordBank drops sentences without a gap of three or more
// underscores; the blank count is the number of gaps that remain.
func normalizeWordBank(raw json.RawMessage) (models.Exercise, error) {
	var content rawWordBank
	if err := decode(models.FillBlankWordBank, raw, &content); err != nil {
		return nil, err
	}

	var sentences []string
	gaps := 0
	for _, s := range content.Sentences {
		text := string(s)
		n := len(gapPattern.FindAllStringIndex(text, -1))
		if n == 0 {
			continue
		}
		sentences = append(sentences, text)
		gaps += n
	}
	if gaps == 0 {
		return nil, unavailable(models.FillBlankWordBank, "no sentence contains a gap")
	}

	blanks := make([]models.Blank, gaps)
	useAuthored := len(content.Blanks) == gaps
	seen := make(map[string]bool)
	for i := range blanks {
		id := ""
		if useAuthored {
			id = content.Blanks[i].ID.String()
		}
		if id == "" || seen[id] {
			id = fmt.Sprintf("lacuna-%d", i+1)
		}
		seen[id] = true
		blanks[i] = models.Blank{ID: id}
	}

	tokens := make([]models.BankToken, 0, len(content.Bank))
	seenTokens := make(map[string]bool)
	for i, tok := range content.Bank {
		text := tok.Text.String()
		if text == "" {
			continue
		}
		id := tok.ID.String()
		if id == "" || seenTokens[id] {
			id = fmt.Sprintf("palavra-%d", i+1)
		}
		for n := 2; seenTokens[id]; n++ {
			id = fmt.Sprintf("palavra-%d-%d", i+1, n)
		}
		seenTokens[id] = true
		tokens = append(tokens, models.BankToken{ID: id, Text: text})
	}
	if len(tokens) == 0 {
		return nil, unavailable(models.FillBlankWordBank, "word bank is empty")
	}

	return &models.WordBankFillModel{Sentences: sentences, Blanks: blanks, BankTokens: tokens}, nil
}

func normalizeTable(raw json.RawMessage) (models.Exercise, error) {
	var content rawTable
	if err := decode(models.Table, raw, &content); err != nil {
		return nil, err
	}

	variant := models.TableVariant(strings.ToLower(content.Variant.String()))
	if variant == "" {
		switch {
		case len(content.Mask) > 0:
			variant = models.TableCrossword
		case len(content.Cells) > 0:
			variant = models.TableMath
		}
	}

	switch variant {
	case models.TableCrossword, "crossword":
		return normalizeCrossword(content)
	case models.TableMath, "math":
		return normalizeMathTable(content)
	}
	return nil, unavailable(models.Table, "unknown table variant %q", content.Variant.String())
}

func normalizeCrossword(content rawTable) (models.Exercise, error) {
	rows, cols := content.Rows, content.Cols
	if rows <= 0 {
		rows = len(content.Mask)
	}
	if cols <= 0 {
		for _, r := range content.Mask {
			if len(r) > cols {
				cols = len(r)
			}
		}
	}
	if rows <= 0 || cols <= 0 {
		return nil, unavailable(models.Table, "crossword has no activation mask")
	}
	if err := checkGridSize(rows, cols); err != nil {
		return nil, err
	}

	mask := make([][]bool, rows)
	for r := range mask {
		mask[r] = make([]bool, cols)
		if r >= len(content.Mask) {
			continue
		}
		for c := 0; c < cols && c < len(content.Mask[r]); c++ {
			mask[r][c] = bool(content.Mask[r][c])
		}
	}

	m := &models.CrosswordModel{Rows: rows, Cols: cols, ActivationMask: mask}

	for _, f := range content.Fixed {
		if f.Row == nil || f.Col == nil {
			continue
		}
		p := models.Position{Row: *f.Row, Col: *f.Col}
		letter := f.Letter.String()
		if letter == "" || !m.Active(p) {
			continue
		}
		m.FixedCells = append(m.FixedCells, models.FixedCell{Row: p.Row, Col: p.Col, Letter: letter})
	}

	for i, c := range content.Clues {
		clue := models.Clue{ID: c.ID.String(), Text: c.Text.String()}
		if clue.ID == "" {
			clue.ID = fmt.Sprintf("dica-%d", i+1)
		}
		if c.Row != nil && c.Col != nil {
			clue.Anchor = &models.Position{Row: *c.Row, Col: *c.Col}
		}
		if d, ok := parseDirection(c.Direction.String()); ok {
			clue.Direction = &d
		}
		m.Clues = append(m.Clues, clue)
	}

	return m, nil
}

func checkGridSize(rows, cols int) error {
	if rows > models.MaxGridSide || cols > models.MaxGridSide {
		return unavailable(models.Table, "grid exceeds %dx%d", models.MaxGridSide, models.MaxGridSide)
	}
	return nil
}

func parseDirection(s string) (models.Direction, bool) {
	switch strings.ToLower(s) {
	case "horizontal", "h", "across", "direita":
		return models.Horizontal, true
	case "vertical", "v", "down", "baixo":
		return models.Vertical, true
	}
	return "", false
}

func normalizeMathTable(content rawTable) (models.Exercise, error) {
	rows, cols := content.Rows, content.Cols
	if rows <= 0 {
		rows = len(content.Cells)
	}
	if cols <= 0 {
		for _, r := range content.Cells {
			if len(r) > cols {
				cols = len(r)
			}
		}
	}
	if rows <= 0 || cols <= 0 {
		return nil, unavailable(models.Table, "math table has no cells")
	}
	if err := checkGridSize(rows, cols); err != nil {
		return nil, err
	}

	cells := make([][]*string, rows)
	for r := range cells {
		cells[r] = make([]*string, cols)
		for c := range cells[r] {
			if r < len(content.Cells) && c < len(content.Cells[r]) {
				cells[r][c] = content.Cells[r][c].value
				continue
			}
			empty := ""
			cells[r][c] = &empty
		}
	}

	return &models.GridTableModel{Rows: rows, Cols: cols, Cells: cells}, nil
}

func normalizeColorRegions(raw json.RawMessage) (models.Exercise, error) {
	var content rawColorRegions
	if err := decode(models.ColorRegions, raw, &content); err != nil {
		return nil, err
	}

	regions := make([]models.Region, 0, len(content.Regions))
	seen := make(map[string]bool)
	for i, r := range content.Regions {
		id := r.ID.String()
		if id == "" {
			id = fmt.Sprintf("regiao-%d", i+1)
		}
		if seen[id] {
			return nil, unavailable(models.ColorRegions, "duplicate region %q", id)
		}
		seen[id] = true
		regions = append(regions, models.Region{ID: id, IsCorrect: bool(r.Correct)})
	}
	if len(regions) == 0 {
		return nil, unavailable(models.ColorRegions, "no regions")
	}
	return &models.ColorRegionsModel{Regions: regions}, nil
}
