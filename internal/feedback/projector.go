// Package feedback merges an exercise, its answer snapshot and its feedback
// into a render-ready state.
package feedback

import (
	"strconv"
	"strings"

	"github.com/SAP-F-2025/exercise-engine/internal/grid"
	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

// Project builds the RenderState for an exercise. It never mutates its
// arguments and may be called any number of times. ans and fb may be nil;
// analysis is only consulted for crosswords and is computed when nil.
func Project(ex models.Exercise, ans *models.AnswerSnapshot, fb *models.Feedback, analysis *grid.Analysis) models.RenderState {
	if ans == nil {
		ans = &models.AnswerSnapshot{}
	}
	rs := models.RenderState{
		Type:       ex.Type(),
		Respondido: ans.Respondido,
		Overall:    fb.Overall(),
	}
	if fb != nil {
		rs.Respondido = true
		rs.Score = fb.Score
		rs.Justification = fb.Justification
		rs.Suggestion = fb.Suggestion
	}

	switch m := ex.(type) {
	case *models.ChoiceModel:
		rs.Items = alternatives(m.Alternatives, fb, func(id string) bool { return ans.Choice == id })
	case *models.MultiSelectModel:
		selected := set(ans.Selected)
		rs.Items = alternatives(m.Alternatives, fb, func(id string) bool { return selected[id] })
	case *models.TextModel:
		rs.Prompt = m.Prompt
		rs.Items = []models.RenderItem{{Key: "resposta", Value: ans.Text, Verdict: fb.Overall()}}
	case *models.QuickBlockModel:
		rs.Items = quickBlock(m, ans, fb)
	case *models.MatchColumnsModel:
		rs.Left, rs.Items = matchColumns(m, ans, fb)
	case *models.TwoOptionFillModel:
		for i, s := range m.Sentences {
			rs.Items = append(rs.Items, models.RenderItem{
				Key:     s.ID,
				Before:  s.TextBefore,
				After:   s.TextAfter,
				Options: []string{s.Options[0], s.Options[1]},
				Value:   at(ans.Responses, i),
				Verdict: fb.Verdict(s.ID),
			})
		}
	case *models.WordBankFillModel:
		rs.Prompt = strings.Join(m.Sentences, "\n")
		for _, b := range m.Blanks {
			rs.Items = append(rs.Items, models.RenderItem{
				Key:     b.ID,
				Value:   m.TokenText(ans.SlotValues[b.ID]),
				Verdict: fb.Verdict(b.ID),
			})
		}
		for _, id := range ans.BankOrder {
			if text := m.TokenText(id); text != "" {
				rs.Bank = append(rs.Bank, models.BankToken{ID: id, Text: text})
			}
		}
		rs.ActiveSlot = ans.ActiveSlot
	case *models.ColorRegionsModel:
		selected := set(ans.Selected)
		for _, r := range m.Regions {
			rs.Items = append(rs.Items, models.RenderItem{
				Key:      r.ID,
				Selected: selected[r.ID],
				Verdict:  fb.Verdict(r.ID),
			})
		}
	case *models.CrosswordModel:
		if analysis == nil {
			analysis = grid.Analyze(m.ActivationMask, m.Clues)
		}
		rs.Grid = crossword(m, ans, fb, analysis)
	case *models.GridTableModel:
		rs.Grid = mathGrid(m, ans, fb)
	}
	return rs
}

func alternatives(alts []models.Alternative, fb *models.Feedback, selected func(string) bool) []models.RenderItem {
	items := make([]models.RenderItem, 0, len(alts))
	for _, a := range alts {
		item := models.RenderItem{
			Key:      a.ID,
			Label:    a.Text,
			Image:    a.Image,
			Selected: selected(a.ID),
			Verdict:  fb.Verdict(a.ID),
		}
		if fb != nil {
			item.Expected = fb.Expected[a.ID]
		}
		items = append(items, item)
	}
	return items
}

func quickBlock(m *models.QuickBlockModel, ans *models.AnswerSnapshot, fb *models.Feedback) []models.RenderItem {
	var options []string
	if m.Mode == models.QuickBlockTrueFalse {
		options = []string{"V", "F"}
	}
	items := make([]models.RenderItem, 0, len(m.Items))
	for i, it := range m.Items {
		items = append(items, models.RenderItem{
			Key:     it.ID,
			Label:   it.Text,
			Options: options,
			Value:   at(ans.Responses, i),
			Verdict: fb.Verdict(it.ID),
		})
	}
	return items
}

// matchColumns returns the left column in authored order and the right
// column in its presented order.
func matchColumns(m *models.MatchColumnsModel, ans *models.AnswerSnapshot, fb *models.Feedback) (left, right []models.RenderItem) {
	for i, l := range m.Left {
		left = append(left, models.RenderItem{
			Key:     strconv.Itoa(i + 1),
			Label:   l.Text,
			Image:   l.Image,
			Verdict: models.VerdictUnknown,
		})
	}

	order := ans.RightOrder
	if len(order) != len(m.Right) {
		order = make([]int, len(m.Right))
		for i := range order {
			order[i] = i
		}
	}
	for _, idx := range order {
		if idx < 0 || idx >= len(m.Right) {
			continue
		}
		key := strconv.Itoa(idx)
		item := models.RenderItem{
			Key:     key,
			Label:   m.Right[idx].Text,
			Image:   m.Right[idx].Image,
			Value:   ans.Matches[idx],
			Verdict: fb.Verdict(key),
		}
		if fb != nil {
			item.Expected = fb.Expected[key]
		}
		right = append(right, item)
	}
	return left, right
}

func crossword(m *models.CrosswordModel, ans *models.AnswerSnapshot, fb *models.Feedback, a *grid.Analysis) *models.RenderGrid {
	g := &models.RenderGrid{Variant: models.TableCrossword, Cells: make([][]models.RenderCell, m.Rows)}

	for r := 0; r < m.Rows; r++ {
		g.Cells[r] = make([]models.RenderCell, m.Cols)
		for c := 0; c < m.Cols; c++ {
			p := models.Position{Row: r, Col: c}
			cell := models.RenderCell{Row: r, Col: c, Active: m.Active(p), Verdict: models.VerdictUnknown}
			if cell.Active {
				cell.Badges = a.BadgesAt(p)
				if letter, fixed := m.Fixed(p); fixed {
					cell.Fixed = true
					cell.Value = letter
				} else {
					cell.Value = cellValue(ans.Cells, p)
				}
				cell.Verdict = crosswordCellVerdict(fb, a, p)
			}
			g.Cells[r][c] = cell
		}
	}

	for _, s := range a.Slots {
		clue := models.RenderClue{
			Number:    s.Number,
			Direction: s.Direction,
			Missing:   s.Clue == nil,
			Verdict:   fb.Verdict(models.SlotKey(s.Number)),
		}
		if s.Clue != nil {
			clue.Text = s.Clue.Text
		}
		if s.Direction == models.Horizontal {
			g.Across = append(g.Across, clue)
		} else {
			g.Down = append(g.Down, clue)
		}
	}
	return g
}

// A cell without its own verdict inherits from the slots crossing it: wrong
// if any is wrong, right if all are right.
func crosswordCellVerdict(fb *models.Feedback, a *grid.Analysis, p models.Position) models.Verdict {
	if v := fb.Verdict(p.Key()); v != models.VerdictUnknown || fb == nil {
		return v
	}
	slots := a.SlotsThrough(p)
	if len(slots) == 0 {
		return models.VerdictUnknown
	}
	result := models.VerdictCorrect
	for _, s := range slots {
		switch fb.Verdict(models.SlotKey(s.Number)) {
		case models.VerdictIncorrect:
			return models.VerdictIncorrect
		case models.VerdictUnknown:
			result = models.VerdictUnknown
		}
	}
	return result
}

func mathGrid(m *models.GridTableModel, ans *models.AnswerSnapshot, fb *models.Feedback) *models.RenderGrid {
	g := &models.RenderGrid{Variant: models.TableMath, Cells: make([][]models.RenderCell, m.Rows)}
	for r := 0; r < m.Rows; r++ {
		g.Cells[r] = make([]models.RenderCell, m.Cols)
		for c := 0; c < m.Cols; c++ {
			p := models.Position{Row: r, Col: c}
			cell := models.RenderCell{Row: r, Col: c, Active: true, Verdict: models.VerdictUnknown}
			if m.Editable(p) {
				cell.Value = cellValue(ans.Cells, p)
				cell.Verdict = fb.Verdict(p.Key())
			} else {
				cell.Fixed = true
				if r < len(m.Cells) && c < len(m.Cells[r]) && m.Cells[r][c] != nil {
					cell.Value = *m.Cells[r][c]
				}
			}
			g.Cells[r][c] = cell
		}
	}
	return g
}

func cellValue(cells [][]string, p models.Position) string {
	if p.Row < len(cells) && p.Col < len(cells[p.Row]) {
		return cells[p.Row][p.Col]
	}
	return ""
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func set(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
