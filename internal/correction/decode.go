package correction

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

// Decode maps a Correction Service response into a Feedback for ex. answer
// is the snapshot that was submitted; some types only report an overall
// verdict and the per-item verdicts are derived from it.
func Decode(ex models.Exercise, answer *models.AnswerSnapshot, body json.RawMessage) (*models.Feedback, error) {
	if answer == nil {
		answer = &models.AnswerSnapshot{}
	}
	fb := &models.Feedback{Type: ex.Type(), Items: make(map[string]models.Verdict)}

	var err error
	switch m := ex.(type) {
	case *models.ChoiceModel:
		err = decodeChoice(fb, answer, body)
	case *models.TextModel:
		err = decodeText(fb, body)
	case *models.QuickBlockModel:
		err = decodeQuickBlock(fb, m, body)
	case *models.MatchColumnsModel:
		err = decodeMatchColumns(fb, body)
	case *models.MultiSelectModel:
		err = decodeMultiSelect(fb, body)
	case *models.TwoOptionFillModel:
		err = decodeTwoOption(fb, m, body)
	case *models.WordBankFillModel:
		err = decodeWordBank(fb, body)
	case *models.CrosswordModel, *models.GridTableModel:
		err = decodeTable(fb, body)
	case *models.ColorRegionsModel:
		err = decodeColorRegions(fb, m, answer, body)
	default:
		return nil, fmt.Errorf("%w: unsupported exercise %T", ErrInvalidResponse, ex)
	}
	if err != nil {
		return nil, err
	}
	return fb, nil
}

func unmarshal(body json.RawMessage, v any) error {
	if len(body) == 0 {
		return fmt.Errorf("%w: empty body", ErrInvalidResponse)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func decodeChoice(fb *models.Feedback, answer *models.AnswerSnapshot, body json.RawMessage) error {
	var resp models.ChoiceResponse
	if err := unmarshal(body, &resp); err != nil {
		return err
	}
	fb.Correct = resp.Acertou
	if answer.Choice != "" {
		fb.Items[answer.Choice] = models.VerdictOf(resp.Acertou)
	}
	return nil
}

func decodeText(fb *models.Feedback, body json.RawMessage) error {
	var resp models.TextResponse
	if err := unmarshal(body, &resp); err != nil {
		return err
	}
	fb.Correct = resp.Acertou
	fb.Score = resp.Nota
	fb.Justification = resp.Justificativa
	if resp.Sugestao != nil {
		fb.Suggestion = *resp.Sugestao
	}
	return nil
}

func decodeQuickBlock(fb *models.Feedback, m *models.QuickBlockModel, body json.RawMessage) error {
	var resp models.QuickBlockResponse
	if err := unmarshal(body, &resp); err != nil {
		return err
	}
	fb.Correct = resp.Acertou
	for i, ok := range resp.Feedbacks {
		if i < len(m.Items) {
			fb.Items[m.Items[i].ID] = models.VerdictOf(ok)
		}
	}
	return nil
}

// Match-columns items are keyed by the authored right-column index.
func decodeMatchColumns(fb *models.Feedback, body json.RawMessage) error {
	var resp models.MatchColumnsResponse
	if err := unmarshal(body, &resp); err != nil {
		return err
	}
	fb.Correct = resp.Acertou
	for k, ok := range resp.Feedbacks {
		fb.Items[k] = models.VerdictOf(ok)
	}
	if len(resp.Corretas) > 0 {
		fb.Expected = make(map[string]string, len(resp.Corretas))
		for k, v := range resp.Corretas {
			fb.Expected[k] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return nil
}

func decodeMultiSelect(fb *models.Feedback, body json.RawMessage) error {
	var resp models.MultiSelectResponse
	if err := unmarshal(body, &resp); err != nil {
		return err
	}
	fb.Correct = resp.Acertou
	for id, ok := range resp.ResultadoCorrecao.PorItem {
		fb.Items[id] = models.VerdictOf(ok)
	}
	if len(resp.ResultadoCorrecao.Corretas) > 0 {
		fb.Expected = make(map[string]string, len(resp.ResultadoCorrecao.Corretas))
		for _, id := range resp.ResultadoCorrecao.Corretas {
			fb.Expected[id] = "selected"
		}
	}
	return nil
}

// Two-option results come keyed by blank id; older deployments only send the
// positional itens list.
func decodeTwoOption(fb *models.Feedback, m *models.TwoOptionFillModel, body json.RawMessage) error {
	var resp models.TwoOptionResponse
	if err := unmarshal(body, &resp); err != nil {
		return err
	}
	fb.Correct = resp.Acertou
	for id, ok := range resp.ResultadoCorrecao.PorLacuna {
		fb.Items[id] = models.VerdictOf(ok)
	}
	for i, item := range resp.ResultadoCorrecao.Itens {
		if i >= len(m.Sentences) {
			break
		}
		id := m.Sentences[i].ID
		if _, ok := fb.Items[id]; !ok {
			fb.Items[id] = models.VerdictOf(item == "correta")
		}
	}
	return nil
}

func decodeWordBank(fb *models.Feedback, body json.RawMessage) error {
	var resp models.WordBankResponse
	if err := unmarshal(body, &resp); err != nil {
		return err
	}
	fb.Correct = resp.Acertou
	for id, ok := range resp.ResultadoCorrecao.PorLacuna {
		fb.Items[id] = models.VerdictOf(ok)
	}
	return nil
}

func decodeTable(fb *models.Feedback, body json.RawMessage) error {
	var resp models.TableResponse
	if err := unmarshal(body, &resp); err != nil {
		return err
	}
	fb.Correct = resp.Acertou
	for r, row := range resp.Feedbacks {
		for c, ok := range row {
			if ok != nil {
				fb.Items[models.Position{Row: r, Col: c}.Key()] = models.VerdictOf(*ok)
			}
		}
	}
	if res := resp.ResultadoCorrecao; res != nil {
		for key, ok := range res.PorCelula {
			fb.Items[key] = models.VerdictOf(ok)
		}
		for num, ok := range res.PorPalavra {
			n, err := strconv.Atoi(num)
			if err != nil {
				continue
			}
			fb.Items[models.SlotKey(n)] = models.VerdictOf(ok)
		}
	}
	return nil
}

// The service only reports the overall verdict for color regions; per-region
// verdicts come from the authored correctness flags.
func decodeColorRegions(fb *models.Feedback, m *models.ColorRegionsModel, answer *models.AnswerSnapshot, body json.RawMessage) error {
	var resp models.ColorRegionsResponse
	if err := unmarshal(body, &resp); err != nil {
		return err
	}
	fb.Correct = resp.Acertou
	marked := make(map[string]bool, len(answer.Selected))
	for _, id := range answer.Selected {
		marked[id] = true
	}
	for _, r := range m.Regions {
		fb.Items[r.ID] = models.VerdictOf(marked[r.ID] == r.IsCorrect)
	}
	return nil
}
