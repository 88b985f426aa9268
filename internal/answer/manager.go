package answer

import (
	"fmt"
	"math/rand/v2"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

// Manager owns the answer state of a single exercise instance. It is not
// safe for concurrent use; callers serialize access per instance.
type Manager struct {
	exercise   models.Exercise
	state      State
	respondido bool
	feedback   *models.Feedback
}

// New builds the answer state for ex, restoring from snap when it belongs to
// the same exercise type. rng drives the one-time shuffles; nil uses the
// global source.
func New(ex models.Exercise, snap *models.AnswerSnapshot, rng *rand.Rand) (*Manager, error) {
	if ex == nil {
		return nil, fmt.Errorf("answer: nil exercise")
	}
	if snap != nil && snap.Type != ex.Type() {
		snap = nil
	}

	var state State
	switch m := ex.(type) {
	case *models.ChoiceModel:
		state = newChoiceState(m, snap)
	case *models.TextModel:
		s := &TextState{kind: m.Kind}
		if snap != nil {
			s.Text = snap.Text
		}
		state = s
	case *models.QuickBlockModel:
		s := &BlankState{kind: models.QuickBlock, quick: m}
		s.restore(snap)
		state = s
	case *models.TwoOptionFillModel:
		s := &BlankState{kind: models.FillBlank, twoOption: m}
		s.restore(snap)
		state = s
	case *models.MatchColumnsModel:
		state = newMatchState(m, snap, rng)
	case *models.MultiSelectModel:
		ids := make([]string, len(m.Alternatives))
		for i, a := range m.Alternatives {
			ids[i] = a.ID
		}
		state = newSelectionState(models.MultiSelect, ids, snap)
	case *models.ColorRegionsModel:
		ids := make([]string, len(m.Regions))
		for i, r := range m.Regions {
			ids[i] = r.ID
		}
		state = newSelectionState(models.ColorRegions, ids, snap)
	case *models.WordBankFillModel:
		state = newWordBank(m, snap, rng)
	case *models.CrosswordModel:
		state = newGridState(m, nil, snap)
	case *models.GridTableModel:
		state = newGridState(nil, m, snap)
	default:
		return nil, fmt.Errorf("answer: unsupported exercise %T", ex)
	}

	mgr := &Manager{exercise: ex, state: state}
	if snap != nil && snap.Respondido {
		mgr.respondido = true
		mgr.feedback = snap.Feedback
	}
	return mgr, nil
}

func (m *Manager) Exercise() models.Exercise { return m.exercise }

func (m *Manager) State() State { return m.state }

func (m *Manager) Respondido() bool { return m.respondido }

func (m *Manager) Feedback() *models.Feedback { return m.feedback }

// Bank returns the word-bank coordinator for fill_blank_word_bank instances.
func (m *Manager) Bank() (*WordBank, bool) {
	b, ok := m.state.(*WordBank)
	return b, ok
}

// Freeze attaches feedback and makes the state read-only. Only the first
// call has an effect.
func (m *Manager) Freeze(fb *models.Feedback) {
	if m.respondido {
		return
	}
	m.respondido = true
	m.feedback = fb
}

func (m *Manager) mutable() error {
	if m.respondido {
		return ErrAnswered
	}
	return nil
}

func stateAs[T State](m *Manager) (T, error) {
	var zero T
	if err := m.mutable(); err != nil {
		return zero, err
	}
	s, ok := m.state.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrUnsupported, m.state.Type())
	}
	return s, nil
}

func (m *Manager) SelectAlternative(id string) error {
	s, err := stateAs[*ChoiceState](m)
	if err != nil {
		return err
	}
	return s.Select(id)
}

func (m *Manager) SetText(text string) error {
	s, err := stateAs[*TextState](m)
	if err != nil {
		return err
	}
	s.Text = text
	return nil
}

func (m *Manager) ToggleSelection(id string) error {
	s, err := stateAs[*SelectionState](m)
	if err != nil {
		return err
	}
	return s.Toggle(id)
}

func (m *Manager) SetBlank(index int, value string) error {
	s, err := stateAs[*BlankState](m)
	if err != nil {
		return err
	}
	return s.Set(index, value)
}

func (m *Manager) SetMatch(rightIndex int, leftOrdinal string) error {
	s, err := stateAs[*MatchState](m)
	if err != nil {
		return err
	}
	return s.Set(rightIndex, leftOrdinal)
}

func (m *Manager) SetCell(p models.Position, value string) error {
	s, err := stateAs[*GridState](m)
	if err != nil {
		return err
	}
	return s.Set(p, value)
}

func (m *Manager) AssignWordToSlot(slotID, tokenID string) error {
	b, err := stateAs[*WordBank](m)
	if err != nil {
		return err
	}
	return b.AssignWordToSlot(slotID, tokenID)
}

func (m *Manager) ClearSlot(slotID string) error {
	b, err := stateAs[*WordBank](m)
	if err != nil {
		return err
	}
	return b.ClearSlot(slotID)
}

func (m *Manager) MoveBetweenSlots(fromID, toID string) error {
	b, err := stateAs[*WordBank](m)
	if err != nil {
		return err
	}
	return b.MoveBetweenSlots(fromID, toID)
}

func (m *Manager) TapToken(tokenID string) (string, error) {
	b, err := stateAs[*WordBank](m)
	if err != nil {
		return "", err
	}
	return b.TapToken(tokenID)
}

func (m *Manager) Validate() error {
	return m.state.Validate()
}

func (m *Manager) Payload(questionID string) any {
	return m.state.Payload(questionID)
}

// Snapshot captures the state for persistence.
func (m *Manager) Snapshot() *models.AnswerSnapshot {
	snap := &models.AnswerSnapshot{
		Type:       m.exercise.Type(),
		Respondido: m.respondido,
		Feedback:   m.feedback,
	}
	m.state.snapshot(snap)
	return snap
}
