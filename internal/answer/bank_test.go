package answer

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordBankModel(blanks int, words ...string) *models.WordBankFillModel {
	m := &models.WordBankFillModel{Sentences: []string{"O ___ mia."}}
	for i := 0; i < blanks; i++ {
		m.Blanks = append(m.Blanks, models.Blank{ID: fmt.Sprintf("lacuna-%d", i+1)})
	}
	for i, w := range words {
		m.BankTokens = append(m.BankTokens, models.BankToken{ID: fmt.Sprintf("palavra-%d", i+1), Text: w})
	}
	return m
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed*31+1))
}

func texts(m *models.WordBankFillModel, ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = m.TokenText(id)
	}
	return out
}

func TestWordBank_ReassignReturnsPreviousToken(t *testing.T) {
	m := wordBankModel(1, "gato", "cão")
	b := newWordBank(m, nil, seeded(1))

	require.NoError(t, b.AssignWordToSlot("lacuna-1", "palavra-1"))
	require.NoError(t, b.AssignWordToSlot("lacuna-1", "palavra-2"))

	assert.Equal(t, map[string]string{"lacuna-1": "palavra-2"}, b.SlotValues())
	assert.Equal(t, "cão", m.TokenText(b.SlotValues()["lacuna-1"]))
	assert.Equal(t, []string{"gato"}, texts(m, b.BankOrder()))
	assert.NoError(t, b.CheckConservation())
}

func TestWordBank_DisplacedTokenGoesToEnd(t *testing.T) {
	m := wordBankModel(1, "a", "b", "c", "d")
	b := newWordBank(m, &models.AnswerSnapshot{
		Type:      models.FillBlankWordBank,
		BankOrder: []string{"palavra-1", "palavra-2", "palavra-3", "palavra-4"},
	}, nil)

	require.NoError(t, b.AssignWordToSlot("lacuna-1", "palavra-1"))
	require.NoError(t, b.AssignWordToSlot("lacuna-1", "palavra-3"))

	assert.Equal(t, []string{"palavra-2", "palavra-4", "palavra-1"}, b.BankOrder())
}

func TestWordBank_DuplicateTextTrackedByIdentity(t *testing.T) {
	m := wordBankModel(2, "gato", "gato")
	b := newWordBank(m, &models.AnswerSnapshot{
		Type:      models.FillBlankWordBank,
		BankOrder: []string{"palavra-1", "palavra-2"},
	}, nil)

	require.NoError(t, b.AssignWordToSlot("lacuna-1", "palavra-2"))
	assert.Equal(t, []string{"palavra-1"}, b.BankOrder())

	require.NoError(t, b.AssignWordByText("lacuna-2", "gato"))
	assert.Equal(t, "palavra-1", b.SlotValues()["lacuna-2"])
	assert.Empty(t, b.BankOrder())

	err := b.AssignWordByText("lacuna-2", "gato")
	assert.ErrorIs(t, err, ErrTokenNotInBank)
	assert.NoError(t, b.CheckConservation())
}

func TestWordBank_SameTokenSameSlotClearsActive(t *testing.T) {
	m := wordBankModel(2, "gato", "cão")
	b := newWordBank(m, nil, seeded(2))

	require.NoError(t, b.AssignWordToSlot("lacuna-1", "palavra-1"))
	require.NoError(t, b.ClearSlot("lacuna-2"))
	assert.Equal(t, "lacuna-2", b.ActiveSlot())

	var changes int
	b.OnChange(func(BankChange) { changes++ })
	require.NoError(t, b.AssignWordToSlot("lacuna-1", "palavra-1"))

	assert.Empty(t, b.ActiveSlot())
	assert.Zero(t, changes)
	assert.Equal(t, map[string]string{"lacuna-1": "palavra-1"}, b.SlotValues())
}

func TestWordBank_AssignMovesTokenFromOtherSlot(t *testing.T) {
	m := wordBankModel(2, "gato", "cão")
	b := newWordBank(m, nil, seeded(3))

	require.NoError(t, b.AssignWordToSlot("lacuna-1", "palavra-1"))
	require.NoError(t, b.AssignWordToSlot("lacuna-2", "palavra-1"))

	assert.Equal(t, map[string]string{"lacuna-2": "palavra-1"}, b.SlotValues())
	assert.NoError(t, b.CheckConservation())
}

func TestWordBank_ClearSlot(t *testing.T) {
	m := wordBankModel(1, "gato", "cão")
	b := newWordBank(m, nil, seeded(4))

	require.NoError(t, b.AssignWordToSlot("lacuna-1", "palavra-1"))
	require.NoError(t, b.ClearSlot("lacuna-1"))

	assert.Empty(t, b.SlotValues())
	order := b.BankOrder()
	require.Len(t, order, 2)
	assert.Equal(t, "palavra-1", order[1])
	assert.Empty(t, b.ActiveSlot())

	require.NoError(t, b.ClearSlot("lacuna-1"))
	assert.Equal(t, "lacuna-1", b.ActiveSlot())
	assert.ErrorIs(t, b.ClearSlot("nope"), ErrUnknownSlot)
}

func TestWordBank_MoveBetweenSlots(t *testing.T) {
	m := wordBankModel(3, "a", "b", "c")
	b := newWordBank(m, nil, seeded(5))

	require.NoError(t, b.AssignWordToSlot("lacuna-1", "palavra-1"))
	require.NoError(t, b.AssignWordToSlot("lacuna-2", "palavra-2"))

	require.NoError(t, b.MoveBetweenSlots("lacuna-1", "lacuna-2"))
	assert.Equal(t, map[string]string{"lacuna-2": "palavra-1"}, b.SlotValues())
	order := b.BankOrder()
	assert.Equal(t, "palavra-2", order[len(order)-1])

	require.NoError(t, b.MoveBetweenSlots("lacuna-2", "lacuna-3"))
	assert.Equal(t, map[string]string{"lacuna-3": "palavra-1"}, b.SlotValues())

	assert.ErrorIs(t, b.MoveBetweenSlots("lacuna-1", "lacuna-2"), ErrEmptySlot)
	assert.NoError(t, b.CheckConservation())
}

func TestWordBank_TapToken(t *testing.T) {
	m := wordBankModel(2, "a", "b", "c")
	b := newWordBank(m, nil, seeded(6))

	slot, err := b.TapToken("palavra-2")
	require.NoError(t, err)
	assert.Equal(t, "lacuna-1", slot)

	require.NoError(t, b.ClearSlot("lacuna-1"))
	require.NoError(t, b.ClearSlot("lacuna-1"))
	require.Equal(t, "lacuna-1", b.ActiveSlot())

	slot, err = b.TapToken("palavra-3")
	require.NoError(t, err)
	assert.Equal(t, "lacuna-1", slot)
	assert.Empty(t, b.ActiveSlot())

	slot, err = b.TapToken("palavra-1")
	require.NoError(t, err)
	assert.Equal(t, "lacuna-2", slot)

	_, err = b.TapToken("palavra-2")
	assert.ErrorIs(t, err, ErrNoEmptySlot)
	_, err = b.TapToken("palavra-1")
	assert.ErrorIs(t, err, ErrTokenNotInBank)
	assert.NoError(t, b.CheckConservation())
}

func TestWordBank_OnChangeUnsubscribe(t *testing.T) {
	m := wordBankModel(1, "gato", "cão")
	b := newWordBank(m, nil, seeded(7))

	var got []BankChange
	stop := b.OnChange(func(c BankChange) { got = append(got, c) })

	require.NoError(t, b.AssignWordToSlot("lacuna-1", "palavra-1"))
	require.Len(t, got, 1)
	assert.Equal(t, BankAssign, got[0].Op)
	assert.Equal(t, map[string]string{"lacuna-1": "palavra-1"}, got[0].SlotValues)
	assert.Equal(t, []string{"palavra-2"}, got[0].BankOrder)

	stop()
	require.NoError(t, b.ClearSlot("lacuna-1"))
	assert.Len(t, got, 1)
}

func TestWordBank_ShuffleIsDeterministicPerSeed(t *testing.T) {
	m := wordBankModel(1, "a", "b", "c", "d", "e", "f", "g", "h")

	first := newWordBank(m, nil, seeded(42)).BankOrder()
	second := newWordBank(m, nil, seeded(42)).BankOrder()
	assert.Equal(t, first, second)
	assert.ElementsMatch(t, []string{
		"palavra-1", "palavra-2", "palavra-3", "palavra-4",
		"palavra-5", "palavra-6", "palavra-7", "palavra-8",
	}, first)
}

func TestWordBank_RestoreFromSnapshot(t *testing.T) {
	m := wordBankModel(2, "a", "b", "c", "d")
	snap := &models.AnswerSnapshot{
		Type: models.FillBlankWordBank,
		SlotValues: map[string]string{
			"lacuna-1": "palavra-3",
			"lacuna-2": "palavra-3",
			"lacuna-9": "palavra-1",
		},
		BankOrder:  []string{"palavra-2", "palavra-3", "fantasma", "palavra-2"},
		ActiveSlot: "lacuna-2",
	}

	b := newWordBank(m, snap, seeded(8))

	assert.Equal(t, map[string]string{"lacuna-1": "palavra-3"}, b.SlotValues())
	assert.Equal(t, []string{"palavra-2", "palavra-1", "palavra-4"}, b.BankOrder())
	assert.Equal(t, "lacuna-2", b.ActiveSlot())
	assert.NoError(t, b.CheckConservation())
}

func TestWordBank_ConservationUnderRandomOperations(t *testing.T) {
	m := wordBankModel(4, "o", "gato", "gato", "cão", "late", "mia")

	for seed := uint64(1); seed <= 50; seed++ {
		rng := seeded(seed)
		b := newWordBank(m, nil, rng)

		slot := func() string { return m.Blanks[rng.IntN(len(m.Blanks))].ID }
		token := func() string { return m.BankTokens[rng.IntN(len(m.BankTokens))].ID }

		for step := 0; step < 200; step++ {
			switch rng.IntN(4) {
			case 0:
				_ = b.AssignWordToSlot(slot(), token())
			case 1:
				_ = b.ClearSlot(slot())
			case 2:
				_ = b.MoveBetweenSlots(slot(), slot())
			case 3:
				_, _ = b.TapToken(token())
			}
			require.NoError(t, b.CheckConservation(), "seed %d step %d", seed, step)
		}
	}
}

func TestWordBank_ValidateAndPayload(t *testing.T) {
	m := wordBankModel(2, "gato", "cão")
	b := newWordBank(m, nil, seeded(9))

	err := b.Validate()
	require.Error(t, err)
	assertRule(t, err, RuleAllBlanksFilled)

	require.NoError(t, b.AssignWordToSlot("lacuna-1", "palavra-2"))
	require.NoError(t, b.AssignWordToSlot("lacuna-2", "palavra-1"))
	require.NoError(t, b.Validate())

	assert.Equal(t, models.WordBankRequest{
		QuestionID: "q1",
		RespostasAluno: []models.WordBankAnswer{
			{LacunaID: "lacuna-1", Valor: "cão"},
			{LacunaID: "lacuna-2", Valor: "gato"},
		},
	}, b.Payload("q1"))
}
