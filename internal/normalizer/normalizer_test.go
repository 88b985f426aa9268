package normalizer

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_MultipleChoice(t *testing.T) {
	ex, err := Normalize(models.MultipleChoice, json.RawMessage(`{
		"alternativas": [
			{"letra": "A", "texto": "Marte"},
			{"letra": "B", "texto": "Vênus", "imagem": "venus.png"},
			{"texto": "Terra"}
		]
	}`))
	require.NoError(t, err)

	m, ok := ex.(*models.ChoiceModel)
	require.True(t, ok)
	assert.Equal(t, models.MultipleChoice, m.Type())
	require.Len(t, m.Alternatives, 3)
	assert.Equal(t, "A", m.Alternatives[0].ID)
	assert.Equal(t, "venus.png", m.Alternatives[1].Image)
	assert.Equal(t, "C", m.Alternatives[2].ID)
}

func TestNormalize_TrueFalseDefaults(t *testing.T) {
	ex, err := Normalize(models.TrueFalse, nil)
	require.NoError(t, err)

	m := ex.(*models.ChoiceModel)
	assert.Equal(t, models.TrueFalse, m.Type())
	assert.Equal(t, []string{"V", "F"}, []string{m.Alternatives[0].ID, m.Alternatives[1].ID})
}

func TestNormalize_TextTypes(t *testing.T) {
	for _, typ := range []models.ExerciseType{models.Essay, models.ShortAnswer} {
		ex, err := Normalize(typ, json.RawMessage(`{"enunciado": "Explique a fotossíntese."}`))
		require.NoError(t, err)
		assert.Equal(t, typ, ex.Type())
		assert.Equal(t, "Explique a fotossíntese.", ex.(*models.TextModel).Prompt)
	}
}

func TestNormalize_QuickBlock(t *testing.T) {
	ex, err := Normalize(models.QuickBlock, json.RawMessage(`{
		"modo": "vf",
		"itens": [{"texto": "A água ferve a 100 °C."}, {"id": 7, "texto": "O gelo é quente."}]
	}`))
	require.NoError(t, err)

	m := ex.(*models.QuickBlockModel)
	assert.Equal(t, models.QuickBlockTrueFalse, m.Mode)
	assert.Equal(t, "item-1", m.Items[0].ID)
	assert.Equal(t, "7", m.Items[1].ID)
}

func TestNormalize_MatchColumns(t *testing.T) {
	ex, err := Normalize(models.MatchColumns, json.RawMessage(`{
		"colunaA": [{"texto": "Cão"}, {"imagem": "gato.png"}],
		"colunaB": [{"texto": "Mia"}, {"texto": "Late"}]
	}`))
	require.NoError(t, err)

	m := ex.(*models.MatchColumnsModel)
	assert.Len(t, m.Left, 2)
	assert.Equal(t, "gato.png", m.Left[1].Image)
	assert.Equal(t, "Late", m.Right[1].Text)
}

func TestNormalize_TwoOptionFill(t *testing.T) {
	ex, err := Normalize(models.FillBlank, json.RawMessage(`{
		"frases": [
			{"texto": "O sol é _____ que a Terra.", "opcoes": ["maior", "menor"]},
			{"id": "s2", "textoAntes": "A lua é", "textoDepois": "que o sol.", "opcoes": ["maior", "menor"]},
			{"texto": "Sem lacuna aqui.", "opcoes": ["a", "b"]},
			{"texto": "Só uma ___ opção.", "opcoes": ["a"]}
		]
	}`))
	require.NoError(t, err)

	m := ex.(*models.TwoOptionFillModel)
	require.Len(t, m.Sentences, 2)
	assert.Equal(t, "lacuna-1", m.Sentences[0].ID)
	assert.Equal(t, "O sol é", m.Sentences[0].TextBefore)
	assert.Equal(t, "que a Terra.", m.Sentences[0].TextAfter)
	assert.Equal(t, [2]string{"maior", "menor"}, m.Sentences[0].Options)
	assert.Equal(t, "s2", m.Sentences[1].ID)
}

func TestNormalize_WordBankDropsSentencesWithoutGap(t *testing.T) {
	ex, err := Normalize(models.FillBlankWordBank, json.RawMessage(`{
		"frases": ["O ___ mia e o ____ late.", "Frase sem lacuna", "Um __ curto não conta."],
		"banco": ["gato", {"id": "w2", "texto": "cão"}, "", "gato"]
	}`))
	require.NoError(t, err)

	m := ex.(*models.WordBankFillModel)
	assert.Equal(t, []string{"O ___ mia e o ____ late."}, m.Sentences)
	assert.Equal(t, []models.Blank{{ID: "lacuna-1"}, {ID: "lacuna-2"}}, m.Blanks)
	require.Len(t, m.BankTokens, 3)
	assert.Equal(t, models.BankToken{ID: "palavra-1", Text: "gato"}, m.BankTokens[0])
	assert.Equal(t, models.BankToken{ID: "w2", Text: "cão"}, m.BankTokens[1])
	assert.Equal(t, models.BankToken{ID: "palavra-4", Text: "gato"}, m.BankTokens[2])
}

func TestNormalize_WordBankAuthoredBlankIDs(t *testing.T) {
	ex, err := Normalize(models.FillBlankWordBank, json.RawMessage(`{
		"frases": ["O ___ mia."],
		"lacunas": [{"id": "L1"}],
		"banco": ["gato"]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "L1", ex.(*models.WordBankFillModel).Blanks[0].ID)
}

func TestNormalize_Crossword(t *testing.T) {
	ex, err := Normalize(models.Table, json.RawMessage(`{
		"variante": "cruzadinha",
		"mascara": [[1, 1, 1], [0, 0, true]],
		"fixas": [{"linha": 0, "coluna": 0, "letra": "S"}, {"linha": 1, "coluna": 0, "letra": "X"}],
		"dicas": [
			{"texto": "Astro rei", "linha": 0, "coluna": 0, "direcao": "horizontal"},
			{"texto": "Descendo", "direcao": "v"}
		]
	}`))
	require.NoError(t, err)

	m := ex.(*models.CrosswordModel)
	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, 3, m.Cols)
	assert.Equal(t, [][]bool{{true, true, true}, {false, false, true}}, m.ActivationMask)
	assert.Equal(t, []models.FixedCell{{Row: 0, Col: 0, Letter: "S"}}, m.FixedCells)
	require.Len(t, m.Clues, 2)
	assert.Equal(t, &models.Position{Row: 0, Col: 0}, m.Clues[0].Anchor)
	assert.Nil(t, m.Clues[1].Anchor)
	require.NotNil(t, m.Clues[1].Direction)
	assert.Equal(t, models.Vertical, *m.Clues[1].Direction)
}

func TestNormalize_MathTable(t *testing.T) {
	ex, err := Normalize(models.Table, json.RawMessage(`{
		"celulas": [[1, "+", 2], [null, "=", 3]]
	}`))
	require.NoError(t, err)

	m, ok := ex.(*models.GridTableModel)
	require.True(t, ok)
	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, "1", *m.Cells[0][0])
	assert.True(t, m.Editable(models.Position{Row: 1, Col: 0}))
	assert.False(t, m.Editable(models.Position{Row: 0, Col: 1}))
}

func TestNormalize_ColorRegions(t *testing.T) {
	ex, err := Normalize(models.ColorRegions, json.RawMessage(`{
		"regioes": [{"id": "norte", "correta": 1}, {"id": "sul", "correta": false}]
	}`))
	require.NoError(t, err)

	m := ex.(*models.ColorRegionsModel)
	assert.Equal(t, []models.Region{{ID: "norte", IsCorrect: true}, {ID: "sul"}}, m.Regions)
}

func TestNormalize_MalformedNeverPanics(t *testing.T) {
	payloads := []string{
		``,
		`null`,
		`[]`,
		`"texto"`,
		`42`,
		`{`,
		`{"alternativas": "A"}`,
		`{"alternativas": [{"texto": "só uma"}]}`,
		`{"frases": 3}`,
		`{"frases": ["sem lacuna"], "banco": ["x"]}`,
		`{"frases": ["com ___"], "banco": []}`,
		`{"mascara": [[1, 1]], "linhas": "dois"}`,
		`{"variante": "pizza"}`,
		`{"mascara": []}`,
		`{"celulas": [[]]}`,
		`{"regioes": [{"id": "a"}, {"id": "a"}]}`,
		`{"colunaA": [{}], "colunaB": [{"texto": "x"}]}`,
		`{"itens": []}`,
	}

	for _, typ := range append(models.ExerciseTypes, "desconhecido") {
		for _, p := range payloads {
			assert.NotPanics(t, func() {
				ex, err := Normalize(typ, json.RawMessage(p))
				if err != nil {
					assert.Nil(t, ex)
					assert.True(t, IsUnavailable(err), "type %s payload %q: %v", typ, p, err)
					var ue *UnavailableError
					assert.True(t, errors.As(err, &ue))
					assert.Equal(t, typ, ue.Type)
				} else {
					assert.NotNil(t, ex)
				}
			})
		}
	}
}

func TestNormalize_SpecificFailures(t *testing.T) {
	tests := []struct {
		name string
		typ  models.ExerciseType
		raw  string
	}{
		{"choice with one alternative", models.MultipleChoice, `{"alternativas": [{"texto": "a"}]}`},
		{"word bank without gaps", models.FillBlankWordBank, `{"frases": ["nada"], "banco": ["x"]}`},
		{"empty word bank", models.FillBlankWordBank, `{"frases": ["o ___"], "banco": []}`},
		{"unknown type", models.ExerciseType("desenho"), `{}`},
		{"table without variant data", models.Table, `{}`},
		{"invalid json", models.Essay, `{"enunciado":`},
		{"crossword too tall", models.Table, `{"variante": "cruzadinha", "linhas": 20000, "colunas": 2, "mascara": [[1, 1]]}`},
		{"crossword too wide", models.Table, `{"variante": "cruzadinha", "linhas": 1, "colunas": 51, "mascara": [[1, 1]]}`},
		{"math table too large", models.Table, `{"variante": "matematica", "linhas": 20000, "colunas": 20000, "celulas": [[1, null]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.typ, json.RawMessage(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedContent)
		})
	}
}

func TestNormalize_GridAtMaxSide(t *testing.T) {
	ex, err := Normalize(models.Table, json.RawMessage(`{"variante": "cruzadinha", "linhas": 50, "colunas": 50, "mascara": [[1, 1]]}`))
	require.NoError(t, err)

	m := ex.(*models.CrosswordModel)
	assert.Equal(t, models.MaxGridSide, m.Rows)
	assert.Len(t, m.ActivationMask[models.MaxGridSide-1], models.MaxGridSide)
}
