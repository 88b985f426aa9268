package models

// Correction Service wire contract. Field names follow the service's
// Portuguese JSON keys.

type ChoiceRequest struct {
	QuestionID string `json:"questionId"`
	Resposta   string `json:"resposta"`
}

type ChoiceResponse struct {
	Acertou bool `json:"acertou"`
}

// TextRequest is used by essay and short_answer.
type TextRequest struct {
	QuestionID    string `json:"questionId"`
	RespostaAluno string `json:"respostaAluno"`
}

type TextResponse struct {
	Acertou       bool     `json:"acertou"`
	Nota          *float64 `json:"nota,omitempty"`
	Justificativa string   `json:"justificativa,omitempty"`
	Sugestao      *string  `json:"sugestao,omitempty"`
}

type QuickBlockRequest struct {
	QuestionID string   `json:"questionId"`
	Respostas  []string `json:"respostas"`
}

type QuickBlockResponse struct {
	Acertou   bool   `json:"acertou"`
	Feedbacks []bool `json:"feedbacks"`
}

type MatchColumnsRequest struct {
	QuestionID     string            `json:"questionId"`
	RespostasAluno map[string]string `json:"respostasAluno"`
}

type MatchColumnsResponse struct {
	Acertou   bool               `json:"acertou"`
	Feedbacks map[string]bool    `json:"feedbacks"`
	Corretas  map[string]float64 `json:"corretas"`
}

type MultiSelectAnswer struct {
	Selecionadas []string `json:"selecionadas"`
}

type MultiSelectRequest struct {
	QuestionID string            `json:"questionId"`
	Resposta   MultiSelectAnswer `json:"resposta"`
}

type MultiSelectResult struct {
	PorItem  map[string]bool `json:"porItem"`
	Corretas []string        `json:"corretas"`
}

type MultiSelectResponse struct {
	Acertou           bool              `json:"acertou"`
	ResultadoCorrecao MultiSelectResult `json:"resultadoCorrecao"`
}

type TwoOptionRequest struct {
	QuestionID string   `json:"questionId"`
	Respostas  []string `json:"respostas"`
}

type TwoOptionResult struct {
	PorLacuna map[string]bool `json:"porLacuna"`
	Itens     []string        `json:"itens"`
}

type TwoOptionResponse struct {
	Acertou           bool            `json:"acertou"`
	ResultadoCorrecao TwoOptionResult `json:"resultadoCorrecao"`
}

type WordBankAnswer struct {
	LacunaID string `json:"lacunaId"`
	Valor    string `json:"valor"`
}

type WordBankRequest struct {
	QuestionID     string           `json:"questionId"`
	RespostasAluno []WordBankAnswer `json:"respostasAluno"`
}

type WordBankResult struct {
	PorLacuna map[string]bool `json:"porLacuna"`
}

type WordBankResponse struct {
	Acertou           bool           `json:"acertou"`
	ResultadoCorrecao WordBankResult `json:"resultadoCorrecao"`
}

type GridAnswer struct {
	Variante TableVariant `json:"variante"`
	Celulas  [][]string   `json:"celulas"`
}

type TableRequest struct {
	QuestionID string     `json:"questionId"`
	Resposta   GridAnswer `json:"resposta"`
}

// CrosswordResult is keyed by cell key ("row-col") and by slot number.
type CrosswordResult struct {
	PorCelula  map[string]bool `json:"porCelula,omitempty"`
	PorPalavra map[string]bool `json:"porPalavra,omitempty"`
}

// TableResponse carries either per-cell feedbacks (math variant) or a
// resultadoCorrecao (crossword variant).
type TableResponse struct {
	Acertou           bool             `json:"acertou"`
	Feedbacks         [][]*bool        `json:"feedbacks,omitempty"`
	ResultadoCorrecao *CrosswordResult `json:"resultadoCorrecao,omitempty"`
}

type ColorRegionsAnswer struct {
	PartesMarcadas []string `json:"partesMarcadas"`
}

type ColorRegionsRequest struct {
	QuestionID string             `json:"questionId"`
	Resposta   ColorRegionsAnswer `json:"resposta"`
}

type ColorRegionsResponse struct {
	Acertou bool `json:"acertou"`
}
