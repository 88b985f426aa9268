package normalizer

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Authored content is loosely typed: flags come as 0/1, true/false or
// strings, and ids may be numbers. These helpers accept all of them.

type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(s) {
	case "1", "true", "t", "x", "s", "sim":
		*b = true
	default:
		*b = false
	}
	return nil
}

type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*s = flexString(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*s = flexString(strconv.FormatBool(b))
		return nil
	}
	*s = flexString(string(data))
	return nil
}

func (s flexString) String() string {
	return strings.TrimSpace(string(s))
}

// flexCell is a table cell: null means "to be filled by the student".
type flexCell struct {
	value *string
}

func (c *flexCell) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		c.value = nil
		return nil
	}
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	v := string(s)
	c.value = &v
	return nil
}

// flexToken accepts either "palavra" or {"id": ..., "texto": ...}.
type flexToken struct {
	ID   flexString `json:"id"`
	Text flexString `json:"texto"`
}

func (t *flexToken) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		type plain flexToken
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*t = flexToken(p)
		return nil
	}
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	t.ID = ""
	t.Text = s
	return nil
}

type rawAlternative struct {
	ID     flexString `json:"id"`
	Letter flexString `json:"letra"`
	Text   flexString `json:"texto"`
	Image  flexString `json:"imagem"`
}

type rawChoice struct {
	Alternatives []rawAlternative `json:"alternativas"`
}

type rawText struct {
	Prompt flexString `json:"enunciado"`
}

type rawQuickBlockItem struct {
	ID   flexString `json:"id"`
	Text flexString `json:"texto"`
}

type rawQuickBlock struct {
	Mode  flexString          `json:"modo"`
	Items []rawQuickBlockItem `json:"itens"`
}

type rawColumnItem struct {
	Text  flexString `json:"texto"`
	Image flexString `json:"imagem"`
}

type rawMatchColumns struct {
	Left  []rawColumnItem `json:"colunaA"`
	Right []rawColumnItem `json:"colunaB"`
}

type rawTwoOptionSentence struct {
	ID         flexString   `json:"id"`
	Text       flexString   `json:"texto"`
	TextBefore flexString   `json:"textoAntes"`
	TextAfter  flexString   `json:"textoDepois"`
	Options    []flexString `json:"opcoes"`
}

type rawTwoOption struct {
	Sentences []rawTwoOptionSentence `json:"frases"`
}

type rawBlank struct {
	ID flexString `json:"id"`
}

type rawWordBank struct {
	Sentences []flexString `json:"frases"`
	Blanks    []rawBlank   `json:"lacunas"`
	Bank      []flexToken  `json:"banco"`
}

type rawFixedCell struct {
	Row    *int       `json:"linha"`
	Col    *int       `json:"coluna"`
	Letter flexString `json:"letra"`
}

type rawClue struct {
	ID        flexString `json:"id"`
	Text      flexString `json:"texto"`
	Row       *int       `json:"linha"`
	Col       *int       `json:"coluna"`
	Direction flexString `json:"direcao"`
}

type rawTable struct {
	Variant flexString     `json:"variante"`
	Rows    int            `json:"linhas"`
	Cols    int            `json:"colunas"`
	Mask    [][]flexBool   `json:"mascara"`
	Fixed   []rawFixedCell `json:"fixas"`
	Clues   []rawClue      `json:"dicas"`
	Cells   [][]flexCell   `json:"celulas"`
}

type rawRegion struct {
	ID      flexString `json:"id"`
	Correct flexBool   `json:"correta"`
}

type rawColorRegions struct {
	Regions []rawRegion `json:"regioes"`
}
