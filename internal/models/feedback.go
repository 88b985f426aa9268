package models

type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
	VerdictUnknown   Verdict = "unknown"
)

func VerdictOf(ok bool) Verdict {
	if ok {
		return VerdictCorrect
	}
	return VerdictIncorrect
}

// Feedback is the decoded Correction Service result for one instance.
// Items is keyed by the item key of the exercise type: alternative id,
// blank id, item index, cell key ("row-col") or region id.
type Feedback struct {
	Type          ExerciseType       `json:"type"`
	Correct       bool               `json:"correct"`
	Items         map[string]Verdict `json:"items,omitempty"`
	Expected      map[string]string  `json:"expected,omitempty"`
	Score         *float64           `json:"score,omitempty"`
	Justification string             `json:"justification,omitempty"`
	Suggestion    string             `json:"suggestion,omitempty"`
}

// Verdict returns the verdict for an item key, VerdictUnknown when absent.
func (f *Feedback) Verdict(key string) Verdict {
	if f == nil {
		return VerdictUnknown
	}
	if v, ok := f.Items[key]; ok {
		return v
	}
	return VerdictUnknown
}

func (f *Feedback) Overall() Verdict {
	if f == nil {
		return VerdictUnknown
	}
	return VerdictOf(f.Correct)
}
