package answer

import (
	"errors"

	apperrors "github.com/SAP-F-2025/exercise-engine/internal/errors"
)

var (
	ErrAnswered           = errors.New("exercise already answered")
	ErrUnsupported        = errors.New("operation not supported by exercise type")
	ErrOutOfRange         = errors.New("index out of range")
	ErrInactiveCell       = errors.New("cell is not active")
	ErrFixedCell          = errors.New("cell is fixed by the exercise")
	ErrUnknownAlternative = errors.New("unknown alternative")
	ErrUnknownSlot        = errors.New("unknown slot")
	ErrUnknownToken       = errors.New("unknown token")
	ErrTokenNotInBank     = errors.New("token is not in the word bank")
	ErrEmptySlot          = errors.New("slot is empty")
	ErrNoEmptySlot        = errors.New("no empty slot available")
)

// Validation rules, one per exercise type that blocks submission.
const (
	RuleExactlyOneAlternative = "exactly_one_alternative"
	RuleNonEmptyText          = "non_empty_text"
	RuleAllItemsAnswered      = "all_items_answered"
	RuleAllMatchesNumeric     = "all_matches_numeric"
	RuleAtLeastOneSelected    = "at_least_one_selected"
	RuleAllBlanksChosen       = "all_blanks_chosen"
	RuleAllBlanksFilled       = "all_blanks_filled"
)

func validationError(field, rule, message string, value any) error {
	return apperrors.NewValidationErrorWithRule(field, message, rule, value)
}
