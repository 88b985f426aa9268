package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/exercise-engine/internal/answer"
	"github.com/SAP-F-2025/exercise-engine/internal/correction"
	apperrors "github.com/SAP-F-2025/exercise-engine/internal/errors"
	"github.com/SAP-F-2025/exercise-engine/internal/normalizer"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Instance specific errors
	ErrInstanceNotFound     = errors.New("exercise instance not found")
	ErrInstanceDisposed     = errors.New("exercise instance disposed")
	ErrAlreadyAnswered      = errors.New("exercise instance already answered")
	ErrSubmissionPending    = errors.New("correction request already pending")
	ErrUnsupportedOperation = errors.New("operation not supported by exercise type")
	ErrContentUnavailable   = errors.New("exercise content unavailable")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// BusinessRuleError is an answer operation the exercise rejects, such as
// writing a fixed crossword cell or tapping a token already placed.
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
	Err     error                  `json:"-"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

func (bre *BusinessRuleError) Unwrap() error {
	return bre.Err
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

var answerRules = map[error]string{
	answer.ErrOutOfRange:         "index_in_range",
	answer.ErrInactiveCell:       "active_cell",
	answer.ErrFixedCell:          "writable_cell",
	answer.ErrUnknownAlternative: "known_alternative",
	answer.ErrUnknownSlot:        "known_slot",
	answer.ErrUnknownToken:       "known_token",
	answer.ErrTokenNotInBank:     "token_in_bank",
	answer.ErrEmptySlot:          "slot_filled",
	answer.ErrNoEmptySlot:        "empty_slot_available",
}

// translateAnswerError maps answer package errors onto service errors while
// keeping the original in the chain.
func translateAnswerError(err error, context map[string]interface{}) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, answer.ErrAnswered):
		return fmt.Errorf("%w: %w", ErrAlreadyAnswered, err)
	case errors.Is(err, answer.ErrUnsupported):
		return fmt.Errorf("%w: %w", ErrUnsupportedOperation, err)
	}
	for sentinel, rule := range answerRules {
		if errors.Is(err, sentinel) {
			bre := NewBusinessRuleError(rule, err.Error(), context)
			bre.Err = err
			return bre
		}
	}
	return err
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInstanceNotFound) ||
		errors.Is(err, ErrInstanceDisposed)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsBadRequest reports operations that can never succeed on this instance
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrUnsupportedOperation) ||
		IsBusinessRule(err)
}

// IsConflict checks if error represents a state conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAlreadyAnswered) ||
		errors.Is(err, ErrSubmissionPending)
}

// IsContentUnavailable reports malformed authored content
func IsContentUnavailable(err error) bool {
	return errors.Is(err, ErrContentUnavailable) || normalizer.IsUnavailable(err)
}

// IsRetryable reports Correction Service failures the host may retry
func IsRetryable(err error) bool {
	return correction.IsRetryable(err)
}

func asValidationError(err error, target **ValidationError) bool {
	return errors.As(err, target)
}

func asBusinessRule(err error, target **BusinessRuleError) bool {
	return errors.As(err, target)
}
