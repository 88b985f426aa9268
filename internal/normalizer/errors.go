package normalizer

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

// ErrMalformedContent is matched by every error returned from Normalize.
var ErrMalformedContent = errors.New("exercise content unavailable")

// UnavailableError marks content that cannot be turned into a model. Hosts
// render a "content unavailable" state for it instead of the exercise.
type UnavailableError struct {
	Type   models.ExerciseType `json:"type"`
	Reason string              `json:"reason"`
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s content unavailable: %s", e.Type, e.Reason)
}

func (e *UnavailableError) Unwrap() error {
	return ErrMalformedContent
}

func unavailable(t models.ExerciseType, format string, args ...any) error {
	return &UnavailableError{Type: t, Reason: fmt.Sprintf(format, args...)}
}

// IsUnavailable reports whether err came from malformed content.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrMalformedContent)
}
