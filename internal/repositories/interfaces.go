package repositories

import (
	"errors"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// ===== SHARED FILTER STRUCTS =====

type SnapshotFilters struct {
	ExerciseType *models.ExerciseType `json:"exercise_type"`
	Respondido   *bool                `json:"respondido"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}
