package repositories

import (
	"context"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

// SnapshotRepository persists answer snapshots keyed by the host state key
type SnapshotRepository interface {
	// Get returns ErrSnapshotNotFound when nothing is stored under key
	Get(ctx context.Context, stateKey string) (*models.InstanceSnapshot, error)
	// Save inserts or replaces the snapshot for its state key
	Save(ctx context.Context, snapshot *models.InstanceSnapshot) error
	Delete(ctx context.Context, stateKey string) error
	// ListByQuestion returns one page, newest first, and the unpaged total
	ListByQuestion(ctx context.Context, questionID string, filters SnapshotFilters) ([]*models.InstanceSnapshot, int64, error)
}
