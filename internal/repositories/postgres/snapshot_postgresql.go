package postgres

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
	"github.com/SAP-F-2025/exercise-engine/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SnapshotPostgreSQL struct {
	db *gorm.DB
}

func NewSnapshotPostgreSQL(db *gorm.DB) repositories.SnapshotRepository {
	return &SnapshotPostgreSQL{db: db}
}

func (s SnapshotPostgreSQL) Get(ctx context.Context, stateKey string) (*models.InstanceSnapshot, error) {
	var snapshot models.InstanceSnapshot
	if err := s.db.WithContext(ctx).Where("state_key = ?", stateKey).First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrSnapshotNotFound
		}
		return nil, err
	}
	return &snapshot, nil
}

func (s SnapshotPostgreSQL) Save(ctx context.Context, snapshot *models.InstanceSnapshot) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "state_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"exercise_type", "question_id", "respondido", "answer", "updated_at"}),
		}).
		Create(snapshot).Error
}

func (s SnapshotPostgreSQL) Delete(ctx context.Context, stateKey string) error {
	return s.db.WithContext(ctx).Where("state_key = ?", stateKey).Delete(&models.InstanceSnapshot{}).Error
}

func (s SnapshotPostgreSQL) ListByQuestion(ctx context.Context, questionID string, filters repositories.SnapshotFilters) ([]*models.InstanceSnapshot, int64, error) {
	var snapshots []*models.InstanceSnapshot
	var total int64

	query := s.db.WithContext(ctx).Model(&models.InstanceSnapshot{}).Where("question_id = ?", questionID)
	if filters.ExerciseType != nil {
		query = query.Where("exercise_type = ?", *filters.ExerciseType)
	}
	if filters.Respondido != nil {
		query = query.Where("respondido = ?", *filters.Respondido)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("updated_at DESC, state_key").Find(&snapshots).Error; err != nil {
		return nil, 0, err
	}

	return snapshots, total, nil
}
