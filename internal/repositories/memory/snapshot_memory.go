// Package memory holds in-process repository implementations used when no
// database is configured, and in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
	"github.com/SAP-F-2025/exercise-engine/internal/repositories"
)

type SnapshotMemory struct {
	mu        sync.RWMutex
	snapshots map[string]models.InstanceSnapshot
}

func NewSnapshotMemory() *SnapshotMemory {
	return &SnapshotMemory{snapshots: make(map[string]models.InstanceSnapshot)}
}

func (m *SnapshotMemory) Get(ctx context.Context, stateKey string) (*models.InstanceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.snapshots[stateKey]
	if !ok {
		return nil, repositories.ErrSnapshotNotFound
	}
	s.Answer = append([]byte(nil), s.Answer...)
	return &s, nil
}

func (m *SnapshotMemory) Save(ctx context.Context, snapshot *models.InstanceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	s := *snapshot
	s.Answer = append([]byte(nil), snapshot.Answer...)
	if prev, ok := m.snapshots[s.StateKey]; ok {
		s.CreatedAt = prev.CreatedAt
	} else if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.snapshots[s.StateKey] = s
	return nil
}

func (m *SnapshotMemory) Delete(ctx context.Context, stateKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, stateKey)
	return nil
}

func (m *SnapshotMemory) ListByQuestion(ctx context.Context, questionID string, filters repositories.SnapshotFilters) ([]*models.InstanceSnapshot, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*models.InstanceSnapshot
	for _, s := range m.snapshots {
		if s.QuestionID != questionID {
			continue
		}
		if filters.ExerciseType != nil && s.ExerciseType != *filters.ExerciseType {
			continue
		}
		if filters.Respondido != nil && s.Respondido != *filters.Respondido {
			continue
		}
		s := s
		matched = append(matched, &s)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].StateKey < matched[j].StateKey
	})

	total := int64(len(matched))
	if filters.Offset > 0 {
		if filters.Offset >= len(matched) {
			return nil, total, nil
		}
		matched = matched[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(matched) {
		matched = matched[:filters.Limit]
	}
	return matched, total, nil
}

var _ repositories.SnapshotRepository = (*SnapshotMemory)(nil)
