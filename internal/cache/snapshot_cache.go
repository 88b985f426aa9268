package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
	"github.com/SAP-F-2025/exercise-engine/internal/repositories"
)

const snapshotKeyPrefix = "exercise:snapshot:"

// SnapshotCache fronts a SnapshotRepository with a read-through, write-through
// cache. Cache failures are logged and never fail the call.
type SnapshotCache struct {
	repo   repositories.SnapshotRepository
	cache  CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewSnapshotCache(repo repositories.SnapshotRepository, cache CacheService, ttl time.Duration, logger *slog.Logger) *SnapshotCache {
	return &SnapshotCache{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

func snapshotKey(stateKey string) string {
	return snapshotKeyPrefix + stateKey
}

func (c *SnapshotCache) Get(ctx context.Context, stateKey string) (*models.InstanceSnapshot, error) {
	var cached models.InstanceSnapshot
	err := c.cache.Get(ctx, snapshotKey(stateKey), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("snapshot cache read failed", "state_key", stateKey, "error", err)
	}

	snapshot, err := c.repo.Get(ctx, stateKey)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, snapshotKey(stateKey), snapshot, c.ttl); err != nil {
		c.logger.Warn("snapshot cache fill failed", "state_key", stateKey, "error", err)
	}
	return snapshot, nil
}

func (c *SnapshotCache) Save(ctx context.Context, snapshot *models.InstanceSnapshot) error {
	if err := c.repo.Save(ctx, snapshot); err != nil {
		return err
	}
	if err := c.cache.Set(ctx, snapshotKey(snapshot.StateKey), snapshot, c.ttl); err != nil {
		// drop the stale entry so the next read goes to the repository
		_ = c.cache.Delete(ctx, snapshotKey(snapshot.StateKey))
		c.logger.Warn("snapshot cache write failed", "state_key", snapshot.StateKey, "error", err)
	}
	return nil
}

func (c *SnapshotCache) Delete(ctx context.Context, stateKey string) error {
	if err := c.repo.Delete(ctx, stateKey); err != nil {
		return err
	}
	if err := c.cache.Delete(ctx, snapshotKey(stateKey)); err != nil {
		c.logger.Warn("snapshot cache evict failed", "state_key", stateKey, "error", err)
	}
	return nil
}

func (c *SnapshotCache) ListByQuestion(ctx context.Context, questionID string, filters repositories.SnapshotFilters) ([]*models.InstanceSnapshot, int64, error) {
	return c.repo.ListByQuestion(ctx, questionID, filters)
}

// Flush evicts every cached snapshot
func (c *SnapshotCache) Flush(ctx context.Context) error {
	return c.cache.DeletePattern(ctx, snapshotKeyPrefix+"*")
}

var _ repositories.SnapshotRepository = (*SnapshotCache)(nil)
