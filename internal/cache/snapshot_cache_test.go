package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
	"github.com/SAP-F-2025/exercise-engine/internal/repositories"
	"github.com/SAP-F-2025/exercise-engine/internal/repositories/memory"
)

type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	gets    int
	failSet bool
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (m *mapCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("redis down")
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

func (m *mapCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	b, ok := m.data[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(b, dest)
}

func (m *mapCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mapCache) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func TestSnapshotCache_ReadThroughAndWriteThrough(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSnapshotMemory()
	mc := newMapCache()
	c := NewSnapshotCache(repo, mc, time.Minute, slog.Default())

	require.NoError(t, repo.Save(ctx, &models.InstanceSnapshot{StateKey: "k", QuestionID: "q1", ExerciseType: models.Essay}))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "q1", got.QuestionID)
	assert.Contains(t, mc.data, snapshotKey("k"))

	require.NoError(t, c.Save(ctx, &models.InstanceSnapshot{StateKey: "k", QuestionID: "q2", ExerciseType: models.Essay}))
	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "q2", got.QuestionID)

	require.NoError(t, c.Delete(ctx, "k"))
	assert.NotContains(t, mc.data, snapshotKey("k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, repositories.ErrSnapshotNotFound)
}

func TestSnapshotCache_CacheFailureDoesNotFailSave(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSnapshotMemory()
	mc := newMapCache()
	mc.failSet = true
	c := NewSnapshotCache(repo, mc, time.Minute, slog.Default())

	require.NoError(t, c.Save(ctx, &models.InstanceSnapshot{StateKey: "k", QuestionID: "q1"}))
	stored, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "q1", stored.QuestionID)
}

func TestSnapshotCache_Flush(t *testing.T) {
	ctx := context.Background()
	mc := newMapCache()
	c := NewSnapshotCache(memory.NewSnapshotMemory(), mc, time.Minute, slog.Default())

	require.NoError(t, c.Save(ctx, &models.InstanceSnapshot{StateKey: "a"}))
	require.NoError(t, c.Save(ctx, &models.InstanceSnapshot{StateKey: "b"}))
	mc.data["other"] = []byte("1")

	require.NoError(t, c.Flush(ctx))
	assert.Len(t, mc.data, 1)
}
