package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exercise-engine/internal/events"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CORRECTION_TIMEOUT", "")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.StorageBackend)
	assert.Equal(t, 10*time.Second, cfg.Correction.Timeout)
	assert.Equal(t, 3, cfg.Correction.MaxAttempts)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("CORRECTION_MAX_ATTEMPTS", "5")
	t.Setenv("SNAPSHOT_CACHE_TTL", "90s")
	t.Setenv("EVENTS_ENABLED", "true")
	t.Setenv("EVENTS_PUBLISHER", "amqp")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5, cfg.Correction.MaxAttempts)
	assert.Equal(t, 90*time.Second, cfg.SnapshotCacheTTL)
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, "amqp", cfg.Events.Publisher)
	assert.True(t, cfg.IsProduction())
}

func TestCreateEventPublisher_FallsBackToMock(t *testing.T) {
	for _, c := range []EventConfig{
		{Enabled: false, Publisher: "kafka"},
		{Enabled: true, Publisher: "mock"},
		{Enabled: true, Publisher: "carrier-pigeon"},
	} {
		p, err := c.CreateEventPublisher(slog.Default())
		require.NoError(t, err)
		assert.IsType(t, &events.MockEventPublisher{}, p)
	}
}

func TestGetKafkaBrokers(t *testing.T) {
	c := EventConfig{KafkaBrokers: "a:9092,b:9092"}
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.GetKafkaBrokers())
}
