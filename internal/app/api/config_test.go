package api

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
)

var configKeys = []string{
	"PORT", "POSTGRES_DSN", "TEMPORAL_ADDRESS", "TEMPORAL_NAMESPACE", "TEMPORAL_DISABLED",
	"REDIS_ADDR", "REDIS_DB", "NOTIFICATION_CHANNEL", "KAFKA_BROKERS", "ACTIVITY_TOPIC", "ENVIRONMENT",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, client.DefaultHostPort, cfg.TemporalAddress)
	assert.Equal(t, client.DefaultNamespace, cfg.TemporalNamespace)
	assert.False(t, cfg.TemporalDisabled)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "orders.notifications", cfg.NotificationChannel)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "orders.activity", cfg.ActivityTopic)
	assert.Equal(t, "local", cfg.Environment)
}

func TestLoadConfig_ReadsEnvironment(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("TEMPORAL_DISABLED", "yes")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.True(t, cfg.TemporalDisabled)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("REDIS_DB", "-1")
	_, err := LoadConfig()
	assert.Error(t, err)

	clearConfigEnv(t)
	t.Setenv("PORT", "http")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	clearConfigEnv(t)
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ACTIVITY_TOPIC=audit.orders\nPORT=7070\n"), 0o600))
	t.Setenv("PORT", "6060")
	// godotenv keeps variables that are present, even when empty.
	require.NoError(t, os.Unsetenv("ACTIVITY_TOPIC"))
	require.NoError(t, LoadDotEnv(path))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "audit.orders", cfg.ActivityTopic)
	assert.Equal(t, ":6060", cfg.Addr())
}
