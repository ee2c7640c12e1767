package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 30, cfg.Notifications.RegenerationIntervalMinutes)
	assert.Equal(t, 10, cfg.Notifications.MaxNotifications)
	assert.Equal(t, 24, cfg.Notifications.AutoExpireHours)
	assert.Equal(t, 10*time.Second, cfg.Prices.Timeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9999")
	t.Setenv("NOTIF_MAX", "5")
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Notifications.MaxNotifications)
	assert.Equal(t, "redis.internal:6379", cfg.Storage.RedisAddr)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "cassandra")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_PostgresRequiresURL(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_RejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("NOTIF_REGEN_INTERVAL_MINUTES", "0")
	_, err := Load()
	assert.Error(t, err)
}
