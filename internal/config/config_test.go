// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "https://rates.emcont.com/", cfg.Feed.URL)
	assert.Equal(t, time.Second, cfg.Feed.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.Feed.AssetsWaitInterval)
	assert.Equal(t, ":8080", cfg.Gateway.Addr)
	assert.Equal(t, 30, cfg.Gateway.HistoryWindowMinutes)
	assert.Equal(t, 30*time.Minute, cfg.HistoryWindow())
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 6379, cfg.Redis.Port)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("FETCH_INTERVAL", "2s")
	t.Setenv("HISTORY_WINDOW_MINUTES", "10")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("GATEWAY_ADDR", ":9090")

	cfg, err := LoadConfig("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Feed.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.HistoryWindow())
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, ":9090", cfg.Gateway.Addr)
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("DEBUG", "maybe")

	cfg, err := LoadConfig("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.Debug)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("FETCH_INTERVAL", "10ms")

	_, err := LoadConfig("does-not-exist.env")
	assert.Error(t, err)
}
