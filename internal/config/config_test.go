package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("BATCH_LIMIT", "")
	t.Setenv("CHROME_CDP_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9222", cfg.Browser.CDPURL)
	assert.Equal(t, 80, cfg.Jobs.BatchLimit)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BATCH_LIMIT", "10")
	t.Setenv("BATCH_COOLDOWN", "90")
	t.Setenv("CHAT_RESPONSE_TIMEOUT", "2m")
	t.Setenv("WATCH_MODE", "yes")
	t.Setenv("DB_HOST", "db")
	t.Setenv("APP_HOST", "0.0.0.0")
	t.Setenv("APP_PORT", "8080")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Jobs.BatchLimit)
	assert.Equal(t, 90*time.Second, cfg.Jobs.Cooldown)
	assert.Equal(t, 2*time.Minute, cfg.Chat.ResponseTimeout)
	assert.True(t, cfg.Jobs.Watch)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
}

func TestEnvDurationInvalid(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, time.Second, envDuration("SOME_DURATION", time.Second))
}
