package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.PollRetryDelay)
	assert.Equal(t, 0, cfg.PollMaxRetries, "poll retries are unbounded unless configured")
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("POLL_MAX_RETRIES", "12")
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 12, cfg.PollMaxRetries)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL, "invalid values fall back to the default")
	assert.True(t, cfg.IsProduction())
}
