package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/airquality")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, 6*time.Hour, cfg.FeedInterval)
	assert.Equal(t, 5*time.Minute, cfg.BatchBudget)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 7, cfg.ForecastDays)
	assert.Equal(t, 3, cfg.BackcastDays)
	assert.Equal(t, 7, cfg.TrendDays)
	assert.Empty(t, cfg.FeedBaseURL)
	assert.False(t, cfg.DryRun)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadCustomEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/airquality")
	t.Setenv("PORT", "9090")
	t.Setenv("FEED_INTERVAL", "1h")
	t.Setenv("BATCH_BUDGET", "30s")
	t.Setenv("FORECAST_DAYS", "5")
	t.Setenv("DRY_RUN", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, time.Hour, cfg.FeedInterval)
	assert.Equal(t, 30*time.Second, cfg.BatchBudget)
	assert.Equal(t, 5, cfg.ForecastDays)
	assert.True(t, cfg.DryRun)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/airquality")

	t.Setenv("PORT", "not-a-port")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("PORT", "8080")
	t.Setenv("FEED_INTERVAL", "soon")
	_, err = Load()
	require.Error(t, err)
}
