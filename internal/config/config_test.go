package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 5, cfg.LowStockThreshold)
	assert.Equal(t, 7, cfg.ExpiryDaysThreshold)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("LOW_STOCK_THRESHOLD", "3")
	t.Setenv("JWT_EXPIRATION_HOURS", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 3, cfg.LowStockThreshold)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL())
}

func TestLocationFallback(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	loc := cfg.Location()

	_, offset := time.Date(2025, 1, 1, 12, 0, 0, 0, loc).Zone()
	assert.Equal(t, -3*60*60, offset)
}
