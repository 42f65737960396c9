package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/fusion_test")
	t.Setenv("PLATFORM_BASE_URL", "https://tenant.api.example.com")
	t.Setenv("PLATFORM_CLIENT_ID", "client-id")
	t.Setenv("PLATFORM_CLIENT_SECRET", "client-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultServerHost, cfg.Server.Host)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultLogLevel, cfg.Logger.Level)
	assert.Equal(t, DefaultMigrationsPath, cfg.Database.MigrationsPath)
	assert.Equal(t, DefaultRateLimit, cfg.Platform.RateLimit)
	assert.Equal(t, DefaultMaxRetries, cfg.Platform.MaxRetries)
	assert.Equal(t, DefaultPlatformTimeout, cfg.Platform.Timeout)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, DefaultScheduleSpec, cfg.Scheduler.Spec)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APP_ENV", "production")
	t.Setenv("PLATFORM_RATE_LIMIT", "2.5")
	t.Setenv("PLATFORM_TIMEOUT", "90s")
	t.Setenv("SCHEDULER_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 2.5, cfg.Platform.RateLimit)
	assert.Equal(t, 90*time.Second, cfg.Platform.Timeout)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.True(t, cfg.IsProduction())
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PLATFORM_BASE_URL", "")
	t.Setenv("PLATFORM_CLIENT_ID", "")
	t.Setenv("PLATFORM_CLIENT_SECRET", "")

	_, err := Load()
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.Contains(t, fields, "DATABASE_URL")
	assert.Contains(t, fields, "PLATFORM_BASE_URL")
	assert.Contains(t, fields, "PLATFORM_CLIENT_ID")
	assert.Contains(t, fields, "PLATFORM_CLIENT_SECRET")
}

func TestValidateRejectsBadValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOG_LEVEL", "loud")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestInvalidNumericFallsBackToDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}
