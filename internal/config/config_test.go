package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 24, cfg.StaleThresholdHours)
	assert.Equal(t, "0 9 * * *", cfg.StaleSweepCron)
	assert.Equal(t, 3, cfg.NotifyMaxAttempts)
	assert.Equal(t, time.Second, cfg.NotifyRetryBase)
	assert.Equal(t, 5*time.Second, cfg.NotifyAttemptTimeout)
	assert.Equal(t, time.Hour, cfg.NotifyRetention)
	assert.Equal(t, 1000, cfg.ExportMaxPageSize)
	assert.Equal(t, "log", cfg.MailTransport)
	assert.False(t, cfg.IsProd())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STALE_THRESHOLD_HOURS", "48")
	t.Setenv("NOTIFY_RETRY_BASE", "250ms")
	t.Setenv("MAIL_TRANSPORT", "SMTP")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 48, cfg.StaleThresholdHours)
	assert.Equal(t, 250*time.Millisecond, cfg.NotifyRetryBase)
	assert.Equal(t, "smtp", cfg.MailTransport)
}

func TestValidateConfig(t *testing.T) {
	base := func() *App {
		return &App{
			AppEnv:               "dev",
			JWTSecret:            defaultJWTSecret,
			InternalToken:        defaultInternalToken,
			MailTransport:        "log",
			OpsEmail:             "ops@example.com",
			StaleThresholdHours:  24,
			NotifyMaxAttempts:    3,
			NotifyRetryBase:      time.Second,
			NotifyAttemptTimeout: time.Second,
			NotifyRetention:      time.Hour,
			ExportMaxPageSize:    1000,
		}
	}

	assert.NoError(t, validateConfig(base()))

	cfg := base()
	cfg.MailTransport = "pigeon"
	assert.Error(t, validateConfig(cfg))

	cfg = base()
	cfg.NotifyMaxAttempts = 0
	assert.Error(t, validateConfig(cfg))

	cfg = base()
	cfg.AppEnv = "production"
	assert.Error(t, validateConfig(cfg))

	cfg.JWTSecret = "real-secret"
	cfg.InternalToken = "real-token"
	assert.NoError(t, validateConfig(cfg))
}
