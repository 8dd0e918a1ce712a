package config

import (
	"os"
	"testing"
	"time"

	"cointrack/internal/alerts"
	"cointrack/internal/database"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "DATABASE_DRIVER", "DATABASE_URL", "POSTGRES_URL", "LOG_LEVEL", "LOG_FORMAT",
	"PRICE_UPDATE_INTERVAL", "PRICE_CACHE_TTL", "COINGECKO_BASE_URL", "COINGECKO_API_KEY",
	"COINGECKO_RPS", "NOTIFICATIONS_ENABLED", "NOTIFY_WEBHOOK_URL", "ALERT_MODE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(logrus.New())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, database.DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "./cointrack.db", cfg.DatabaseURL)
	assert.Equal(t, 60*time.Second, cfg.PriceUpdateInterval)
	assert.Equal(t, 30*time.Second, cfg.PriceCacheTTL)
	assert.Equal(t, 0.5, cfg.CoinGeckoRPS)
	assert.True(t, cfg.NotificationsEnabled)
	assert.Equal(t, alerts.ModeEveryPass, cfg.AlertMode)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("POSTGRES_URL", "postgres://u:p@localhost:5432/coins?sslmode=disable")
	t.Setenv("PRICE_UPDATE_INTERVAL", "15")
	t.Setenv("PRICE_CACHE_TTL", "2m")
	t.Setenv("NOTIFICATIONS_ENABLED", "false")
	t.Setenv("ALERT_MODE", "once")

	cfg, err := Load(logrus.New())
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost:5432/coins?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, 15*time.Second, cfg.PriceUpdateInterval)
	assert.Equal(t, 2*time.Minute, cfg.PriceCacheTTL)
	assert.False(t, cfg.NotificationsEnabled)
	assert.Equal(t, alerts.ModeOncePerCrossing, cfg.AlertMode)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRICE_UPDATE_INTERVAL", "soon")
	t.Setenv("PRICE_CACHE_TTL", "-5")
	t.Setenv("NOTIFICATIONS_ENABLED", "maybe")

	cfg, err := Load(logrus.New())
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.PriceUpdateInterval)
	assert.Equal(t, 30*time.Second, cfg.PriceCacheTTL)
	assert.True(t, cfg.NotificationsEnabled)
}

func TestLoad_Rejects(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DRIVER", "mysql")
	_, err := Load(logrus.New())
	assert.Error(t, err)

	t.Setenv("DATABASE_DRIVER", "postgres")
	_, err = Load(logrus.New())
	assert.Error(t, err)

	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("ALERT_MODE", "sometimes")
	_, err = Load(logrus.New())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	log := (&Config{LogLevel: "debug", LogFormat: "json"}).NewLogger()
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = (&Config{LogLevel: "loud"}).NewLogger()
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
