package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cointrack/internal/alerts"
	"cointrack/internal/database"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port string

	DatabaseDriver string
	DatabaseURL    string

	LogLevel  string
	LogFormat string

	PriceUpdateInterval time.Duration
	PriceCacheTTL       time.Duration

	CoinGeckoBaseURL string
	CoinGeckoAPIKey  string
	CoinGeckoRPS     float64

	NotificationsEnabled bool
	NotifyWebhookURL     string
	AlertMode            alerts.Mode
}

// Load reads configuration from the environment, after applying a .env
// file if one exists. Malformed optional values fall back to defaults.
func Load(log *logrus.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("loading .env failed: %v", err)
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		DatabaseDriver:       strings.ToLower(getEnv("DATABASE_DRIVER", database.DriverSQLite)),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
		PriceUpdateInterval:  time.Duration(getEnvAsInt(log, "PRICE_UPDATE_INTERVAL", 60)) * time.Second,
		PriceCacheTTL:        getEnvAsDuration(log, "PRICE_CACHE_TTL", 30*time.Second),
		CoinGeckoBaseURL:     getEnv("COINGECKO_BASE_URL", ""),
		CoinGeckoAPIKey:      getEnv("COINGECKO_API_KEY", ""),
		CoinGeckoRPS:         getEnvAsFloat(log, "COINGECKO_RPS", 0.5),
		NotificationsEnabled: getEnvAsBool(log, "NOTIFICATIONS_ENABLED", true),
		NotifyWebhookURL:     getEnv("NOTIFY_WEBHOOK_URL", ""),
	}
	if cfg.PriceUpdateInterval <= 0 {
		log.Warnf("PRICE_UPDATE_INTERVAL must be positive, using 60s")
		cfg.PriceUpdateInterval = 60 * time.Second
	}

	switch cfg.DatabaseDriver {
	case database.DriverSQLite:
		cfg.DatabaseURL = getEnv("DATABASE_URL", "./cointrack.db")
	case database.DriverPostgres:
		cfg.DatabaseURL = getEnv("DATABASE_URL", os.Getenv("POSTGRES_URL"))
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL or POSTGRES_URL is required for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	mode, err := alerts.ParseMode(getEnv("ALERT_MODE", string(alerts.ModeEveryPass)))
	if err != nil {
		return nil, err
	}
	cfg.AlertMode = mode
	return cfg, nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("unknown LOG_LEVEL %q, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvAsInt(log *logrus.Logger, key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warnf("invalid integer for %s (%q), using %d", key, raw, fallback)
		return fallback
	}
	return v
}

func getEnvAsFloat(log *logrus.Logger, key string, fallback float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Warnf("invalid number for %s (%q), using %g", key, raw, fallback)
		return fallback
	}
	return v
}

// getEnvAsDuration accepts Go durations ("45s") or bare seconds ("45").
func getEnvAsDuration(log *logrus.Logger, key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Warnf("invalid duration for %s (%q), using %s", key, raw, fallback)
	return fallback
}

func getEnvAsBool(log *logrus.Logger, key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Warnf("invalid boolean for %s (%q), using %t", key, raw, fallback)
		return fallback
	}
	return v
}
