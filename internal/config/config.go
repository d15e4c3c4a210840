package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort           = 8080
	defaultFeedInterval   = 6 * time.Hour
	defaultBatchBudget    = 5 * time.Minute
	defaultRequestTimeout = 10 * time.Second
	defaultForecastDays   = 7
	defaultBackcastDays   = 3
	defaultHistoricalDays = 7
	defaultTrendDays      = 7
)

// Config holds runtime configuration shared by the API and watcher services.
type Config struct {
	DatabaseURL string
	FeedBaseURL string

	Port        int
	BearerToken string

	FeedInterval   time.Duration
	BatchBudget    time.Duration
	RequestTimeout time.Duration

	ForecastDays   int
	BackcastDays   int
	HistoricalDays int
	TrendDays      int

	DryRun bool
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:           defaultPort,
		FeedInterval:   defaultFeedInterval,
		BatchBudget:    defaultBatchBudget,
		RequestTimeout: defaultRequestTimeout,
		ForecastDays:   defaultForecastDays,
		BackcastDays:   defaultBackcastDays,
		HistoricalDays: defaultHistoricalDays,
		TrendDays:      defaultTrendDays,
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	cfg.FeedBaseURL = strings.TrimSpace(os.Getenv("FEED_BASE_URL"))
	cfg.BearerToken = os.Getenv("API_BEARER_TOKEN")

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	}

	var err error
	if cfg.FeedInterval, err = durationEnv("FEED_INTERVAL", cfg.FeedInterval); err != nil {
		return cfg, err
	}
	if cfg.BatchBudget, err = durationEnv("BATCH_BUDGET", cfg.BatchBudget); err != nil {
		return cfg, err
	}
	if cfg.RequestTimeout, err = durationEnv("FEED_REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return cfg, err
	}

	if cfg.ForecastDays, err = intEnv("FORECAST_DAYS", cfg.ForecastDays); err != nil {
		return cfg, err
	}
	if cfg.BackcastDays, err = intEnv("BACKCAST_DAYS", cfg.BackcastDays); err != nil {
		return cfg, err
	}
	if cfg.HistoricalDays, err = intEnv("HISTORICAL_DAYS", cfg.HistoricalDays); err != nil {
		return cfg, err
	}
	if cfg.TrendDays, err = intEnv("TREND_DAYS", cfg.TrendDays); err != nil {
		return cfg, err
	}

	dryRun := strings.TrimSpace(os.Getenv("DRY_RUN"))
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

func intEnv(name string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def, fmt.Errorf("invalid %s: %s", name, v)
	}
	return n, nil
}
