package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

type AppConfig struct {
	AppEnv   string
	LogLevel slog.Level

	Port        string
	HTTPTimeout time.Duration

	DatasetPath  string
	StationsPath string

	StoreBackend    string
	SQLitePath      string
	StoreMaxHistory int // rows kept per station (0 = unlimited)

	// Dataset reload: a fixed interval or a cron expression, at most one.
	ReloadInterval time.Duration
	ReloadCron     string

	DefaultCity     string
	ForecastDays    int
	MaxForecastDays int
	LookbackDays    int
	// ForecastSeed makes synthesis reproducible when set.
	ForecastSeed *uint64

	ProviderCacheTTL  time.Duration
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GeocoderAPIKey    string

	OpenRouterAPIKey string
	LLMBaseURL       string
	LLMModel         string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}
	if cfg.LogLevel, err = parseLogLevel(getenvDefault("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.DatasetPath = getenvDefault("DATASET_PATH", "data/weather/capital_cities_weather.csv")
	cfg.StationsPath = os.Getenv("STATIONS_PATH")

	cfg.StoreBackend = strings.ToLower(getenvDefault("STORE_BACKEND", StoreMemory))
	switch cfg.StoreBackend {
	case StoreMemory, StoreSQLite:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q (allowed: memory, sqlite)", cfg.StoreBackend)
	}
	cfg.SQLitePath = getenvDefault("SQLITE_PATH", "data/weather.db")
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 0); err != nil {
		return nil, err
	}

	if cfg.ReloadInterval, err = getenvDuration("RELOAD_INTERVAL", 0); err != nil {
		return nil, err
	}
	cfg.ReloadCron = strings.TrimSpace(os.Getenv("RELOAD_CRON"))
	if cfg.ReloadCron != "" {
		if _, err := cron.ParseStandard(cfg.ReloadCron); err != nil {
			return nil, fmt.Errorf("invalid RELOAD_CRON: %w", err)
		}
		if cfg.ReloadInterval > 0 {
			return nil, fmt.Errorf("set only one of RELOAD_INTERVAL and RELOAD_CRON")
		}
	}

	cfg.DefaultCity = getenvDefault("DEFAULT_CITY", "London")
	if cfg.ForecastDays, err = getenvInt("FORECAST_DAYS", 7); err != nil {
		return nil, err
	}
	if cfg.MaxForecastDays, err = getenvInt("MAX_FORECAST_DAYS", 30); err != nil {
		return nil, err
	}
	if cfg.ForecastDays < 1 || cfg.ForecastDays > cfg.MaxForecastDays {
		return nil, fmt.Errorf("invalid FORECAST_DAYS %d (allowed: 1..%d)", cfg.ForecastDays, cfg.MaxForecastDays)
	}
	if cfg.LookbackDays, err = getenvInt("FORECAST_LOOKBACK_DAYS", 30); err != nil {
		return nil, err
	}
	if cfg.LookbackDays < 1 {
		return nil, fmt.Errorf("invalid FORECAST_LOOKBACK_DAYS %d", cfg.LookbackDays)
	}
	if v := os.Getenv("FORECAST_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid FORECAST_SEED: %w", err)
		}
		cfg.ForecastSeed = &seed
	}

	if cfg.ProviderCacheTTL, err = getenvDuration("PROVIDER_CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.OpenRouterAPIKey = os.Getenv("OPENROUTER_API_KEY")
	cfg.LLMBaseURL = getenvDefault("LLM_BASE_URL", "https://openrouter.ai/api/v1/")
	cfg.LLMModel = getenvDefault("LLM_MODEL", "google/gemma-3-27b-it:free")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: negative duration %s", key, d)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
