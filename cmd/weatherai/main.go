package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/weatherai/internal/api/http"
	"github.com/i474232898/weatherai/internal/config"
	"github.com/i474232898/weatherai/internal/dataset"
	"github.com/i474232898/weatherai/internal/logging"
	"github.com/i474232898/weatherai/internal/queryparser"
	"github.com/i474232898/weatherai/internal/scheduler"
	"github.com/i474232898/weatherai/internal/store"
	"github.com/i474232898/weatherai/internal/weather"
	"github.com/i474232898/weatherai/internal/weather/providers"
)

const (
	appName = "weatherai"
	version = "0.1.0"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg, version, appName)
	slog.SetDefault(logger)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	seriesStore, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Missing coordinates in the dataset are looked up only when a key is set.
	var geo dataset.Geocoder
	if cfg.GeocoderAPIKey != "" {
		geo = dataset.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	}
	loader := dataset.NewCSVLoader(cfg.DatasetPath, cfg.StationsPath, geo)

	// History providers with resilience (backoff + circuit breaker), cached.
	// Open-Meteo needs no key and goes first.
	history := []weather.HistoryProvider{
		providers.NewCachedHistory(providers.NewOpenMeteoProvider(httpClient), cfg.ProviderCacheTTL),
	}
	if cfg.WeatherAPIKey != "" {
		history = append(history, providers.NewCachedHistory(
			providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey), cfg.ProviderCacheTTL))
	}

	var parser weather.QueryParser = queryparser.NewRegexParser(cfg.DefaultCity)
	if cfg.OpenRouterAPIKey != "" {
		parser = queryparser.NewLLMParser(cfg.OpenRouterAPIKey, cfg.LLMBaseURL, cfg.LLMModel, parser)
	}

	opts := []weather.Option{
		weather.WithHistoryProviders(history...),
		weather.WithQueryParser(parser),
		weather.WithLookbackDays(cfg.LookbackDays),
		weather.WithDefaultDays(cfg.ForecastDays),
		weather.WithMaxForecastDays(cfg.MaxForecastDays),
	}
	if cfg.OpenWeatherAPIKey != "" {
		opts = append(opts, weather.WithCurrentProvider(providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey)))
	}
	if cfg.ForecastSeed != nil {
		opts = append(opts, weather.WithSeed(*cfg.ForecastSeed))
	}

	// Core service orchestrating catalog, store and providers.
	service := weather.NewService(loader, seriesStore, opts...)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 2*time.Minute)
	err = service.Reload(loadCtx)
	cancelLoad()
	if err != nil {
		// Requests get 503 until a scheduled or manual reload succeeds.
		logger.Error("initial dataset load failed", "error", err)
	} else {
		logger.Info("dataset loaded", "stations", len(service.Locations()))
	}

	// Scheduler that periodically reloads the dataset.
	sched := scheduler.New(service, cfg.ReloadInterval, cfg.ReloadCron)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := httpapi.NewApp(service, httpapi.Options{
		AppName:         appName,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ForecastDays:    cfg.ForecastDays,
		MaxForecastDays: cfg.MaxForecastDays,
	})

	// Start server with graceful shutdown
	go func() {
		logger.Info("listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
}

// openStore builds the configured series store and its cleanup.
func openStore(cfg *config.AppConfig) (weather.SeriesStore, func(), error) {
	if cfg.StoreBackend != config.StoreSQLite {
		return store.NewMemoryStore(cfg.StoreMaxHistory), func() {}, nil
	}

	db, err := store.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			slog.Error("close sqlite", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s, err := store.NewSQLiteStore(ctx, db, cfg.StoreMaxHistory)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return s, closeDB, nil
}
