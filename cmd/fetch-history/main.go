// Command fetch-history builds a dataset CSV for the built-in stations from
// the Open-Meteo archive.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weatherai/internal/catalog"
	"github.com/i474232898/weatherai/internal/config"
	"github.com/i474232898/weatherai/internal/dataset"
	"github.com/i474232898/weatherai/internal/logging"
	"github.com/i474232898/weatherai/internal/weather"
	"github.com/i474232898/weatherai/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.New(os.Stderr, cfg, "0.1.0", "fetch-history")
	slog.SetDefault(logger)

	days := flag.Int("days", 90, "number of past days to fetch")
	out := flag.String("out", cfg.DatasetPath, "output CSV path")
	concurrency := flag.Int("concurrency", 4, "parallel requests")
	flag.Parse()

	if *days < 1 {
		log.Fatalf("days must be positive, got %d", *days)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stations := catalog.DefaultStations()
	rows, err := fetchAll(ctx, providers.NewOpenMeteoProvider(&http.Client{Timeout: cfg.HTTPTimeout}), stations, *days, *concurrency, time.Now())
	if err != nil {
		logger.Error("fetch failed", "error", err)
		os.Exit(1)
	}

	if err := writeFile(*out, rows, stations); err != nil {
		logger.Error("write failed", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("dataset written", "path", *out, "rows", len(rows), "stations", len(stations))
}

// fetchAll pulls [today-days, yesterday] for every station. The archive lags
// a few days, so trailing days may be missing.
func fetchAll(ctx context.Context, p weather.HistoryProvider, stations []catalog.Station, days, limit int, now time.Time) ([]weather.Observation, error) {
	to := weather.Day(now).AddDate(0, 0, -1)
	from := to.AddDate(0, 0, -(days - 1))

	var (
		mu   sync.Mutex
		rows []weather.Observation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, limit))
	for _, st := range stations {
		g.Go(func() error {
			obs, err := p.FetchHistory(gctx, st, from, to)
			if err != nil {
				return fmt.Errorf("%s: %w", st.Name, err)
			}
			slog.Debug("fetched", "station", st.ID, "rows", len(obs))

			mu.Lock()
			rows = append(rows, obs...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StationID != rows[j].StationID {
			return rows[i].StationID < rows[j].StationID
		}
		return rows[i].Date.Before(rows[j].Date)
	})
	return rows, nil
}

func writeFile(path string, rows []weather.Observation, stations []catalog.Station) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return dataset.WriteCSV(f, rows, stations)
}
