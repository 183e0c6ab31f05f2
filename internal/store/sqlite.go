package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/weatherai/internal/weather"
)

//go:embed sql/schema.sql
var schemaSQL string

//go:embed sql/upsert-observation.sql
var upsertObservationSQL string

//go:embed sql/get-range.sql
var getRangeSQL string

//go:embed sql/get-latest.sql
var getLatestSQL string

//go:embed sql/trim-station.sql
var trimStationSQL string

// OpenSQLite opens (and creates when needed) the database at path. ":memory:"
// gives a private in-memory database pinned to one connection.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	// SQLite serializes writers anyway; one connection also keeps an in-memory
	// database alive and shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func buildDSN(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}

// SQLiteStore is a SeriesStore backed by a SQLite table keyed by station and day.
type SQLiteStore struct {
	db         *sql.DB
	maxHistory int
}

// NewSQLiteStore creates the schema if needed. maxHistory <= 0 keeps every row.
func NewSQLiteStore(ctx context.Context, db *sql.DB, maxHistory int) (*SQLiteStore, error) {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, maxHistory: maxHistory}, nil
}

// Replace swaps the table content in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, obs []weather.Observation) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("rollback replace", "error", rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM observations`); err != nil {
		return fmt.Errorf("clear observations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertObservationSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	stations := make(map[string]struct{})
	for _, o := range obs {
		_, err = stmt.ExecContext(ctx,
			o.StationID,
			o.Date.UTC().Format(weather.DateLayout),
			o.City,
			o.Temperature,
			nullFloat(o.Humidity),
			nullFloat(o.WindSpeed),
			nullFloat(o.Pressure),
			o.Description,
			o.Icon,
		)
		if err != nil {
			return fmt.Errorf("insert %s %s: %w", o.StationID, o.Date.Format(weather.DateLayout), err)
		}
		stations[o.StationID] = struct{}{}
	}

	if s.maxHistory > 0 {
		for id := range stations {
			if _, err = tx.ExecContext(ctx, trimStationSQL, id, s.maxHistory); err != nil {
				return fmt.Errorf("trim %s: %w", id, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Range returns rows for stationID with from <= date <= to. Dates are whole
// days, so a bound with a time of day only admits the days fully inside it.
func (s *SQLiteStore) Range(ctx context.Context, stationID string, from, to time.Time) ([]weather.Observation, error) {
	lo := weather.Day(from)
	if lo.Before(from) {
		lo = lo.AddDate(0, 0, 1)
	}
	hi := weather.Day(to)
	if hi.Before(lo) {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, getRangeSQL, stationID, lo.Format(weather.DateLayout), hi.Format(weather.DateLayout))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close range rows", "error", err)
		}
	}()
	return scanObservations(rows)
}

// Latest returns the newest n rows for stationID, oldest first.
func (s *SQLiteStore) Latest(ctx context.Context, stationID string, n int) ([]weather.Observation, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, getLatestSQL, stationID, n)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest rows", "error", err)
		}
	}()
	return scanObservations(rows)
}

func scanObservations(rows *sql.Rows) ([]weather.Observation, error) {
	var out []weather.Observation
	for rows.Next() {
		var (
			o                        weather.Observation
			date                     string
			humidity, wind, pressure sql.NullFloat64
		)
		if err := rows.Scan(&o.StationID, &date, &o.City, &o.Temperature, &humidity, &wind, &pressure, &o.Description, &o.Icon); err != nil {
			return nil, err
		}
		d, err := time.Parse(weather.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		o.Date = d
		o.Humidity = floatPtr(humidity)
		o.WindSpeed = floatPtr(wind)
		o.Pressure = floatPtr(pressure)
		out = append(out, o)
	}
	return out, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return weather.Float(v.Float64)
}
