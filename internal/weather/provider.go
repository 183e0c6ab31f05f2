package weather

import (
	"context"
	"time"

	"github.com/i474232898/weatherai/internal/catalog"
)

// HistoryProvider is an external source of daily observations for a coordinate
// (e.g. the Open-Meteo archive). Rows come back already in the canonical shape.
type HistoryProvider interface {
	Name() string
	FetchHistory(ctx context.Context, st catalog.Station, from, to time.Time) ([]Observation, error)
}

// CurrentProvider returns present conditions for a station.
type CurrentProvider interface {
	Name() string
	FetchCurrent(ctx context.Context, st catalog.Station) (Observation, error)
}

// QueryParser turns raw text into a structured Query. The result is a hint;
// the service validates it.
type QueryParser interface {
	Parse(ctx context.Context, text string) (Query, error)
}

// Loader supplies stations and historical rows.
type Loader interface {
	Load(ctx context.Context) (Dataset, error)
}

// SeriesStore is the contract for historical series storage. An empty result is
// a valid "no data" answer, never an error.
type SeriesStore interface {
	// Range returns rows for stationID with from <= date <= to, ascending.
	Range(ctx context.Context, stationID string, from, to time.Time) ([]Observation, error)
	// Latest returns the newest n rows for stationID, ascending.
	Latest(ctx context.Context, stationID string, n int) ([]Observation, error)
	// Replace swaps the whole content of the store.
	Replace(ctx context.Context, obs []Observation) error
}
