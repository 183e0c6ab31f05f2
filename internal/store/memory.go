package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/weatherai/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory SeriesStore. Each station's rows
// are kept sorted by date with at most one row per day.
type MemoryStore struct {
	mu sync.RWMutex

	// key: station id
	data map[string][]weather.Observation

	// max number of rows kept per station, newest win
	maxHistory int
}

// NewMemoryStore creates a new MemoryStore. If maxHistory is <= 0, it is
// treated as unlimited.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string][]weather.Observation),
		maxHistory: maxHistory,
	}
}

// Replace swaps the whole content of the store. Rows for the same station and
// day collapse to the last one given.
func (s *MemoryStore) Replace(_ context.Context, obs []weather.Observation) error {
	next := make(map[string][]weather.Observation)
	for _, o := range obs {
		o.Date = weather.Day(o.Date)
		next[o.StationID] = append(next[o.StationID], o)
	}
	for id, rows := range next {
		next[id] = s.retain(dedupe(rows))
	}

	s.mu.Lock()
	s.data = next
	s.mu.Unlock()
	return nil
}

// Range returns rows for stationID with from <= date <= to.
func (s *MemoryStore) Range(_ context.Context, stationID string, from, to time.Time) ([]weather.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.data[stationID]
	lo := sort.Search(len(rows), func(i int) bool { return !rows[i].Date.Before(from) })
	hi := sort.Search(len(rows), func(i int) bool { return rows[i].Date.After(to) })
	if lo >= hi {
		return nil, nil
	}

	out := make([]weather.Observation, hi-lo)
	copy(out, rows[lo:hi])
	return out, nil
}

// Latest returns the newest n rows for stationID, oldest first.
func (s *MemoryStore) Latest(_ context.Context, stationID string, n int) ([]weather.Observation, error) {
	if n <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.data[stationID]
	if len(rows) > n {
		rows = rows[len(rows)-n:]
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]weather.Observation, len(rows))
	copy(out, rows)
	return out, nil
}

// Len reports the total number of stored rows.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	for _, rows := range s.data {
		n += len(rows)
	}
	return n
}

func (s *MemoryStore) retain(rows []weather.Observation) []weather.Observation {
	if s.maxHistory > 0 && len(rows) > s.maxHistory {
		over := len(rows) - s.maxHistory
		rows = rows[over:]
	}
	return rows
}

// dedupe sorts rows by date, keeping the last row given for each day.
func dedupe(rows []weather.Observation) []weather.Observation {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	out := rows[:0]
	for _, o := range rows {
		if n := len(out); n > 0 && out[n-1].Date.Equal(o.Date) {
			out[n-1] = o
			continue
		}
		out = append(out, o)
	}
	return out
}
