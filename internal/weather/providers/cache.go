package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/i474232898/weatherai/internal/catalog"
	"github.com/i474232898/weatherai/internal/weather"
)

// CachedHistory memoizes a HistoryProvider per station and window. Errors are
// not cached.
type CachedHistory struct {
	next  weather.HistoryProvider
	cache *cache.Cache
}

func NewCachedHistory(next weather.HistoryProvider, ttl time.Duration) *CachedHistory {
	return &CachedHistory{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *CachedHistory) Name() string {
	return c.next.Name()
}

func (c *CachedHistory) FetchHistory(ctx context.Context, st catalog.Station, from, to time.Time) ([]weather.Observation, error) {
	key := fmt.Sprintf("history_%s_%s_%s", st.ID, from.UTC().Format(weather.DateLayout), to.UTC().Format(weather.DateLayout))
	if cached, found := c.cache.Get(key); found {
		return cached.([]weather.Observation), nil
	}

	rows, err := c.next.FetchHistory(ctx, st, from, to)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, rows, cache.DefaultExpiration)
	return rows, nil
}
