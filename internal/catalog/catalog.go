package catalog

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrEmptyCatalog is returned when no usable station survives validation.
	ErrEmptyCatalog = errors.New("catalog has no stations")
)

// Catalog is a read-only table of known stations. It is built once and
// replaced wholesale on reload; it is safe for concurrent readers.
type Catalog struct {
	stations []Station
	byID     map[string]int
}

// NewCatalog validates stations and builds a catalog preserving input order.
// Stations with an empty key or out-of-range coordinates are skipped, and so
// are later duplicates of an id already present.
func NewCatalog(stations []Station) (*Catalog, error) {
	c := &Catalog{
		stations: make([]Station, 0, len(stations)),
		byID:     make(map[string]int, len(stations)),
	}

	for _, s := range stations {
		if s.Key == "" {
			s.Key = Normalize(s.Name)
		}
		if s.ID == "" {
			s.ID = IDFromName(s.Name)
		}
		if err := validate(s); err != nil {
			slog.Warn("catalog: skipping station", "name", s.Name, "error", err)
			continue
		}
		if _, dup := c.byID[s.ID]; dup {
			slog.Debug("catalog: duplicate station id", "id", s.ID)
			continue
		}
		c.byID[s.ID] = len(c.stations)
		c.stations = append(c.stations, s)
	}

	if len(c.stations) == 0 {
		return nil, ErrEmptyCatalog
	}
	return c, nil
}

func validate(s Station) error {
	if s.Key == "" {
		return errors.New("empty search key")
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", s.Latitude)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", s.Longitude)
	}
	return nil
}

// Len returns the number of stations.
func (c *Catalog) Len() int {
	return len(c.stations)
}

// Stations returns a copy of the stations in catalog order.
func (c *Catalog) Stations() []Station {
	out := make([]Station, len(c.stations))
	copy(out, c.stations)
	return out
}

// ByID looks a station up by id.
func (c *Catalog) ByID(id string) (Station, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Station{}, false
	}
	return c.stations[i], true
}

// each calls fn for every station in catalog order until fn returns false.
func (c *Catalog) each(fn func(Station) bool) {
	for _, s := range c.stations {
		if !fn(s) {
			return
		}
	}
}
