package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/i474232898/weatherai/internal/catalog"
	"github.com/i474232898/weatherai/internal/weather"
)

const defaultDescription = "Clear"

// CSVLoader reads the historical dataset and the station list from CSV files.
// It implements weather.Loader.
type CSVLoader struct {
	DatasetPath  string
	StationsPath string
	// Geocoder fills in stations without coordinates. Optional.
	Geocoder Geocoder
}

func NewCSVLoader(datasetPath, stationsPath string, g Geocoder) *CSVLoader {
	return &CSVLoader{DatasetPath: datasetPath, StationsPath: stationsPath, Geocoder: g}
}

// Load reads observations and stations. A missing dataset file is not an
// error: the result then has no observations and the built-in stations.
func (l *CSVLoader) Load(ctx context.Context) (weather.Dataset, error) {
	var (
		obs      []weather.Observation
		stations []stationRow
	)

	f, err := os.Open(l.DatasetPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("dataset file not found, starting without history", "path", l.DatasetPath)
	case err != nil:
		return weather.Dataset{}, fmt.Errorf("open dataset: %w", err)
	default:
		defer f.Close()
		obs, stations, err = readObservations(f)
		if err != nil {
			return weather.Dataset{}, fmt.Errorf("read dataset %s: %w", l.DatasetPath, err)
		}
	}

	if l.StationsPath != "" {
		sf, err := os.Open(l.StationsPath)
		if err != nil {
			return weather.Dataset{}, fmt.Errorf("open stations: %w", err)
		}
		defer sf.Close()
		if stations, err = readStations(sf); err != nil {
			return weather.Dataset{}, fmt.Errorf("read stations %s: %w", l.StationsPath, err)
		}
	}

	var out []catalog.Station
	if len(stations) == 0 {
		out = catalog.DefaultStations()
	} else {
		out = l.locate(ctx, stations)
	}

	slog.Info("dataset loaded", "observations", len(obs), "stations", len(out))
	return weather.Dataset{Stations: out, Observations: obs}, nil
}

// stationRow is a station as read from a file, coordinates possibly missing.
type stationRow struct {
	id, name, country string
	lat, lon          *float64
}

// locate turns rows into stations, filling missing coordinates from the
// built-in list, then the geocoder. Rows that stay unplaced are dropped.
func (l *CSVLoader) locate(ctx context.Context, rows []stationRow) []catalog.Station {
	builtin := make(map[string]catalog.Station)
	for _, s := range catalog.DefaultStations() {
		builtin[s.Key] = s
	}

	out := make([]catalog.Station, 0, len(rows))
	for _, r := range rows {
		country := r.country
		if country == "" {
			country = catalog.CountryFor(r.name)
		}

		if r.lat != nil && r.lon != nil {
			out = append(out, catalog.NewStation(r.id, r.name, country, *r.lat, *r.lon))
			continue
		}
		if b, ok := builtin[catalog.Normalize(r.name)]; ok {
			out = append(out, catalog.NewStation(r.id, r.name, country, b.Latitude, b.Longitude))
			continue
		}
		if l.Geocoder != nil {
			lat, lon, err := l.Geocoder.Geocode(ctx, r.name, country)
			if err == nil {
				out = append(out, catalog.NewStation(r.id, r.name, country, lat, lon))
				continue
			}
			slog.Warn("geocoding failed", "station", r.name, "error", err)
		}
		slog.Warn("dropping station without coordinates", "station", r.name)
	}
	return out
}

// readObservations parses dataset rows and collects the stations they name,
// in first-seen order. Unusable rows are skipped and counted.
func readObservations(r io.Reader) ([]weather.Observation, []stationRow, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, nil, err
	}

	var (
		iDate    = h.index(colDate)
		iTemp    = h.index(colTemperature)
		iHum     = h.index(colHumidity)
		iWind    = h.index(colWindSpeed)
		iPres    = h.index(colPressure)
		iDesc    = h.index(colDescription)
		iCity    = h.index(colCity)
		iID      = h.index(colStationID)
		iCountry = h.index(colCountry)
		iLat     = h.index(colLatitude)
		iLon     = h.index(colLongitude)
	)
	if iDate < 0 || iTemp < 0 {
		return nil, nil, fmt.Errorf("dataset needs date and temperature columns")
	}
	if iCity < 0 && iID < 0 {
		return nil, nil, fmt.Errorf("dataset needs a city or station_id column")
	}

	var (
		obs      []weather.Observation
		stations []stationRow
		seen     = make(map[string]int)
		skipped  int
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := parseDate(field(rec, iDate))
		if err != nil {
			skipped++
			continue
		}
		temp := optionalFloat(field(rec, iTemp))
		if temp == nil {
			skipped++
			continue
		}

		city := field(rec, iCity)
		id := field(rec, iID)
		if city == "" {
			city = id
		}
		if id == "" {
			id = catalog.IDFromName(city)
		}
		if id == "" {
			skipped++
			continue
		}

		if i, ok := seen[id]; !ok {
			seen[id] = len(stations)
			stations = append(stations, stationRow{
				id:      id,
				name:    city,
				country: field(rec, iCountry),
				lat:     optionalFloat(field(rec, iLat)),
				lon:     optionalFloat(field(rec, iLon)),
			})
		} else if stations[i].lat == nil {
			stations[i].lat = optionalFloat(field(rec, iLat))
			stations[i].lon = optionalFloat(field(rec, iLon))
		}

		desc := field(rec, iDesc)
		if desc == "" {
			desc = defaultDescription
		}
		obs = append(obs, weather.Observation{
			Date:        date,
			StationID:   id,
			City:        city,
			Temperature: *temp,
			Humidity:    optionalFloat(field(rec, iHum)),
			WindSpeed:   optionalFloat(field(rec, iWind)),
			Pressure:    optionalFloat(field(rec, iPres)),
			Description: desc,
			Icon:        weather.IconFor(desc),
		})
	}

	if skipped > 0 {
		slog.Warn("skipped unusable dataset rows", "count", skipped)
	}
	return obs, stations, nil
}

// readStations parses a station list with name, country and optional
// latitude/longitude columns.
func readStations(r io.Reader) ([]stationRow, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}

	iName := h.index(colCity)
	if iName < 0 {
		return nil, fmt.Errorf("stations file needs a name column")
	}
	iID := h.index(colStationID)
	iCountry := h.index(colCountry)
	iLat := h.index(colLatitude)
	iLon := h.index(colLongitude)

	var out []stationRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		name := field(rec, iName)
		if name == "" {
			continue
		}
		out = append(out, stationRow{
			id:      field(rec, iID),
			name:    name,
			country: field(rec, iCountry),
			lat:     optionalFloat(field(rec, iLat)),
			lon:     optionalFloat(field(rec, iLon)),
		})
	}
	return out, nil
}
