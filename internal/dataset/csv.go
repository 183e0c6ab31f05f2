package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weatherai/internal/catalog"
	"github.com/i474232898/weatherai/internal/weather"
)

// Column aliases accepted in dataset headers, first match wins.
var (
	colDate        = []string{"date", "time", "Date", "Time"}
	colTemperature = []string{"temperature", "Temperature", "TEMP", "tavg"}
	colHumidity    = []string{"humidity", "Humidity", "HUM"}
	colWindSpeed   = []string{"wind_speed", "WindSpeed", "WIND", "wspd"}
	colPressure    = []string{"pressure", "Pressure", "PRES", "pres"}
	colDescription = []string{"description", "Description", "DESC"}
	colCity        = []string{"city", "City", "name", "Name"}
	colStationID   = []string{"station_id", "StationID"}
	colCountry     = []string{"country", "Country"}
	colLatitude    = []string{"latitude", "Latitude", "lat"}
	colLongitude   = []string{"longitude", "Longitude", "lon"}
)

var dateLayouts = []string{
	weather.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

var errNoHeader = errors.New("csv has no header row")

// header maps canonical columns to record indexes.
type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	rec, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errNoHeader
	}
	if err != nil {
		return nil, err
	}
	h := make(header, len(rec))
	for i, name := range rec {
		h[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	return h, nil
}

// index returns the position of the first alias present, or -1.
func (h header) index(aliases []string) int {
	for _, a := range aliases {
		if i, ok := h[a]; ok {
			return i
		}
	}
	return -1
}

// field returns the trimmed value at i, or "" when the column is absent.
func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return weather.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// optionalFloat returns nil for empty or unparsable values.
func optionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

var outputHeader = []string{
	"date", "station_id", "city", "country", "latitude", "longitude",
	"temperature", "humidity", "wind_speed", "pressure", "description",
}

// WriteCSV writes observations in the canonical dataset layout. Station
// metadata comes from stations by id; unknown ids get empty columns.
func WriteCSV(w io.Writer, obs []weather.Observation, stations []catalog.Station) error {
	byID := make(map[string]catalog.Station, len(stations))
	for _, s := range stations {
		byID[s.ID] = s
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(outputHeader); err != nil {
		return err
	}
	for _, o := range obs {
		st, ok := byID[o.StationID]
		var country, lat, lon string
		if ok {
			country = st.Country
			lat = strconv.FormatFloat(st.Latitude, 'f', -1, 64)
			lon = strconv.FormatFloat(st.Longitude, 'f', -1, 64)
		}
		rec := []string{
			o.Date.UTC().Format(weather.DateLayout),
			o.StationID,
			o.City,
			country,
			lat,
			lon,
			strconv.FormatFloat(o.Temperature, 'f', -1, 64),
			formatOptional(o.Humidity),
			formatOptional(o.WindSpeed),
			formatOptional(o.Pressure),
			o.Description,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
