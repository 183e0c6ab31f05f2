package weather

import (
	"time"

	"github.com/i474232898/weatherai/internal/catalog"
)

// DateLayout is the calendar-day layout used for dates on the wire and in storage.
const DateLayout = "2006-01-02"

// Observation is one daily weather record for a station. Synthetic marks a
// projected point produced by the Synthesizer rather than an observed fact.
// Optional measures are nil when the source did not provide them.
type Observation struct {
	Date        time.Time `json:"date"` // UTC midnight
	StationID   string    `json:"stationId"`
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"`
	Humidity    *float64  `json:"humidity"`
	WindSpeed   *float64  `json:"windSpeed"`
	Pressure    *float64  `json:"pressure"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Synthetic   bool      `json:"synthetic"`
}

// Float returns a pointer to v, for filling optional measures.
func Float(v float64) *float64 {
	return &v
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Direction tells whether a query looks backwards or forwards in time.
type Direction string

const (
	DirectionPast    Direction = "past"
	DirectionFuture  Direction = "future"
	DirectionCurrent Direction = "current"
)

// Intent is the kind of answer requested.
type Intent string

const (
	IntentForecast   Intent = "forecast"
	IntentHistorical Intent = "historical"
	IntentCurrent    Intent = "current"
)

// Format is the presentation hint passed through to the caller.
type Format string

const (
	FormatText    Format = "text"
	FormatTable   Format = "table"
	FormatChart   Format = "chart"
	FormatSummary Format = "summary"
)

// ParseFormat maps free text to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch Format(s) {
	case FormatTable, FormatChart, FormatSummary:
		return Format(s)
	default:
		return FormatText
	}
}

// Query is the structured form of a natural-language weather question.
type Query struct {
	Location  string     `json:"location"`
	Days      int        `json:"days"`
	Direction Direction  `json:"direction"`
	Intent    Intent     `json:"intent"`
	Format    Format     `json:"format"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`
}

// Dataset is what a Loader hands to the service on start and reload.
type Dataset struct {
	Stations     []catalog.Station
	Observations []Observation
}
