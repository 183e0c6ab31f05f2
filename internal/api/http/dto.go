package httpapi

import (
	"errors"
	"time"

	"github.com/i474232898/weatherai/internal/weather"
)

// locationQuery holds query parameters for identifying a location.
type locationQuery struct {
	City string `query:"city" validate:"required"`
}

type historicalQuery struct {
	City      string `query:"city" validate:"required"`
	StartDate string `query:"start_date"`
	EndDate   string `query:"end_date"`
	Days      int    `query:"days" validate:"gte=0,lte=3650"`
}

// window parses the optional bounds. An end before the start is rejected.
func (q historicalQuery) window() (start, end *time.Time, err error) {
	if q.StartDate != "" {
		s, err := parseDate(q.StartDate)
		if err != nil {
			return nil, nil, err
		}
		start = &s
	}
	if q.EndDate != "" {
		e, err := parseDate(q.EndDate)
		if err != nil {
			return nil, nil, err
		}
		end = &e
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, errors.New("end_date must not be before start_date")
	}
	return start, end, nil
}

type forecastQuery struct {
	City string `query:"city" validate:"required"`
	Days int    `query:"days" validate:"gte=0"`
}

type analyzeRequest struct {
	Query  string `json:"query" validate:"required_without=City"`
	City   string `json:"city"`
	Format string `json:"format" validate:"omitempty,oneof=text table chart summary"`
	Days   int    `json:"days" validate:"gte=0"`
}

type analyzeResponse struct {
	weather.Analysis
	Chart *chart `json:"chart,omitempty"`
}

// chart holds column-oriented series ready for plotting.
type chart struct {
	Labels      []string   `json:"labels"`
	Temperature []float64  `json:"temperature"`
	Humidity    []*float64 `json:"humidity"`
	WindSpeed   []*float64 `json:"windSpeed"`
}

func newChart(data []weather.Observation) *chart {
	c := &chart{
		Labels:      make([]string, 0, len(data)),
		Temperature: make([]float64, 0, len(data)),
		Humidity:    make([]*float64, 0, len(data)),
		WindSpeed:   make([]*float64, 0, len(data)),
	}
	for _, o := range data {
		c.Labels = append(c.Labels, o.Date.Format(weather.DateLayout))
		c.Temperature = append(c.Temperature, o.Temperature)
		c.Humidity = append(c.Humidity, o.Humidity)
		c.WindSpeed = append(c.WindSpeed, o.WindSpeed)
	}
	return c
}
