package weather

import (
	"math"
	"time"
)

// Stats summarizes the temperature side of a series.
type Stats struct {
	Count    int       `json:"count"`
	MeanTemp float64   `json:"meanTemperature"`
	MaxTemp  float64   `json:"maxTemperature"`
	MinTemp  float64   `json:"minTemperature"`
	First    time.Time `json:"first"`
	Last     time.Time `json:"last"`
}

// Aggregate computes Stats over series. An empty series yields a zero Stats.
func Aggregate(series []Observation) Stats {
	if len(series) == 0 {
		return Stats{}
	}

	st := Stats{
		Count:   len(series),
		MaxTemp: math.Inf(-1),
		MinTemp: math.Inf(1),
		First:   series[0].Date,
		Last:    series[0].Date,
	}

	var sum float64
	for _, o := range series {
		sum += o.Temperature
		st.MaxTemp = math.Max(st.MaxTemp, o.Temperature)
		st.MinTemp = math.Min(st.MinTemp, o.Temperature)
		if o.Date.Before(st.First) {
			st.First = o.Date
		}
		if o.Date.After(st.Last) {
			st.Last = o.Date
		}
	}
	st.MeanTemp = sum / float64(len(series))
	return st
}

// fieldStats is the mean and sample standard deviation of one measure.
type fieldStats struct {
	mean   float64
	stddev float64
}

// measure extracts the non-nil values of an optional field.
func measure(series []Observation, field func(Observation) *float64) []float64 {
	var out []float64
	for _, o := range series {
		if v := field(o); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// describe returns mean and sample stddev of values, or def when values is
// empty. Fewer than two values carry no spread information and give 0.
func describe(values []float64, def fieldStats) fieldStats {
	if len(values) == 0 {
		return def
	}
	m := mean(values)
	return fieldStats{mean: m, stddev: sampleStdDev(values, m)}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sampleStdDev(values []float64, m float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// meanDelta is the average day-over-day change of values; 0 for fewer than
// two values.
func meanDelta(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return (values[len(values)-1] - values[0]) / float64(len(values)-1)
}
