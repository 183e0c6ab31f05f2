package weather

import (
	"errors"
	"math"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func series(start string, temps ...float64) []Observation {
	base := day(start)
	out := make([]Observation, len(temps))
	for i, t := range temps {
		out[i] = Observation{
			Date:        base.AddDate(0, 0, i),
			StationID:   "london",
			City:        "London",
			Temperature: t,
			Humidity:    Float(70 + float64(i)),
			WindSpeed:   Float(4 + float64(i%3)),
			Pressure:    Float(1010 + float64(i%5)),
			Description: "Clear",
		}
	}
	return out
}

func TestSynthesizeLengthAndDates(t *testing.T) {
	hist := series("2024-03-01", 8, 9, 10, 11, 12)
	points, err := NewSynthesizer(NewSeededSource(1)).Synthesize(hist, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(points))
	}
	for i, p := range points {
		want := day("2024-03-05").AddDate(0, 0, i+1)
		if !p.Date.Equal(want) {
			t.Fatalf("point %d: expected date %s, got %s", i, want.Format(DateLayout), p.Date.Format(DateLayout))
		}
		if !p.Synthetic {
			t.Fatalf("point %d is not marked synthetic", i)
		}
		if p.StationID != "london" || p.City != "London" {
			t.Fatalf("point %d lost station identity: %+v", i, p)
		}
		if p.Description != DescribeTemperature(p.Temperature) {
			t.Fatalf("point %d: description %q does not match temperature %.1f", i, p.Description, p.Temperature)
		}
	}
}

func TestSynthesizeUnsortedHistory(t *testing.T) {
	hist := series("2024-03-01", 8, 9, 10)
	hist[0], hist[2] = hist[2], hist[0]

	points, err := NewSynthesizer(NewSeededSource(1)).Synthesize(hist, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := points[0].Date.Format(DateLayout); got != "2024-03-04" {
		t.Fatalf("expected first point after the newest row, got %s", got)
	}
	if hist[0].Temperature != 10 {
		t.Fatalf("history was reordered in place")
	}
}

func TestSynthesizeSingleRow(t *testing.T) {
	hist := []Observation{{
		Date:        day("2024-01-01"),
		StationID:   "london",
		City:        "London",
		Temperature: 20,
		Humidity:    Float(50),
		WindSpeed:   Float(5),
		Pressure:    Float(1013),
	}}

	points, err := NewSynthesizer(NewSeededSource(42)).Synthesize(hist, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for i, p := range points {
		if p.Temperature != 20 || *p.Humidity != 50 || *p.WindSpeed != 5 || *p.Pressure != 1013 {
			t.Fatalf("point %d drifted from its single anchor: %+v", i, p)
		}
		if p.Description != "Mild" {
			t.Fatalf("expected Mild, got %q", p.Description)
		}
	}
	if got := points[2].Date.Format(DateLayout); got != "2024-01-04" {
		t.Fatalf("expected last date 2024-01-04, got %s", got)
	}
}

func TestSynthesizeMissingMeasuresUseDefaults(t *testing.T) {
	hist := []Observation{{Date: day("2024-01-01"), Temperature: 10}}

	points, err := NewSynthesizer(NewSeededSource(3)).Synthesize(hist, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range points {
		if p.Humidity == nil || p.WindSpeed == nil || p.Pressure == nil {
			t.Fatalf("synthetic point missing a measure: %+v", p)
		}
		// Defaults carry their own spread, so only the bounds are checked.
		if *p.Humidity < HumidityBounds.Min || *p.Humidity > HumidityBounds.Max {
			t.Fatalf("humidity %.1f out of bounds", *p.Humidity)
		}
	}
}

func TestSynthesizeStaysInBounds(t *testing.T) {
	hist := series("2024-01-01", -35, 48, -12, 55, 30, -25, 44)
	hist[0].Humidity = Float(5)
	hist[1].Humidity = Float(140)
	hist[2].WindSpeed = Float(90)
	hist[3].Pressure = Float(900)
	hist[4].Pressure = Float(1100)

	for seed := uint64(0); seed < 50; seed++ {
		points, err := NewSynthesizer(NewSeededSource(seed)).Synthesize(hist, 30)
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}
		for _, p := range points {
			check := func(name string, v float64, b Bounds) {
				if v < b.Min || v > b.Max || math.IsNaN(v) {
					t.Fatalf("seed %d: %s %.2f out of [%.0f, %.0f]", seed, name, v, b.Min, b.Max)
				}
				if math.Abs(v*10-math.Round(v*10)) > 1e-9 {
					t.Fatalf("seed %d: %s %.4f not rounded to one decimal", seed, name, v)
				}
			}
			check("temperature", p.Temperature, TemperatureBounds)
			check("humidity", *p.Humidity, HumidityBounds)
			check("wind", *p.WindSpeed, WindBounds)
			check("pressure", *p.Pressure, PressureBounds)
		}
	}
}

func TestSynthesizeDeterministicWithSeed(t *testing.T) {
	hist := series("2024-05-01", 12, 14, 11, 15, 13, 16)

	a, err := NewSynthesizer(NewSeededSource(7)).Synthesize(hist, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewSynthesizer(NewSeededSource(7)).Synthesize(hist, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range a {
		if a[i].Temperature != b[i].Temperature || *a[i].Humidity != *b[i].Humidity ||
			*a[i].WindSpeed != *b[i].WindSpeed || *a[i].Pressure != *b[i].Pressure {
			t.Fatalf("point %d differs between identical seeds: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSynthesizeErrors(t *testing.T) {
	s := NewSynthesizer(NewSeededSource(1))

	if _, err := s.Synthesize(nil, 3); !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
	if _, err := s.Synthesize(series("2024-01-01", 10), 0); !errors.Is(err, ErrInvalidDays) {
		t.Fatalf("expected ErrInvalidDays, got %v", err)
	}
}

func TestSynthesizeNonFiniteFallsBackToMidpoint(t *testing.T) {
	hist := []Observation{{Date: day("2024-01-01"), Temperature: math.Inf(1)}}

	points, err := NewSynthesizer(NewSeededSource(1)).Synthesize(hist, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range points {
		if p.Temperature != 10 {
			t.Fatalf("expected midpoint 10, got %.1f", p.Temperature)
		}
	}
}

func TestBoundsClamp(t *testing.T) {
	b := Bounds{Min: 0, Max: 50}
	tests := []struct {
		in, want float64
	}{
		{-3, 0},
		{0, 0},
		{25.5, 25.5},
		{50, 50},
		{72, 50},
		{math.NaN(), 25},
		{math.Inf(-1), 25},
	}
	for _, tt := range tests {
		if got := b.Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
