package weather

import (
	"errors"
	"math"
	"math/rand/v2"
	"sort"
)

var (
	// ErrInsufficientHistory is returned when there is no anchor observation to
	// project from.
	ErrInsufficientHistory = errors.New("insufficient history to synthesize a forecast")
	// ErrInvalidDays is returned for a non-positive day count.
	ErrInvalidDays = errors.New("days must be greater than zero")
)

// Bounds is a closed valid range for a synthesized measure.
type Bounds struct {
	Min, Max float64
}

// Clamp limits v to the range. Non-finite values become the midpoint.
func (b Bounds) Clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return (b.Min + b.Max) / 2
	}
	return math.Max(b.Min, math.Min(b.Max, v))
}

var (
	TemperatureBounds = Bounds{Min: -20, Max: 40}
	HumidityBounds    = Bounds{Min: 20, Max: 100}
	WindBounds        = Bounds{Min: 0, Max: 50}
	PressureBounds    = Bounds{Min: 950, Max: 1050}
)

// Climatological fallbacks for measures missing from the whole history.
var (
	defaultHumidity = fieldStats{mean: 60, stddev: 10}
	defaultWind     = fieldStats{mean: 10, stddev: 5}
	defaultPressure = fieldStats{mean: 1013.25, stddev: 5}
)

// noiseScale is the fraction of the historical spread used as noise sigma.
const noiseScale = 0.5

// NormSource yields standard normal samples. *rand.Rand satisfies it.
type NormSource interface {
	NormFloat64() float64
}

// NewSeededSource returns a deterministic NormSource for seed.
func NewSeededSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Synthesizer projects a historical series forward with a trend plus bounded
// gaussian noise. It is not safe for concurrent use when the source is not.
type Synthesizer struct {
	src NormSource
}

// NewSynthesizer creates a Synthesizer drawing noise from src.
func NewSynthesizer(src NormSource) *Synthesizer {
	return &Synthesizer{src: src}
}

// Synthesize returns days synthetic points following the last history date.
// history is not modified.
func (s *Synthesizer) Synthesize(history []Observation, days int) ([]Observation, error) {
	if len(history) == 0 {
		return nil, ErrInsufficientHistory
	}
	if days < 1 {
		return nil, ErrInvalidDays
	}

	sorted := make([]Observation, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	last := sorted[len(sorted)-1]

	temps := make([]float64, len(sorted))
	for i, o := range sorted {
		temps[i] = o.Temperature
	}
	tempMean := mean(temps)
	tempStd := sampleStdDev(temps, tempMean)
	trend := meanDelta(temps)

	humidity := describe(measure(sorted, func(o Observation) *float64 { return o.Humidity }), defaultHumidity)
	wind := describe(measure(sorted, func(o Observation) *float64 { return o.WindSpeed }), defaultWind)
	pressure := describe(measure(sorted, func(o Observation) *float64 { return o.Pressure }), defaultPressure)

	base := Day(last.Date)
	out := make([]Observation, 0, days)
	for i := 1; i <= days; i++ {
		temp := TemperatureBounds.Clamp(tempMean + trend*float64(i) + s.noise(tempStd))
		hum := HumidityBounds.Clamp(humidity.mean + s.noise(humidity.stddev))
		ws := WindBounds.Clamp(wind.mean + s.noise(wind.stddev))
		pres := PressureBounds.Clamp(pressure.mean + s.noise(pressure.stddev))

		temp = round1(temp)
		desc := DescribeTemperature(temp)
		out = append(out, Observation{
			Date:        base.AddDate(0, 0, i),
			StationID:   last.StationID,
			City:        last.City,
			Temperature: temp,
			Humidity:    Float(round1(hum)),
			WindSpeed:   Float(round1(ws)),
			Pressure:    Float(round1(pres)),
			Description: desc,
			Icon:        IconFor(desc),
			Synthetic:   true,
		})
	}
	return out, nil
}

func (s *Synthesizer) noise(stddev float64) float64 {
	sigma := stddev * noiseScale
	if sigma == 0 {
		return 0
	}
	return s.src.NormFloat64() * sigma
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
