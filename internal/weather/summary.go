package weather

import (
	"fmt"
	"strings"
	"time"
)

// Summarize renders a short digest of series for the named place. It never
// fails: an empty series yields a "no data" sentence.
func Summarize(name string, series []Observation, generatedAt time.Time) string {
	if name == "" {
		name = "the requested location"
	}
	ts := generatedAt.UTC().Format(time.RFC3339)

	switch len(series) {
	case 0:
		return fmt.Sprintf("No weather data available for %s.", name)
	case 1:
		cur := series[0]
		var b strings.Builder
		fmt.Fprintf(&b, "Current weather in %s:\n", name)
		fmt.Fprintf(&b, "Temperature: %.1f°C\n", cur.Temperature)
		fmt.Fprintf(&b, "Humidity: %s%%\n", formatMeasure(cur.Humidity))
		fmt.Fprintf(&b, "Wind Speed: %s m/s\n", formatMeasure(cur.WindSpeed))
		fmt.Fprintf(&b, "Conditions: %s\n", orDefault(cur.Description, "Unknown"))
		fmt.Fprintf(&b, "Last updated: %s", ts)
		return b.String()
	}

	st := Aggregate(series)
	heading := "Weather data for"
	if allSynthetic(series) {
		heading = "Forecast for"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s:\n", heading, name)
	fmt.Fprintf(&b, "Average temperature: %.1f°C\n", st.MeanTemp)
	fmt.Fprintf(&b, "Maximum temperature: %.1f°C\n", st.MaxTemp)
	fmt.Fprintf(&b, "Minimum temperature: %.1f°C\n", st.MinTemp)
	fmt.Fprintf(&b, "Data generated at: %s", ts)
	return b.String()
}

func formatMeasure(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *v)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func allSynthetic(series []Observation) bool {
	for _, o := range series {
		if !o.Synthetic {
			return false
		}
	}
	return true
}
