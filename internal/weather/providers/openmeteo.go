package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/weatherai/internal/catalog"
	"github.com/i474232898/weatherai/internal/weather"
)

const openMeteoDaily = "temperature_2m_mean,relative_humidity_2m_mean,wind_speed_10m_max,surface_pressure_mean,weather_code"

// OpenMeteoProvider reads daily history from the Open-Meteo archive. It needs
// no API key.
type OpenMeteoProvider struct {
	endpoint
}

func NewOpenMeteoProvider(client *http.Client, opts ...Option) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		endpoint: newEndpoint("openmeteo", "https://archive-api.open-meteo.com/v1/archive", client, opts),
	}
}

// FetchHistory returns one row per day in [from, to]. Days without a mean
// temperature are skipped.
func (p *OpenMeteoProvider) FetchHistory(ctx context.Context, st catalog.Station, from, to time.Time) ([]weather.Observation, error) {
	if st.Latitude == 0 && st.Longitude == 0 {
		return nil, fmt.Errorf("%s: %w", p.name, errNoCoordinates)
	}

	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(st.Latitude, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(st.Longitude, 'f', 4, 64))
	values.Set("start_date", from.UTC().Format(weather.DateLayout))
	values.Set("end_date", to.UTC().Format(weather.DateLayout))
	values.Set("daily", openMeteoDaily)
	values.Set("wind_speed_unit", "ms")
	values.Set("timezone", "UTC")

	var payload struct {
		Daily struct {
			Time        []string   `json:"time"`
			Temperature []*float64 `json:"temperature_2m_mean"`
			Humidity    []*float64 `json:"relative_humidity_2m_mean"`
			WindSpeed   []*float64 `json:"wind_speed_10m_max"`
			Pressure    []*float64 `json:"surface_pressure_mean"`
			WeatherCode []*int     `json:"weather_code"`
		} `json:"daily"`
	}
	if err := p.getJSON(ctx, values, &payload); err != nil {
		return nil, err
	}

	d := payload.Daily
	out := make([]weather.Observation, 0, len(d.Time))
	for i, ts := range d.Time {
		date, err := time.Parse(weather.DateLayout, ts)
		if err != nil {
			continue
		}
		temp := at(d.Temperature, i)
		if temp == nil {
			continue
		}

		desc := weather.DescribeTemperature(*temp)
		if code := at(d.WeatherCode, i); code != nil {
			if c := weather.ConditionFromWMO(*code); c != weather.ConditionUnknown {
				desc = c.Description()
			}
		}

		out = append(out, weather.Observation{
			Date:        date,
			StationID:   st.ID,
			City:        st.Name,
			Temperature: *temp,
			Humidity:    at(d.Humidity, i),
			WindSpeed:   at(d.WindSpeed, i),
			Pressure:    at(d.Pressure, i),
			Description: desc,
			Icon:        weather.IconFor(desc),
		})
	}
	return out, nil
}

// at returns s[i], or nil when the column is shorter than the time axis.
func at[T any](s []*T, i int) *T {
	if i < len(s) {
		return s[i]
	}
	return nil
}
