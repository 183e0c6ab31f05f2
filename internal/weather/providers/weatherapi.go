package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/weatherai/internal/catalog"
	"github.com/i474232898/weatherai/internal/weather"
)

// WeatherAPIProvider reads daily history from WeatherAPI.com. The history
// endpoint carries no pressure, so Pressure is left nil.
type WeatherAPIProvider struct {
	endpoint
	apiKey string
}

func NewWeatherAPIProvider(client *http.Client, apiKey string, opts ...Option) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		endpoint: newEndpoint("weatherapi", "https://api.weatherapi.com/v1/history.json", client, opts),
		apiKey:   apiKey,
	}
}

func (p *WeatherAPIProvider) FetchHistory(ctx context.Context, st catalog.Station, from, to time.Time) ([]weather.Observation, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", p.name, errMissingAPIKey)
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI uses "q" for location; it accepts "city,country" or "lat,lon".
	if st.Latitude != 0 || st.Longitude != 0 {
		values.Set("q", fmt.Sprintf("%f,%f", st.Latitude, st.Longitude))
	} else {
		q := st.Name
		if st.Country != "" {
			q = fmt.Sprintf("%s,%s", st.Name, st.Country)
		}
		values.Set("q", q)
	}
	values.Set("dt", from.UTC().Format(weather.DateLayout))
	values.Set("end_dt", to.UTC().Format(weather.DateLayout))

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				Date string `json:"date"`
				Day  struct {
					AvgTempC    float64 `json:"avgtemp_c"`
					AvgHumidity float64 `json:"avghumidity"`
					MaxWindKph  float64 `json:"maxwind_kph"`
					Condition   struct {
						Text string `json:"text"`
					} `json:"condition"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}
	if err := p.getJSON(ctx, values, &payload); err != nil {
		return nil, err
	}

	out := make([]weather.Observation, 0, len(payload.Forecast.ForecastDay))
	for _, fd := range payload.Forecast.ForecastDay {
		date, err := time.Parse(weather.DateLayout, fd.Date)
		if err != nil {
			continue
		}

		desc := fd.Day.Condition.Text
		if desc == "" {
			desc = weather.DescribeTemperature(fd.Day.AvgTempC)
		}

		out = append(out, weather.Observation{
			Date:        date,
			StationID:   st.ID,
			City:        st.Name,
			Temperature: fd.Day.AvgTempC,
			Humidity:    weather.Float(fd.Day.AvgHumidity),
			// kph to m/s
			WindSpeed:   weather.Float(fd.Day.MaxWindKph / 3.6),
			Description: desc,
			Icon:        weather.IconFor(desc),
		})
	}
	return out, nil
}
