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

// OpenWeatherProvider reports present conditions from OpenWeatherMap.
type OpenWeatherProvider struct {
	endpoint
	apiKey string
	now    func() time.Time
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...Option) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		endpoint: newEndpoint("openweathermap", "https://api.openweathermap.org/data/2.5/weather", client, opts),
		apiKey:   apiKey,
		now:      time.Now,
	}
}

// FetchCurrent queries by coordinates, falling back to "city,country" for
// stations without them.
func (p *OpenWeatherProvider) FetchCurrent(ctx context.Context, st catalog.Station) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, fmt.Errorf("%s: %w", p.name, errMissingAPIKey)
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	if st.Latitude != 0 || st.Longitude != 0 {
		values.Set("lat", strconv.FormatFloat(st.Latitude, 'f', 4, 64))
		values.Set("lon", strconv.FormatFloat(st.Longitude, 'f', 4, 64))
	} else {
		q := st.Name
		if st.Country != "" {
			q = fmt.Sprintf("%s,%s", st.Name, st.Country)
		}
		values.Set("q", q)
	}

	var payload struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
			Pressure float64 `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	}
	if err := p.getJSON(ctx, values, &payload); err != nil {
		return weather.Observation{}, err
	}

	ts := p.now()
	if payload.Dt > 0 {
		ts = time.Unix(payload.Dt, 0)
	}

	desc := weather.DescribeTemperature(payload.Main.Temp)
	var icon string
	if len(payload.Weather) > 0 {
		w := payload.Weather[0]
		if c := weather.ConditionFromText(w.Main); c != weather.ConditionUnknown {
			desc = c.Description()
		}
		icon = w.Icon
	}
	if icon == "" {
		icon = weather.IconFor(desc)
	}

	return weather.Observation{
		Date:        weather.Day(ts),
		StationID:   st.ID,
		City:        st.Name,
		Temperature: payload.Main.Temp,
		Humidity:    weather.Float(payload.Main.Humidity),
		WindSpeed:   weather.Float(payload.Wind.Speed),
		Pressure:    weather.Float(payload.Main.Pressure),
		Description: desc,
		Icon:        icon,
	}, nil
}
