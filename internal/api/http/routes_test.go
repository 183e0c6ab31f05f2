package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weatherai/internal/catalog"
	"github.com/i474232898/weatherai/internal/store"
	"github.com/i474232898/weatherai/internal/weather"
)

var testNow = time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

type stubLoader struct {
	ds weather.Dataset
}

func (l stubLoader) Load(context.Context) (weather.Dataset, error) {
	return l.ds, nil
}

func newTestApp(t *testing.T, opts ...weather.Option) *fiber.App {
	t.Helper()

	london := catalog.NewStation("london", "London", "GB", 51.5074, -0.1278)
	tokyo := catalog.NewStation("tokyo", "Tokyo", "JP", 35.6762, 139.6503)

	var rows []weather.Observation
	for d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !d.After(testNow); d = d.AddDate(0, 0, 1) {
		rows = append(rows, weather.Observation{
			Date:        d,
			StationID:   london.ID,
			City:        london.Name,
			Temperature: 8 + float64(d.Day())/10,
			Humidity:    weather.Float(80),
			WindSpeed:   weather.Float(4),
			Pressure:    weather.Float(1010),
			Description: "Cool",
			Icon:        "01d",
		})
	}

	opts = append([]weather.Option{
		weather.WithClock(func() time.Time { return testNow }),
		weather.WithSeed(7),
	}, opts...)
	svc := weather.NewService(
		stubLoader{ds: weather.Dataset{Stations: []catalog.Station{london, tokyo}, Observations: rows}},
		store.NewMemoryStore(0),
		opts...,
	)
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	return NewApp(svc, Options{ForecastDays: 7, MaxForecastDays: 14, Quiet: true})
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s %s: %v", method, target, err)
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	code, body := do(t, app, http.MethodGet, "/health", "")
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if body["status"] != "ok" || body["stations"] != float64(2) {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestLocations(t *testing.T) {
	app := newTestApp(t)

	code, body := do(t, app, http.MethodGet, "/api/v1/locations", "")
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if body["count"] != float64(2) {
		t.Fatalf("expected 2 locations, got %v", body["count"])
	}
}

func TestResolve(t *testing.T) {
	app := newTestApp(t)

	code, body := do(t, app, http.MethodGet, "/api/v1/locations/resolve?q=tokio", "")
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if body["id"] != "tokyo" {
		t.Fatalf("expected tokyo, got %v", body["id"])
	}

	code, body = do(t, app, http.MethodGet, "/api/v1/locations/resolve?q=atlantis", "")
	if code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, code)
	}
	if body["error"] != true {
		t.Fatalf("expected error envelope, got %v", body)
	}

	code, _ = do(t, app, http.MethodGet, "/api/v1/locations/resolve", "")
	if code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, code)
	}
}

func TestHistorical(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		target string
		code   int
		rows   int
	}{
		{"explicit window", "/api/v1/weather/historical?city=London&start_date=2024-01-02&end_date=2024-01-04", http.StatusOK, 3},
		{"rfc3339 bounds", "/api/v1/weather/historical?city=london&start_date=2024-01-02T00:00:00Z&end_date=2024-01-02T00:00:00Z", http.StatusOK, 1},
		{"empty window is not an error", "/api/v1/weather/historical?city=Tokyo&days=3", http.StatusOK, 0},
		{"missing city", "/api/v1/weather/historical?days=3", http.StatusBadRequest, -1},
		{"bad date", "/api/v1/weather/historical?city=London&start_date=yesterday", http.StatusBadRequest, -1},
		{"reversed window", "/api/v1/weather/historical?city=London&start_date=2024-01-05&end_date=2024-01-01", http.StatusBadRequest, -1},
		{"unknown city", "/api/v1/weather/historical?city=Atlantis", http.StatusNotFound, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, app, http.MethodGet, tt.target, "")
			if code != tt.code {
				t.Fatalf("expected status %d, got %d (%v)", tt.code, code, body)
			}
			if tt.rows < 0 {
				return
			}
			data, ok := body["data"].([]any)
			if !ok {
				t.Fatalf("expected data array, got %T", body["data"])
			}
			if len(data) != tt.rows {
				t.Fatalf("expected %d rows, got %d", tt.rows, len(data))
			}
		})
	}
}

// TestForecastDaysValidation verifies that the forecast endpoint enforces the
// configured range for the `days` query parameter.
func TestForecastDaysValidation(t *testing.T) {
	app := newTestApp(t)

	for _, target := range []string{
		"/api/v1/weather/forecast?city=London&days=15",
		"/api/v1/weather/forecast?city=London&days=-1",
		"/api/v1/weather/forecast?city=London&days=abc",
		"/api/v1/weather/forecast?days=3",
	} {
		code, _ := do(t, app, http.MethodGet, target, "")
		if code != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", target, http.StatusBadRequest, code)
		}
	}
}

func TestServiceDayLimitIsBadRequest(t *testing.T) {
	app := newTestApp(t, weather.WithMaxForecastDays(3))

	code, body := do(t, app, http.MethodGet, "/api/v1/weather/forecast?city=London&days=5", "")
	if code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d (%v)", http.StatusBadRequest, code, body)
	}
}

func TestForecast(t *testing.T) {
	app := newTestApp(t)

	code, body := do(t, app, http.MethodGet, "/api/v1/weather/forecast?city=London", "")
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	data := body["data"].([]any)
	if len(data) != 7 {
		t.Fatalf("expected default 7 days, got %d", len(data))
	}
	first := data[0].(map[string]any)
	if first["date"] != "2024-01-11T00:00:00Z" || first["synthetic"] != true {
		t.Fatalf("unexpected first point: %v", first)
	}
	if body["source"] != weather.SourceSynthesized {
		t.Fatalf("expected synthesized source, got %v", body["source"])
	}

	// No history to project from.
	code, _ = do(t, app, http.MethodGet, "/api/v1/weather/forecast?city=Tokyo&days=3", "")
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, code)
	}
}

func TestCurrent(t *testing.T) {
	app := newTestApp(t)

	code, body := do(t, app, http.MethodGet, "/api/v1/weather/current?city=London", "")
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	data := body["data"].([]any)
	if len(data) != 1 || data[0].(map[string]any)["date"] != "2024-01-10T00:00:00Z" {
		t.Fatalf("expected today's stored row, got %v", data)
	}

	code, body = do(t, app, http.MethodGet, "/api/v1/weather/current?city=Tokyo", "")
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if body["source"] != weather.SourceNone {
		t.Fatalf("expected empty series, got %v", body)
	}
}

func TestAnalyze(t *testing.T) {
	app := newTestApp(t)

	t.Run("chart format adds columns", func(t *testing.T) {
		code, body := do(t, app, http.MethodPost, "/api/v1/weather/analyze", `{"city":"London","format":"chart","days":3}`)
		if code != http.StatusOK {
			t.Fatalf("expected status %d, got %d (%v)", http.StatusOK, code, body)
		}
		if body["id"] == "" || body["intent"] != "forecast" {
			t.Fatalf("unexpected analysis: %v", body)
		}
		chart, ok := body["chart"].(map[string]any)
		if !ok {
			t.Fatalf("expected chart, got %v", body["chart"])
		}
		if labels := chart["labels"].([]any); len(labels) != 3 || labels[0] != "2024-01-11" {
			t.Fatalf("unexpected labels: %v", labels)
		}
	})

	t.Run("text format has no chart", func(t *testing.T) {
		code, body := do(t, app, http.MethodPost, "/api/v1/weather/analyze", `{"city":"London"}`)
		if code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, code)
		}
		if _, ok := body["chart"]; ok {
			t.Fatalf("unexpected chart in %v", body)
		}
	})

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"city":`, http.StatusBadRequest},
		{"nothing to go on", `{}`, http.StatusBadRequest},
		{"bad format", `{"city":"London","format":"pdf"}`, http.StatusBadRequest},
		{"too many days", `{"city":"London","days":30}`, http.StatusBadRequest},
		{"unknown city", `{"city":"Atlantis"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := do(t, app, http.MethodPost, "/api/v1/weather/analyze", tt.body)
			if code != tt.code {
				t.Fatalf("expected status %d, got %d", tt.code, code)
			}
		})
	}
}

func TestSampleQueriesAndReload(t *testing.T) {
	app := newTestApp(t)

	code, body := do(t, app, http.MethodGet, "/api/v1/sample-queries", "")
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if qs := body["queries"].([]any); len(qs) == 0 {
		t.Fatal("expected sample queries")
	}

	code, body = do(t, app, http.MethodPost, "/api/v1/admin/reload", "")
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if body["status"] != "reloaded" || body["stations"] != float64(2) {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestNotReady(t *testing.T) {
	svc := weather.NewService(stubLoader{}, store.NewMemoryStore(0))
	app := NewApp(svc, Options{Quiet: true})

	code, _ := do(t, app, http.MethodGet, "/api/v1/weather/current?city=London", "")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, code)
	}
}
