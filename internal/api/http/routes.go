package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weatherai/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, opts Options) {
	opts.defaults()
	v1 := app.Group("/api/v1")

	v1.Get("/locations", func(c *fiber.Ctx) error {
		locs := service.Locations()
		return c.JSON(fiber.Map{
			"locations": locs,
			"count":     len(locs),
		})
	})

	v1.Get("/locations/resolve", func(c *fiber.Ctx) error {
		q := c.Query("q")
		if err := validate.Var(q, "required"); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "q query parameter is required")
		}
		st, ok := service.Resolve(q)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("unknown location %q", q))
		}
		return c.JSON(st)
	})

	v1.Get("/weather/historical", func(c *fiber.Ctx) error {
		var req historicalQuery
		if err := bindQuery(c, &req); err != nil {
			return err
		}
		start, end, err := req.window()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		series, err := service.Historical(c.UserContext(), weather.HistoricalRequest{
			Location: req.City,
			Start:    start,
			End:      end,
			Days:     req.Days,
		})
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(series)
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		var req forecastQuery
		if err := bindQuery(c, &req); err != nil {
			return err
		}
		if req.Days == 0 {
			req.Days = opts.ForecastDays
		}
		if req.Days < 1 || req.Days > opts.MaxForecastDays {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", opts.MaxForecastDays))
		}

		series, err := service.Forecast(c.UserContext(), weather.ForecastRequest{Location: req.City, Days: req.Days})
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(series)
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		var req locationQuery
		if err := bindQuery(c, &req); err != nil {
			return err
		}

		series, err := service.Current(c.UserContext(), req.City)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(series)
	})

	v1.Post("/weather/analyze", func(c *fiber.Ctx) error {
		var req analyzeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Days > opts.MaxForecastDays {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("days must be at most %d", opts.MaxForecastDays))
		}

		res, err := service.Analyze(c.UserContext(), weather.AnalyzeRequest{
			Query:  req.Query,
			City:   req.City,
			Format: req.Format,
			Days:   req.Days,
		})
		if err != nil {
			return toHTTPError(err)
		}

		out := analyzeResponse{Analysis: res}
		if res.Format == weather.FormatChart {
			out.Chart = newChart(res.Data)
		}
		return c.JSON(out)
	})

	v1.Get("/sample-queries", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"queries": service.SampleQueries(opts.SampleQueries)})
	})

	v1.Post("/admin/reload", func(c *fiber.Ctx) error {
		if err := service.Reload(c.UserContext()); err != nil {
			slog.Error("manual reload failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "reload failed")
		}
		return c.JSON(fiber.Map{
			"status":   "reloaded",
			"stations": len(service.Locations()),
		})
	})
}

// toHTTPError maps service errors to HTTP statuses.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, weather.ErrEmptyLocation), errors.Is(err, weather.ErrInvalidDays), errors.Is(err, weather.ErrTooManyDays):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrUnknownLocation):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, weather.ErrInsufficientHistory):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, weather.ErrNotReady):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("request failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}

// bindQuery parses and validates query parameters into dst.
func bindQuery(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}
	if err := validate.Struct(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// parseDate accepts a calendar day or an RFC3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if d, err := time.Parse(weather.DateLayout, s); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q; use YYYY-MM-DD or RFC3339", s)
}
