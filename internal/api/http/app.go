package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/weatherai/internal/weather"
)

// Options tunes the HTTP surface.
type Options struct {
	AppName         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ForecastDays    int
	MaxForecastDays int
	SampleQueries   int
	// Quiet disables the request logger, for tests.
	Quiet bool
}

func (o *Options) defaults() {
	if o.AppName == "" {
		o.AppName = "weatherai"
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 10 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.MaxForecastDays <= 0 {
		o.MaxForecastDays = 30
	}
	if o.ForecastDays <= 0 || o.ForecastDays > o.MaxForecastDays {
		o.ForecastDays = min(7, o.MaxForecastDays)
	}
	if o.SampleQueries <= 0 {
		o.SampleQueries = 8
	}
}

// NewApp builds the fiber application with middleware, health check and API
// routes.
func NewApp(service *weather.Service, opts Options) *fiber.App {
	opts.defaults()

	app := fiber.New(fiber.Config{
		AppName:               opts.AppName,
		DisableStartupMessage: true,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	if !opts.Quiet {
		app.Use(logger.New())
	}
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  opts.AppName,
			"stations": len(service.Locations()),
		})
	})

	RegisterRoutes(app, service, opts)
	return app
}
