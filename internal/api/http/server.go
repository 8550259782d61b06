package httpapi

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/fishing-log/internal/astro"
	"github.com/i474232898/fishing-log/internal/metrics"
	"github.com/i474232898/fishing-log/internal/store"
	"github.com/i474232898/fishing-log/internal/weather"
)

const appName = "fishing-log"

// NewApp builds the Fiber app with middleware, health, metrics and API routes.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(metrics.Middleware(statusFor))

	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status":  "ok",
			"service": appName,
			"sources": deps.Service.Sources(),
			"spots":   len(deps.Spots),
		}
		if deps.Ping != nil {
			if err := deps.Ping(); err != nil {
				log.Printf("ERROR: health check: store ping failed: %v", err)
				body["status"] = "degraded"
				body["store"] = err.Error()
				return c.Status(fiber.StatusServiceUnavailable).JSON(body)
			}
			body["store"] = "ok"
		}
		return c.JSON(body)
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	RegisterRoutes(app, deps)
	return app
}

// ErrorHandler renders every error as {"error": true, "message": ...} and maps
// domain errors to status codes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, weather.ErrNoDataForTime), errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, weather.ErrUnknownSource), errors.Is(err, astro.ErrInvalidDays):
		return fiber.StatusBadRequest
	case errors.Is(err, weather.ErrFetchFailed):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
