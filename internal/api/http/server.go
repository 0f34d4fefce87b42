package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// ProviderStatus exposes provider health for /health.
type ProviderStatus interface {
	Name() string
	CircuitState() string
}

// Options configures NewApp. Only Service is required.
type Options struct {
	Service  ForecastService
	History  SnapshotReader
	Provider ProviderStatus
	Logger   *zap.Logger
}

// NewApp builds the Fiber app with middleware, health check and API routes.
func NewApp(opts Options) *fiber.App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "farm-forecast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          ErrorHandler(logger),
	})

	// Global middleware
	app.Use(requestid.New())
	app.Use(AccessLog(logger))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status":  "ok",
			"service": "farm-forecast",
		}
		if p := opts.Provider; p != nil {
			body["provider"] = p.Name()
			body["circuit"] = p.CircuitState()
		}
		return c.JSON(body)
	})

	RegisterRoutes(app, opts.Service, opts.History)
	return app
}
