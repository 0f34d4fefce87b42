package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/farm-forecast/internal/weather"
)

// StatusFor maps an error to the HTTP status returned to callers.
func StatusFor(err error) int {
	var (
		fErr *fiber.Error
		vErr *weather.ValidationError
		cErr *weather.ConfigurationError
		uErr *weather.UpstreamError
	)
	switch {
	case errors.As(err, &fErr):
		return fErr.Code
	case errors.As(err, &vErr):
		return fiber.StatusBadRequest
	case errors.As(err, &uErr):
		return fiber.StatusBadGateway
	case errors.As(err, &cErr):
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error as {"error": "<message>"}.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		code := StatusFor(err)
		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
