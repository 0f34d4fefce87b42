package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/farm-forecast/internal/store"
	"github.com/i474232898/farm-forecast/internal/weather"
)

var validate = validator.New()

// ForecastService is the request-path dependency of the forecast routes.
type ForecastService interface {
	GetForecast(ctx context.Context, location string) (weather.NormalizedForecast, error)
}

// SnapshotReader is the read side of the advisory digest history.
type SnapshotReader interface {
	Latest(location string) (store.Snapshot, error)
	Range(location string, from, to time.Time) ([]store.Snapshot, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. history may be
// nil, in which case the advisory routes are not mounted.
func RegisterRoutes(app *fiber.App, service ForecastService, history SnapshotReader) {
	forecast := forecastHandler(service)

	app.Get("/weather", forecast)

	v1 := app.Group("/api/v1")
	v1.Get("/weather", forecast)

	if history == nil {
		return
	}

	v1.Get("/advisories/latest", func(c *fiber.Ctx) error {
		q, err := parseLocationQuery(c)
		if err != nil {
			return err
		}

		snapshot, err := history.Latest(q.Location)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no advisories recorded for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read advisories")
		}

		return c.JSON(snapshot)
	})

	v1.Get("/advisories/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return err
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshots, err := history.Range(req.Location.Location, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no advisories recorded for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read advisory history")
		}

		return c.JSON(fiber.Map{
			"location":  req.Location.Location,
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})
}

func forecastHandler(service ForecastService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := parseLocationQuery(c)
		if err != nil {
			return err
		}

		forecast, err := service.GetForecast(c.UserContext(), q.Location)
		if err != nil {
			return err
		}
		return c.JSON(forecast)
	}
}

// locationQuery holds the query parameter identifying a location.
type locationQuery struct {
	Location string `validate:"required"`
}

// parseLocationQuery returns a *weather.ValidationError so the error handler
// renders the same message the service would.
func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	q := locationQuery{Location: strings.TrimSpace(c.Query("location"))}

	if err := validate.Struct(q); err != nil {
		return q, &weather.ValidationError{Field: "location", Message: "location parameter is required"}
	}

	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location locationQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return fiber.NewError(fiber.StatusBadRequest, "from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	to, err := parseTime(toStr)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
