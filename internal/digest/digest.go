// Package digest records advisory snapshots for a fixed set of farm locations.
package digest

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/farm-forecast/internal/store"
	"github.com/i474232898/farm-forecast/internal/weather"
)

// ForecastService is the part of weather.Service the digest needs.
type ForecastService interface {
	GetForecast(ctx context.Context, location string) (weather.NormalizedForecast, error)
}

// SnapshotSaver persists digest results.
type SnapshotSaver interface {
	Save(snapshot store.Snapshot)
}

// Result summarizes one Run.
type Result struct {
	Saved  int
	Failed int
}

// Runner fetches forecasts for each configured location and saves them.
type Runner struct {
	service     ForecastService
	store       SnapshotSaver
	locations   []string
	concurrency int
	timeout     time.Duration
	logger      *zap.Logger
}

// New creates a Runner. concurrency <= 0 means one location at a time.
func New(service ForecastService, saver SnapshotSaver, locations []string, concurrency int, logger *zap.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		service:     service,
		store:       saver,
		locations:   locations,
		concurrency: concurrency,
		timeout:     30 * time.Second,
		logger:      logger,
	}
}

// Locations returns the configured farm locations.
func (r *Runner) Locations() []string {
	return r.locations
}

// Run fetches every location once. A failing location is logged and skipped;
// Run only returns an error when ctx is done before all locations finished.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	results := make([]bool, len(r.locations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, loc := range r.locations {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, r.timeout)
			defer cancel()

			forecast, err := r.service.GetForecast(fctx, loc)
			if err != nil {
				r.logger.Warn("digest fetch failed",
					zap.String("location", loc),
					zap.Error(err))
				return nil
			}

			r.store.Save(store.NewSnapshot(loc, forecast))
			results[i] = true
			return nil
		})
	}

	_ = g.Wait()

	var res Result
	for _, ok := range results {
		if ok {
			res.Saved++
		} else {
			res.Failed++
		}
	}

	r.logger.Info("digest run completed",
		zap.Int("saved", res.Saved),
		zap.Int("failed", res.Failed))
	return res, ctx.Err()
}
