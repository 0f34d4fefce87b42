package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/farm-forecast/internal/api/http"
	"github.com/i474232898/farm-forecast/internal/digest"
	"github.com/i474232898/farm-forecast/internal/scheduler"
	"github.com/i474232898/farm-forecast/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the advisory digest scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := setup()
			if err != nil {
				return err
			}
			defer d.logger.Sync() //nolint:errcheck

			return serve(cmd.Context(), d)
		},
	}
}

func serve(parent context.Context, d *deps) error {
	logger := d.logger

	// In-memory digest history with configured retention.
	memStore := store.NewMemoryStore(d.cfg.StoreMaxHistory, d.cfg.StoreMaxAge)

	runner := digest.New(d.service, memStore, d.cfg.DigestLocations, d.cfg.DigestConcurrency, logger)
	sched := scheduler.New(runner, d.cfg.DigestInterval, logger)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.Options{
		Service:  d.service,
		History:  memStore,
		Provider: d.provider,
		Logger:   logger,
	})

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runServer(ctx, app, ":"+d.cfg.Port, logger)
}

// runServer listens on addr until ctx is done or the listener fails.
func runServer(ctx context.Context, app *fiber.App, addr string, logger *zap.Logger) error {
	listenErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			logger.Error("fiber server stopped", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
