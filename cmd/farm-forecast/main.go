package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/i474232898/farm-forecast/internal/config"
	"github.com/i474232898/farm-forecast/internal/logging"
	"github.com/i474232898/farm-forecast/internal/weather"
	"github.com/i474232898/farm-forecast/internal/weather/providers"
)

func main() {
	root := &cobra.Command{
		Use:           "farm-forecast",
		Short:         "Weather forecasts and crop advisories for farm dashboards",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newForecastCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// deps are the components shared by every subcommand.
type deps struct {
	cfg      *config.AppConfig
	logger   *zap.Logger
	provider *providers.WeatherAPIProvider
	service  *weather.Service
}

func setup() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.WeatherAPIKey == "" {
		logger.Warn("weather API key not configured; forecast requests will fail",
			zap.Strings("env", config.APIKeyEnvVars))
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.UpstreamTimeout,
	}

	provider := providers.NewWeatherAPIProvider(providers.HTTPClientConfig{
		Client: httpClient,
		Backoff: providers.BackoffConfig{
			MaxRetries:      cfg.UpstreamMaxRetries,
			InitialInterval: cfg.UpstreamRetryBackoff,
			MaxInterval:     5 * cfg.UpstreamRetryBackoff,
		},
		Limiter: rate.NewLimiter(rate.Limit(cfg.UpstreamRPS), cfg.UpstreamBurst),
	}, cfg.WeatherAPIKey)
	provider.SetBaseURL(cfg.WeatherAPIBaseURL)

	return &deps{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		service:  weather.NewService(provider, logger),
	}, nil
}
