package weather

import (
	"context"
)

// Provider abstracts the upstream forecast source (WeatherAPI.com).
type Provider interface {
	Name() string
	// FetchForecast returns the raw multi-day payload for a free-text query.
	// Implementations return *ConfigurationError before any network access
	// when they lack a credential, and *UpstreamError for non-2xx replies.
	FetchForecast(ctx context.Context, query string) (RawPayload, error)
}
