package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Service builds normalized forecasts and advisories from a single provider.
// It keeps no state between calls.
type Service struct {
	provider Provider
	logger   *zap.Logger
	rules    []AdvisoryRule
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithRules replaces the advisory rules applied to every forecast.
func WithRules(rules []AdvisoryRule) ServiceOption {
	return func(s *Service) {
		s.rules = rules
	}
}

// NewService creates a new Service. A nil logger disables logging.
func NewService(provider Provider, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		provider: provider,
		logger:   logger,
		rules:    DefaultRules(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetForecast fetches the 3-day forecast for location and returns it with
// advisory tips. Errors are one of *ValidationError, *ConfigurationError,
// *UpstreamError or *InternalError.
func (s *Service) GetForecast(ctx context.Context, location string) (NormalizedForecast, error) {
	query := strings.TrimSpace(location)
	if query == "" {
		return NormalizedForecast{}, errLocationRequired
	}
	if s.provider == nil {
		return NormalizedForecast{}, ErrMissingAPIKey
	}

	raw, err := s.provider.FetchForecast(ctx, query)
	if err != nil {
		return NormalizedForecast{}, s.classify(query, err)
	}

	forecast, err := s.normalize(raw, query)
	if err != nil {
		s.logger.Error("forecast normalization failed",
			zap.String("location", query),
			zap.Error(err))
		return NormalizedForecast{}, err
	}

	s.logger.Debug("forecast built",
		zap.String("location", forecast.Location),
		zap.Int("days", len(forecast.Forecast)))
	return forecast, nil
}

// ProviderName reports the configured provider, or "none".
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.Name()
}

func (s *Service) normalize(raw RawPayload, query string) (forecast NormalizedForecast, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while normalizing forecast",
				zap.String("location", query),
				zap.Any("panic", r),
				zap.Stack("stack"))
			forecast = NormalizedForecast{}
			err = &InternalError{Err: panicError(r)}
		}
	}()
	return raw.Outlook(query).NormalizeWith(s.rules), nil
}

// panicError keeps the message of error and string panic values. Anything
// else is left to the generic InternalError message.
func panicError(r any) error {
	switch v := r.(type) {
	case error:
		return v
	case string:
		if strings.TrimSpace(v) != "" {
			return errors.New(v)
		}
	}
	return nil
}

// classify keeps typed errors as they are and wraps everything else.
func (s *Service) classify(query string, err error) error {
	var (
		vErr *ValidationError
		cErr *ConfigurationError
		uErr *UpstreamError
		iErr *InternalError
	)
	switch {
	case errors.As(err, &vErr), errors.As(err, &cErr), errors.As(err, &iErr):
		return err
	case errors.As(err, &uErr):
		s.logger.Warn("weather provider call failed",
			zap.String("provider", s.provider.Name()),
			zap.String("location", query),
			zap.Int("status", uErr.StatusCode),
			zap.Error(err))
		return err
	default:
		s.logger.Error("unexpected forecast error",
			zap.String("provider", s.provider.Name()),
			zap.String("location", query),
			zap.Error(err))
		return &InternalError{Err: fmt.Errorf("fetch forecast: %w", err)}
	}
}
