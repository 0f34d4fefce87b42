package weather

import "fmt"

// ValidationError reports caller input that must be corrected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConfigurationError reports a deployment problem, such as a missing API key.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// UpstreamError reports a failed provider call. StatusCode is zero when the
// provider could not be reached at all.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Weather provider error: %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("Weather provider error: %v", e.Err)
	}
	return "Weather provider error"
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// InternalError wraps an unexpected fault while building a forecast.
type InternalError struct {
	Err error
}

const genericInternalMessage = "failed to build weather forecast"

func (e *InternalError) Error() string {
	if e.Err == nil || e.Err.Error() == "" {
		return genericInternalMessage
	}
	return e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

var errLocationRequired = &ValidationError{Field: "location", Message: "location parameter is required"}

// ErrMissingAPIKey is returned by providers constructed without a credential.
var ErrMissingAPIKey = &ConfigurationError{Message: "weather API key not configured"}
