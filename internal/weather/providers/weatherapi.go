package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/farm-forecast/internal/weather"
	"github.com/sony/gobreaker"
)

// DefaultWeatherAPIBaseURL is the WeatherAPI.com v1 root.
const DefaultWeatherAPIBaseURL = "https://api.weatherapi.com/v1"

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// Ensure WeatherAPIProvider implements weather.Provider
var _ weather.Provider = (*WeatherAPIProvider)(nil)

func NewWeatherAPIProvider(httpCfg HTTPClientConfig, apiKey string) *WeatherAPIProvider {
	if httpCfg.Client == nil {
		httpCfg.Client = http.DefaultClient
	}
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultWeatherAPIBaseURL,
		httpCfg: httpCfg,
		circuit: gobreaker.NewCircuitBreaker(breakerSettings("weatherapi")),
	}
}

// SetBaseURL points the provider at another host (useful for testing).
func (p *WeatherAPIProvider) SetBaseURL(baseURL string) {
	p.baseURL = strings.TrimRight(baseURL, "/")
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// CircuitState reports the breaker state ("closed", "half-open", "open").
func (p *WeatherAPIProvider) CircuitState() string {
	return p.circuit.State().String()
}

func (p *WeatherAPIProvider) FetchForecast(ctx context.Context, query string) (weather.RawPayload, error) {
	if p.apiKey == "" {
		return weather.RawPayload{}, weather.ErrMissingAPIKey
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", query)
		values.Set("days", strconv.Itoa(weather.MaxForecastDays))
		values.Set("aqi", "no")
		values.Set("alerts", "no")

		u := fmt.Sprintf("%s/forecast.json?%s", p.baseURL, values.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.RawPayload{}, err
	}
	defer resp.Body.Close()

	var payload weather.RawPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.RawPayload{}, fmt.Errorf("failed to parse API response: %w", err)
	}
	return payload, nil
}
