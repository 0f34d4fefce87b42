package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/i474232898/farm-forecast/internal/weather"
)

const okBody = `{"location": {"name": "Lahore", "region": "Punjab"},
"current": {"temp_c": 30, "uv": 9},
"forecast": {"forecastday": [{"day": {"maxtemp_c": 31, "mintemp_c": 20}}]}}`

func newTestProvider(t *testing.T, handler http.HandlerFunc, backoff BackoffConfig) (*WeatherAPIProvider, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	p := NewWeatherAPIProvider(HTTPClientConfig{
		Client:  &http.Client{Timeout: 2 * time.Second},
		Backoff: backoff,
	}, "test-key")
	p.SetBaseURL(srv.URL + "/v1/")
	return p, &hits
}

func TestNewWeatherAPIProvider(t *testing.T) {
	p := NewWeatherAPIProvider(HTTPClientConfig{}, "  k  ")

	assert.Equal(t, "weatherapi", p.Name())
	assert.Equal(t, "k", p.apiKey)
	assert.Equal(t, DefaultWeatherAPIBaseURL, p.baseURL)
	assert.NotNil(t, p.httpCfg.Client)
	assert.Equal(t, "closed", p.CircuitState())
}

func TestFetchForecast_RequestShape(t *testing.T) {
	p, hits := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/forecast.json", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "Rahim Yar Khan", q.Get("q"))
		assert.Equal(t, "3", q.Get("days"))
		assert.Equal(t, "no", q.Get("aqi"))
		assert.Equal(t, "no", q.Get("alerts"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, okBody)
	}, BackoffConfig{})

	payload, err := p.FetchForecast(context.Background(), "Rahim Yar Khan")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))

	require.NotNil(t, payload.Location)
	assert.Equal(t, "Lahore", *payload.Location.Name)
	assert.Equal(t, 9.0, payload.Current.UV.Value)
	assert.Len(t, payload.Forecast.ForecastDay, 1)
}

func TestFetchForecast_MissingKeySkipsRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(HTTPClientConfig{Client: srv.Client()}, "")
	p.SetBaseURL(srv.URL)

	_, err := p.FetchForecast(context.Background(), "Lahore")

	var cErr *weather.ConfigurationError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, "weather API key not configured", err.Error())
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestFetchForecast_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		status int
		body   string
	}{
		{http.StatusServiceUnavailable, "maintenance"},
		{http.StatusBadRequest, `{"error":{"code":1006,"message":"No matching location found."}}`},
		{http.StatusUnauthorized, `{"error":{"code":2006,"message":"API key is invalid."}}`},
		{http.StatusTooManyRequests, "slow down"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			p, hits := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}, BackoffConfig{})

			_, err := p.FetchForecast(context.Background(), "Lahore")

			var uErr *weather.UpstreamError
			require.ErrorAs(t, err, &uErr)
			assert.Equal(t, tt.status, uErr.StatusCode)
			assert.Equal(t, tt.body, uErr.Body)
			assert.Equal(t, fmt.Sprintf("Weather provider error: %d", tt.status), err.Error())
			assert.Equal(t, int32(1), atomic.LoadInt32(hits), "single attempt by default")
		})
	}
}

func TestFetchForecast_RetriesTransientFailures(t *testing.T) {
	var calls int32
	p, hits := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, okBody)
	}, BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond})

	_, err := p.FetchForecast(context.Background(), "Lahore")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
}

func TestFetchForecast_DoesNotRetryClientErrors(t *testing.T) {
	p, hits := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}, BackoffConfig{MaxRetries: 3, InitialInterval: time.Millisecond})

	_, err := p.FetchForecast(context.Background(), "Lahore")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestFetchForecast_RetriesExhausted(t *testing.T) {
	p, hits := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond})

	_, err := p.FetchForecast(context.Background(), "Lahore")

	var uErr *weather.UpstreamError
	require.ErrorAs(t, err, &uErr)
	assert.Equal(t, http.StatusServiceUnavailable, uErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
}

func TestFetchForecast_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewWeatherAPIProvider(HTTPClientConfig{Client: &http.Client{Timeout: 50 * time.Millisecond}}, "k")
	p.SetBaseURL(srv.URL)

	start := time.Now()
	_, err := p.FetchForecast(context.Background(), "Lahore")

	var uErr *weather.UpstreamError
	require.ErrorAs(t, err, &uErr)
	assert.Zero(t, uErr.StatusCode)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchForecast_CanceledContext(t *testing.T) {
	p, hits := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, okBody)
	}, BackoffConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.FetchForecast(ctx, "Lahore")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestFetchForecast_MalformedBody(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"location": `)
	}, BackoffConfig{})

	_, err := p.FetchForecast(context.Background(), "Lahore")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse API response")

	var uErr *weather.UpstreamError
	assert.False(t, errors.As(err, &uErr))
}

func TestFetchForecast_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	p, hits := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, BackoffConfig{})

	// gobreaker's default policy trips after more than 5 consecutive failures.
	for i := 0; i < 6; i++ {
		_, err := p.FetchForecast(context.Background(), "Lahore")
		require.Error(t, err)
	}
	assert.Equal(t, "open", p.CircuitState())

	_, err := p.FetchForecast(context.Background(), "Lahore")
	var uErr *weather.UpstreamError
	require.ErrorAs(t, err, &uErr)
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, int32(6), atomic.LoadInt32(hits), "open circuit must not reach the provider")
}

func TestFetchForecast_RateLimiterWaitsOnContext(t *testing.T) {
	p, hits := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, okBody)
	}, BackoffConfig{})
	// One token, refilled once per hour.
	p.httpCfg.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	_, err := p.FetchForecast(context.Background(), "Lahore")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.FetchForecast(ctx, "Lahore")

	var uErr *weather.UpstreamError
	require.ErrorAs(t, err, &uErr)
	assert.Contains(t, err.Error(), "rate limit wait canceled")
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestDoRequestWithResilience_InvalidConfig(t *testing.T) {
	p := NewWeatherAPIProvider(HTTPClientConfig{}, "k")
	build := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, "http://127.0.0.1", nil)
	}

	_, err := doRequestWithResilience(context.Background(), HTTPClientConfig{}, p.circuit, build)
	assert.ErrorIs(t, err, errNoHTTPClient)

	_, err = doRequestWithResilience(context.Background(),
		HTTPClientConfig{Client: http.DefaultClient, Backoff: BackoffConfig{MaxRetries: 1}}, p.circuit, build)
	assert.ErrorIs(t, err, errInvalidConfig)
}
