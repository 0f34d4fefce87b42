package weather

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	payload RawPayload
	err     error
	calls   int
	query   string
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) FetchForecast(_ context.Context, query string) (RawPayload, error) {
	p.calls++
	p.query = query
	return p.payload, p.err
}

func TestService_GetForecast_RequiresLocation(t *testing.T) {
	for _, loc := range []string{"", "   ", "\t\n"} {
		p := &fakeProvider{}
		svc := NewService(p, nil)

		_, err := svc.GetForecast(context.Background(), loc)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "location parameter is required", vErr.Error())
		assert.Equal(t, 0, p.calls, "no outbound call for %q", loc)
	}
}

func TestService_GetForecast_NoProvider(t *testing.T) {
	svc := NewService(nil, nil)

	_, err := svc.GetForecast(context.Background(), "Lahore")

	var cErr *ConfigurationError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, "weather API key not configured", err.Error())
	assert.Equal(t, "none", svc.ProviderName())
}

func TestService_GetForecast_Success(t *testing.T) {
	p := &fakeProvider{payload: decode(t, lahorePayload)}
	svc := NewService(p, nil)

	got, err := svc.GetForecast(context.Background(), "  Lahore ")
	require.NoError(t, err)

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "Lahore", p.query)
	assert.Equal(t, "Lahore, Punjab", got.Location)
	assert.Len(t, got.Forecast, 3)
	assert.NotEmpty(t, got.Tips)
}

func TestService_GetForecast_ErrorClassification(t *testing.T) {
	upstream := &UpstreamError{StatusCode: 503}
	tests := []struct {
		name   string
		err    error
		assert func(t *testing.T, err error)
	}{
		{
			name: "upstream passes through",
			err:  upstream,
			assert: func(t *testing.T, err error) {
				assert.Same(t, upstream, err)
				assert.Contains(t, err.Error(), "503")
			},
		},
		{
			name: "configuration passes through",
			err:  ErrMissingAPIKey,
			assert: func(t *testing.T, err error) {
				var cErr *ConfigurationError
				assert.ErrorAs(t, err, &cErr)
			},
		},
		{
			name: "unknown error becomes internal",
			err:  errors.New("failed to parse API response: unexpected EOF"),
			assert: func(t *testing.T, err error) {
				var iErr *InternalError
				require.ErrorAs(t, err, &iErr)
				assert.Contains(t, err.Error(), "unexpected EOF")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&fakeProvider{err: tt.err}, nil)
			_, err := svc.GetForecast(context.Background(), "Lahore")
			require.Error(t, err)
			tt.assert(t, err)
		})
	}
}

func TestService_GetForecast_RecoversFromPanic(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string value", "rule exploded", "rule exploded"},
		{"error value", errors.New("index out of range"), "index out of range"},
		{"empty string", "", genericInternalMessage},
		{"other value", 42, genericInternalMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := []AdvisoryRule{{
				Name:    "boom",
				Applies: func(Outlook) bool { panic(tt.value) },
			}}
			svc := NewService(&fakeProvider{}, nil, WithRules(rules))
			_, err := svc.GetForecast(context.Background(), "Lahore")

			var iErr *InternalError
			require.ErrorAs(t, err, &iErr)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestService_WithRulesDoesNotAffectOtherServices(t *testing.T) {
	custom := NewService(&fakeProvider{}, nil, WithRules([]AdvisoryRule{{
		Name:    "always",
		Applies: func(Outlook) bool { return true },
		Message: "custom advice",
	}}))
	plain := NewService(&fakeProvider{}, nil)

	got, err := custom.GetForecast(context.Background(), "Lahore")
	require.NoError(t, err)
	assert.Equal(t, "custom advice", got.Tips)

	got, err = plain.GetForecast(context.Background(), "Lahore")
	require.NoError(t, err)
	assert.NotEqual(t, "custom advice", got.Tips)
	assert.Len(t, DefaultRules(), 5)
}

func TestUpstreamError_Message(t *testing.T) {
	assert.Equal(t, "Weather provider error: 503", (&UpstreamError{StatusCode: 503}).Error())
	assert.Equal(t, "Weather provider error: dial tcp: refused", (&UpstreamError{Err: errors.New("dial tcp: refused")}).Error())

	inner := context.DeadlineExceeded
	assert.ErrorIs(t, &UpstreamError{Err: inner}, context.DeadlineExceeded)
}
