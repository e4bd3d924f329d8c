package clients

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/verse-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/verse-service/internal/platform/config"
)

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:     baseURL,
		ServiceName: "content-cdn",
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			Multiplier:      2,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
	}
}

func newTestClient(t *testing.T, cfg *Config) *Client {
	t.Helper()

	c, err := New(cfg)
	require.NoError(t, err)

	return c
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()

	if err := resp.Body.Close(); err != nil {
		t.Errorf("closing response body: %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "config is required")

	cfg := testConfig("https://example.com")
	cfg.ServiceName = ""

	_, err = New(cfg)
	require.ErrorContains(t, err, "service name is required")
}

func TestClient_BuildURL(t *testing.T) {
	c := newTestClient(t, testConfig("https://cdn.example.com/"))

	assert.Equal(t, "https://cdn.example.com", c.BaseURL())
	assert.Equal(t, "https://cdn.example.com/data/content.json", c.buildURL("/data/content.json"))
	assert.Equal(t, "https://cdn.example.com/data/content.json", c.buildURL("data/content.json"))
}

func TestClient_PropagatesIDs(t *testing.T) {
	var requestID, correlationID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get(middleware.HeaderRequestID)
		correlationID = r.Header.Get(middleware.HeaderCorrelationID)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx := middleware.ContextWithRequestID(context.Background(), "req-1")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-1")

	resp, err := newTestClient(t, testConfig(server.URL)).Get(ctx, "/content.json")
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, "req-1", requestID)
	assert.Equal(t, "corr-1", correlationID)
}

func TestClient_Retry(t *testing.T) {
	tests := []struct {
		name         string
		failures     int32
		failStatus   int
		maxAttempts  int
		wantErr      error
		wantStatus   int
		wantAttempts int32
	}{
		{name: "recovers after server errors", failures: 2, failStatus: http.StatusBadGateway, maxAttempts: 3, wantStatus: http.StatusOK, wantAttempts: 3},
		{name: "gives up after max attempts", failures: 10, failStatus: http.StatusServiceUnavailable, maxAttempts: 3, wantErr: ErrMaxRetriesExceeded, wantAttempts: 3},
		{name: "client errors are not retried", failures: 10, failStatus: http.StatusNotFound, maxAttempts: 3, wantStatus: http.StatusNotFound, wantAttempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if atomic.AddInt32(&attempts, 1) <= tt.failures {
					w.WriteHeader(tt.failStatus)
					return
				}

				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := testConfig(server.URL)
			cfg.Retry.MaxAttempts = tt.maxAttempts

			resp, err := newTestClient(t, cfg).Get(context.Background(), "/content.json")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				defer closeBody(t, resp)
				assert.Equal(t, tt.wantStatus, resp.StatusCode)
			}

			assert.Equal(t, tt.wantAttempts, atomic.LoadInt32(&attempts))
		})
	}
}

func TestClient_CircuitOpensAndShortCircuits(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Retry.MaxAttempts = 1
	cfg.Circuit.MaxFailures = 2

	c := newTestClient(t, cfg)

	_, err := c.Get(context.Background(), "/")
	require.Error(t, err)
	assert.Equal(t, StateClosed, c.State())

	_, err = c.Get(context.Background(), "/")
	require.Error(t, err)
	assert.Equal(t, StateOpen, c.State())

	before := atomic.LoadInt32(&calls)

	_, err = c.Get(context.Background(), "/")
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, before, atomic.LoadInt32(&calls))
}

func TestClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, testConfig(server.URL)).Get(ctx, "/")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMaxRetriesExceeded)
}

func TestClient_Backoff(t *testing.T) {
	cfg := testConfig("https://example.com")
	cfg.Retry.InitialInterval = 100 * time.Millisecond
	cfg.Retry.MaxInterval = time.Second
	cfg.Retry.JitterFactor = 0.1

	c := newTestClient(t, cfg)

	assert.InDelta(t, float64(200*time.Millisecond), float64(c.backoff(1)), float64(20*time.Millisecond))
	assert.InDelta(t, float64(400*time.Millisecond), float64(c.backoff(2)), float64(40*time.Millisecond))
	assert.LessOrEqual(t, c.backoff(10), time.Second+100*time.Millisecond)
}

type fakeNetError struct{ timeout bool }

func (e fakeNetError) Error() string   { return "fake net error" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"timeout", fakeNetError{timeout: true}, true},
		{"non-timeout net error", fakeNetError{}, false},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}
