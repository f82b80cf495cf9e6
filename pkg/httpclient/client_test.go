package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetryClient returns a client with millisecond backoff so retry tests
// do not sleep for real.
func fastRetryClient(maxRetries int) *Client {
	return New(Config{
		Timeout:         5 * time.Second,
		MaxRetries:      maxRetries,
		RetryWaitMin:    1 * time.Millisecond,
		RetryWaitMax:    5 * time.Millisecond,
		MaxConnsPerHost: 10,
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryWaitMin)
	assert.Equal(t, 5*time.Second, cfg.RetryWaitMax)
	assert.Equal(t, 100, cfg.MaxConnsPerHost)
}

func TestGet_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}))
	defer server.Close()

	resp, err := fastRetryClient(0).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "ready")
}

func TestPost_SendsBodyAndContentType(t *testing.T) {
	const payload = `{"image_ref":"550e8400-e29b-41d4-a716-446655440000"}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, payload, string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := fastRetryClient(0).Post(context.Background(), server.URL, "application/json",
		strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDo_Retries5xx(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := fastRetryClient(3).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDo_DoesNotRetry501(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotImplemented)
	}))
	defer server.Close()

	resp, err := fastRetryClient(3).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDo_DoesNotRetry4xx(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	resp, err := fastRetryClient(3).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(Config{
		Timeout:         5 * time.Second,
		MaxRetries:      10,
		RetryWaitMin:    100 * time.Millisecond,
		RetryWaitMax:    500 * time.Millisecond,
		MaxConnsPerHost: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, server.URL)
	require.Error(t, err)
}

func TestGet_InvalidURL(t *testing.T) {
	_, err := fastRetryClient(0).Get(context.Background(), "://invalid")
	require.Error(t, err)
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(context.Canceled))
	// context.DeadlineExceeded implements net.Error, so it counts as a
	// client-side timeout and is retryable.
	assert.True(t, isRetryableError(context.DeadlineExceeded))
}

func TestAddJitter_Distribution(t *testing.T) {
	const base = 1 * time.Second
	const samples = 200

	var minVal, maxVal time.Duration
	var sum time.Duration

	for i := 0; i < samples; i++ {
		d := addJitter(base)
		if i == 0 || d < minVal {
			minVal = d
		}
		if i == 0 || d > maxVal {
			maxVal = d
		}
		sum += d

		assert.GreaterOrEqual(t, d, time.Duration(float64(base)*0.75),
			"jitter value %v is below 75%% of base", d)
		assert.LessOrEqual(t, d, time.Duration(float64(base)*1.25),
			"jitter value %v is above 125%% of base", d)
	}

	// A degenerate RNG would collapse the spread to zero.
	assert.Greater(t, maxVal-minVal, 50*time.Millisecond)

	mean := sum / time.Duration(samples)
	assert.InDelta(t, float64(base), float64(mean), float64(base)*0.1)
}

func TestAddJitter_NonPositiveDurations(t *testing.T) {
	assert.Equal(t, time.Duration(0), addJitter(0))
	assert.Equal(t, -time.Second, addJitter(-time.Second))
}
