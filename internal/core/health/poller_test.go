package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Poller Tests
// =============================================================================

func TestWait_ImmediateSuccess(t *testing.T) {
	p := NewPoller(10*time.Millisecond, 100*time.Millisecond)

	attempts, err := p.Wait(context.Background(), func(ctx context.Context) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWait_FailThriceThenSucceed(t *testing.T) {
	// Probe fails for 3 polls, succeeds on the 4th. With timeout of at
	// least 4 intervals the service comes up with 4 recorded attempts.
	p := NewPoller(10*time.Millisecond, 100*time.Millisecond)

	calls := 0
	attempts, err := p.Wait(context.Background(), func(ctx context.Context) error {
		calls++
		if calls <= 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, attempts)
	assert.Equal(t, 4, calls)
}

func TestWait_Timeout(t *testing.T) {
	p := NewPoller(10*time.Millisecond, 30*time.Millisecond)

	probeErr := errors.New("connection refused")
	attempts, err := p.Wait(context.Background(), func(ctx context.Context) error {
		return probeErr
	})

	require.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, probeErr)
	assert.GreaterOrEqual(t, attempts, 1)
}

func TestWait_TimeoutIsBounded(t *testing.T) {
	// The run must never hang on a service that never becomes healthy.
	p := NewPoller(5*time.Millisecond, 50*time.Millisecond)

	start := time.Now()
	_, err := p.Wait(context.Background(), func(ctx context.Context) error {
		return errors.New("never healthy")
	})
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestWait_Cancelled(t *testing.T) {
	p := NewPoller(10*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	go func() {
		time.Sleep(25 * time.Millisecond)
		cancel()
	}()

	_, err := p.Wait(ctx, func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("not yet")
	})

	require.ErrorIs(t, err, ErrCancelled)
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestNewPoller_Defaults(t *testing.T) {
	p := NewPoller(0, 0)
	assert.Equal(t, DefaultInterval, p.Interval)
	assert.Equal(t, DefaultInterval, p.Timeout)

	p = NewPoller(2*time.Second, 0)
	assert.Equal(t, 2*time.Second, p.Timeout)
}

// =============================================================================
// HTTP Probe Tests
// =============================================================================

func TestHTTPProbe_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	probe := HTTPProbe(srv.Client(), srv.URL+"/health")
	assert.NoError(t, probe(context.Background()))
}

func TestHTTPProbe_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	probe := HTTPProbe(srv.Client(), srv.URL+"/health")
	err := probe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPProbe_Unreachable(t *testing.T) {
	probe := HTTPProbe(&http.Client{Timeout: 100 * time.Millisecond}, "http://127.0.0.1:1/health")
	assert.Error(t, probe(context.Background()))
}

func TestHTTPProbe_BecomesHealthy(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 4 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewPoller(10*time.Millisecond, 200*time.Millisecond)
	attempts, err := p.Wait(context.Background(), HTTPProbe(srv.Client(), srv.URL))

	require.NoError(t, err)
	assert.Equal(t, 4, attempts)
}
