// Package health implements bounded health-check polling. It replaces the
// deploy scripts' fixed sleep-and-grep waits with an explicit timeout and
// interval, so waits are cancellable and testable.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrTimeout means the probe never succeeded within the poll window.
	ErrTimeout = errors.New("health check timed out")

	// ErrCancelled means the surrounding run was interrupted.
	ErrCancelled = errors.New("health check cancelled")
)

// =============================================================================
// Poller
// =============================================================================

// Probe checks one service once. Nil error means healthy.
type Probe func(ctx context.Context) error

// Poller repeatedly invokes a probe until it succeeds or the timeout
// elapses. The timeout is mandatory: a poll never hangs indefinitely on a
// service that never becomes healthy.
type Poller struct {
	Interval time.Duration
	Timeout  time.Duration
}

// DefaultInterval matches the scripts' wait cadence between status checks.
const DefaultInterval = 5 * time.Second

// NewPoller creates a poller. A zero interval falls back to DefaultInterval;
// a zero timeout falls back to one interval (single attempt).
func NewPoller(interval, timeout time.Duration) Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = interval
	}
	return Poller{Interval: interval, Timeout: timeout}
}

// Wait polls until the probe succeeds, the timeout elapses, or ctx is
// cancelled. It probes immediately, then once per interval. Returns the
// number of attempts made along with the result: nil on success, ErrTimeout
// wrapped with the last probe error on timeout, ErrCancelled on cancellation.
func (p Poller) Wait(ctx context.Context, probe Probe) (int, error) {
	deadline := time.Now().Add(p.Timeout)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	attempts := 0
	var lastErr error

	for {
		attempts++
		lastErr = probe(ctx)
		if lastErr == nil {
			return attempts, nil
		}

		if !time.Now().Add(p.Interval).Before(deadline) {
			return attempts, fmt.Errorf("%w after %d attempt(s): %w", ErrTimeout, attempts, lastErr)
		}

		select {
		case <-ctx.Done():
			return attempts, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		case <-ticker.C:
		}
	}
}

// =============================================================================
// HTTP Probe
// =============================================================================

// HTTPProbe returns a probe that GETs url and treats any 2xx response as
// healthy. The client's own timeout bounds each individual request.
func HTTPProbe(client *http.Client, url string) Probe {
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("build health request for %s: %w", url, err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("health request to %s: %w", url, err)
		}
		resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("health endpoint %s returned status %d", url, resp.StatusCode)
		}
		return nil
	}
}
