// health.go implements the advisory HTTP health probe against the
// supervised service. The schedule mirrors the descriptor's health check:
// GET /health every 30s with a 10s timeout, 3 retries, and a 40s grace
// period during which failures don't count against the retry budget
// (first-time starts pull a multi-GB image and boot slowly).
//
// The probe is advisory only: it determines readiness, never whether the
// start itself succeeded.
package supervisor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/agent0ai/a0ctl/internal/config"
)

// Default probe schedule, matching the descriptor's healthcheck block.
const (
	defaultHealthInterval    = 30 * time.Second
	defaultHealthTimeout     = 10 * time.Second
	defaultHealthRetries     = 3
	defaultHealthStartPeriod = 40 * time.Second
)

// HealthChecker probes the service's /health endpoint over HTTP.
// The zero value is not usable; use NewHealthChecker. Fields are exported
// so tests can tighten the schedule.
type HealthChecker struct {
	// URL is the probed endpoint.
	URL string

	// Interval is the pause between probe attempts.
	Interval time.Duration

	// Timeout bounds a single probe request.
	Timeout time.Duration

	// Retries is how many failures after the grace period give up.
	Retries int

	// StartPeriod is the grace window during which failures don't count.
	StartPeriod time.Duration

	// Client is the HTTP client used for probes.
	Client *http.Client
}

// NewHealthChecker builds a checker for the configured web UI port with
// the default schedule.
func NewHealthChecker(cfg config.ServiceConfig) *HealthChecker {
	return &HealthChecker{
		URL:         fmt.Sprintf("http://127.0.0.1:%d/health", cfg.HTTPPort),
		Interval:    defaultHealthInterval,
		Timeout:     defaultHealthTimeout,
		Retries:     defaultHealthRetries,
		StartPeriod: defaultHealthStartPeriod,
		Client:      &http.Client{},
	}
}

// Check performs a single probe. Any HTTP response below 500 counts as
// alive; connection errors and server errors do not.
func (h *HealthChecker) Check(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, h.URL, nil)
	if err != nil {
		return fmt.Errorf("building health probe request: %w", err)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return fmt.Errorf("health probe failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("health probe returned %s", resp.Status)
	}
	return nil
}

// WaitReady probes until the first success. During the grace period
// failures are free; after it, each failure consumes one retry. Returns
// nil on success, the last probe error when retries run out, or ctx.Err()
// on cancellation.
func (h *HealthChecker) WaitReady(ctx context.Context) error {
	start := time.Now()
	failures := 0

	for {
		err := h.Check(ctx)
		if err == nil {
			return nil
		}

		if time.Since(start) >= h.StartPeriod {
			failures++
			if failures >= h.Retries {
				return fmt.Errorf("service not ready after %d probes: %w", failures, err)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.Interval):
		}
	}
}
