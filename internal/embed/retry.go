package embed

import (
	"context"
	"time"
)

// RetryConfig configures exponential-backoff retry for transient
// provider failures (§4.F "on transient failure retry with exponential
// backoff up to max_retries"). Directly grounded on the teacher's
// RetryConfig (internal/embed/retry.go).
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig mirrors the teacher's default download-retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     16 * time.Second,
		Multiplier:   2.0,
	}
}

// withRetry runs fn, retrying on error up to cfg.MaxRetries times with
// exponential backoff, honoring ctx cancellation. shouldRetry decides
// whether a given error is worth retrying (a DimensionMismatch, e.g.,
// never is).
func withRetry(ctx context.Context, cfg RetryConfig, shouldRetry func(error) bool, fn func() error) error {
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !shouldRetry(err) || attempt >= cfg.MaxRetries {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return lastErr
}
