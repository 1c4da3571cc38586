package llm

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// RetryConfig controls the bounded-attempt backoff wrapper.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay is the delay before the first retry; subsequent retries
	// back off exponentially with jitter.
	BaseDelay time.Duration
}

// DefaultRetryConfig returns a RetryConfig with reasonable defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
	}
}

// WithRetry runs op up to cfg.MaxRetries+1 times, backing off exponentially
// with jitter between attempts. Errors for which permanent returns true are
// propagated immediately without further attempts, as is context
// cancellation during a backoff wait. This wrapper covers transient
// call failures only; whole-stage retry is a separate, manual operation
// owned by the orchestrator.
func WithRetry[T any](
	ctx context.Context,
	cfg RetryConfig,
	logger *slog.Logger,
	op func(ctx context.Context) (T, error),
	permanent func(error) bool,
) (T, error) {
	var zero T

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}

	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		logger.WarnContext(ctx, "invalid retry delay value, using default", "base_delay", "2s")
		baseDelay = 2 * time.Second
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if permanent != nil && permanent(err) {
			logger.WarnContext(ctx, "permanent error, not retrying",
				"attempt", attempt+1,
				"error", err)
			return zero, err
		}

		if attempt == maxRetries {
			break
		}

		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoff := float64(baseDelay) * math.Pow(2, float64(attempt))
		jitter := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoff * jitter)

		logger.InfoContext(ctx, "retrying after delay",
			"attempt", attempt+1,
			"delay", delay.String())

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}

	return zero, fmt.Errorf("exceeded maximum retry attempts (%d): %w", maxRetries, lastErr)
}
