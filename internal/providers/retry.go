package providers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultMaxRetries = 3

// backoffUnit is the first retry delay; it doubles on each attempt.
var backoffUnit = time.Second

func retryWithBackoff(ctx context.Context, logger *zap.Logger, maxRetries int, fn func() error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		// Only rate limits and 5xx are retried
		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < maxRetries {
			backoff := backoffUnit << uint(attempt)
			logger.Warn("retrying request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
