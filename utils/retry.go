package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy bounds RetryWithBackoff.
// Retryable decides whether an error is worth another attempt; nil retries everything.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Retryable  func(error) bool
}

// RetryWithBackoff runs fn once plus up to MaxRetries more times with quadratic backoff.
// Non-retryable errors are returned immediately, unwrapped.
func RetryWithBackoff(ctx context.Context, policy RetryPolicy, fn func() error, logger *Logger) error {
	attempts := policy.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * policy.BaseDelay
			logger.Warn("Retrying (attempt %d/%d) after %v...", attempt+1, attempts, backoff)
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}
		err := fn()
		if err == nil {
			return nil
		}
		if policy.Retryable != nil && !policy.Retryable(err) {
			return err
		}
		lastErr = err
		logger.Debug("Attempt %d failed: %v", attempt+1, err)
	}
	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("all %d attempts failed, last error: %w", attempts, lastErr)
}
