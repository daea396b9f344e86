package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func TestRetryWithBackoffSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), RetryPolicy{MaxRetries: 2}, func() error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	}, NewNopLogger())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffGivesUp(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), RetryPolicy{MaxRetries: 1}, func() error {
		calls++
		return errFlaky
	}, NewNopLogger())

	require.Error(t, err)
	assert.ErrorIs(t, err, errFlaky)
	assert.Contains(t, err.Error(), "all 2 attempts failed")
	assert.Equal(t, 2, calls)
}

func TestRetryWithBackoffStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("element not found")
	calls := 0
	policy := RetryPolicy{
		MaxRetries: 5,
		Retryable:  func(err error) bool { return errors.Is(err, errFlaky) },
	}
	err := RetryWithBackoff(context.Background(), policy, func() error {
		calls++
		return permanent
	}, NewNopLogger())

	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoffSingleAttemptReturnsRawError(t *testing.T) {
	err := RetryWithBackoff(context.Background(), RetryPolicy{}, func() error {
		return errFlaky
	}, NewNopLogger())

	assert.Same(t, errFlaky, err)
}

func TestRetryWithBackoffHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryWithBackoff(ctx, RetryPolicy{MaxRetries: 3, BaseDelay: time.Hour}, func() error {
		calls++
		cancel()
		return errFlaky
	}, NewNopLogger())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0)
	start := time.Now()
	for i := 0; i < 50; i++ {
		require.NoError(t, rl.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestRateLimiterSpacesRequests(t *testing.T) {
	rl := NewRateLimiter(30 * time.Millisecond)
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(context.Background()))
	}
	// first token is immediate, the next two wait one interval each
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiterCancelled(t *testing.T) {
	rl := NewRateLimiter(time.Hour)
	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, rl.Wait(ctx))
}

func TestURLTracker(t *testing.T) {
	tr := NewURLTracker()

	first, isNew := tr.Add("https://example.org/a?projectId=1", 0)
	assert.True(t, isNew)
	assert.Equal(t, 0, first)

	_, isNew = tr.Add("https://example.org/b?projectId=2", 1)
	assert.True(t, isNew)

	first, isNew = tr.Add(" https://example.org/a?projectId=1 ", 2)
	assert.False(t, isNew)
	assert.Equal(t, 0, first)

	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, 1, tr.Duplicates())
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("loud", "console")
	assert.Error(t, err)

	l, err := NewLogger("debug", "json")
	require.NoError(t, err)
	l.With("step", "navigate").Debug("visiting %s", "https://example.org")
}
