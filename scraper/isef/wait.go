package isef

import (
	"context"
	"fmt"
	"time"
)

// Condition is an observable predicate over the live document
type Condition struct {
	Desc  string
	Check func(ctx context.Context) (bool, error)
}

// ElementPresent holds once selector matches at least one element
func ElementPresent(d Driver, selector string) Condition {
	return Condition{
		Desc: fmt.Sprintf("element %s present", selector),
		Check: func(ctx context.Context) (bool, error) {
			n, err := d.Count(ctx, selector)
			return n > 0, err
		},
	}
}

// CountAbove holds once selector matches more than n elements
func CountAbove(d Driver, selector string, n int) Condition {
	return Condition{
		Desc: fmt.Sprintf("more than %d elements match %s", n, selector),
		Check: func(ctx context.Context) (bool, error) {
			got, err := d.Count(ctx, selector)
			return got > n, err
		},
	}
}

// poll evaluates cond every interval until it holds, ctx ends or timeout elapses.
// Errors from Check are treated as "not yet": the document may be mid-render.
func poll(ctx context.Context, cond Condition, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		ok, err := cond.Check(ctx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}
		if !time.Now().Before(deadline) {
			if lastErr != nil {
				return fmt.Errorf("%w after %v: %s (last error: %v)", ErrTimeout, timeout, cond.Desc, lastErr)
			}
			return fmt.Errorf("%w after %v: %s", ErrTimeout, timeout, cond.Desc)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", cond.Desc, ctx.Err())
		case <-ticker.C:
		}
	}
}

// settle pauses for d unless ctx ends first
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
