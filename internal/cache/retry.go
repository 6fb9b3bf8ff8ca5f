package cache

import (
	"context"
	"time"
)

// RetryPolicy bounds fetch attempts against the backend. A zero policy
// performs a single attempt with no delay.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Delay is the fixed pause between attempts.
	Delay time.Duration
	// ShouldRetry filters which errors are worth another attempt.
	// Nil retries every error.
	ShouldRetry func(error) bool
}

func (p RetryPolicy) run(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if p.ShouldRetry != nil && !p.ShouldRetry(err) {
			break
		}
		if i+1 == attempts {
			break
		}
		if p.Delay > 0 {
			timer := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return nil, lastErr
}
