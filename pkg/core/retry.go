package core

import (
	"context"
	"time"
)

// RetryPolicy applies to one page fetch, not to a whole collection.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	Delay       time.Duration // fixed pause between attempts
}

// DefaultRetryPolicy is three attempts one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: time.Second}
}

// WaitFunc pauses between attempts. It must return early with ctx.Err()
// when ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// sleepContext waits d without holding anything other goroutines need.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
