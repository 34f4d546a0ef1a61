package metadata

import (
	"context"
	"imagevault/internal/types"
	"time"
)

const (
	defaultAttempts = 4
	defaultBaseWait = 500 * time.Millisecond
)

// withRetry runs fn up to attempts times, doubling the wait between tries.
// Only transient failures are retried; permanent ones return immediately.
func withRetry(ctx context.Context, attempts int, baseWait time.Duration, fn func() error) error {
	var err error
	wait := baseWait

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			wait *= 2
		}

		err = fn()
		if err == nil {
			return nil
		}
		if !types.IsTransient(err) {
			return err
		}
	}
	return err
}
