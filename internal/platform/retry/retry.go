package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const defaultMaxTries = 3

// Do runs op with exponential backoff, retrying transient failures a
// bounded number of times. Wrap domain errors with Permanent so they
// surface immediately instead of being retried.
func Do[T any](ctx context.Context, op func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = time.Second
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(defaultMaxTries),
	)
}

// Permanent marks err as non-retryable for Do.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
