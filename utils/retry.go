package utils

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryOn runs fn until it succeeds, fails with an error that is not target,
// ctx is done, or attempts run out. Waits grow exponentially from initial.
func RetryOn(ctx context.Context, target error, attempts uint64, initial time.Duration, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		err := fn()
		if err == nil || errors.Is(err, target) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(b, attempts), ctx))
}
