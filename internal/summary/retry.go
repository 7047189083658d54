package summary

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryRateLimited retries op with exponential backoff while isRateLimit
// reports the error as a 429. Other errors fail immediately.
func retryRateLimited(ctx context.Context, op func() error, isRateLimit func(error) bool) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		err := op()
		if err != nil && !isRateLimit(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}
