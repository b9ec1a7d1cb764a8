package curation

import (
	"context"
	"time"
)

// retryPolicy consolidates the retry loops that used to be ad hoc
// counters scattered around: max attempts with linear backoff, stopping
// early on context cancellation or when fn signals it is done.
type retryPolicy struct {
	maxAttempts int
	backoff     time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{maxAttempts: 3, backoff: time.Second}
}

// run invokes fn up to maxAttempts times. fn returns done=true to stop
// retrying regardless of error. The last error is returned when all
// attempts are spent.
func (r retryPolicy) run(ctx context.Context, fn func(attempt int) (done bool, err error)) error {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		done, err := fn(attempt)
		if done {
			return err
		}
		lastErr = err

		if attempt < r.maxAttempts && r.backoff > 0 {
			if err := sleepCtx(ctx, r.backoff*time.Duration(attempt)); err != nil {
				return err
			}
		}
	}
	return lastErr
}
