package store

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryStale runs fn, retrying with exponential backoff while it fails with
// ErrConflict. fn must reload a fresh snapshot on each attempt; any other
// error aborts immediately.
func RetryStale(fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 25 * time.Millisecond
	policy.MaxElapsedTime = 3 * time.Second

	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrConflict) {
			return err // retryable
		}
		return backoff.Permanent(err)
	}, policy)
}
