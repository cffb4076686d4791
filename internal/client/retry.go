package client

import (
	"context"
	"errors"

	"time"

	retry "github.com/avast/retry-go"
)

// RetryPolicy is an explicit, injectable retry policy: attempt budget,
// backoff schedule and a predicate deciding which errors are retryable.
// The zero value performs no retries.
type RetryPolicy struct {
	MaxAttempts  uint
	InitialDelay time.Duration
	MaxDelay     time.Duration
	RetryIf      func(error) bool
}

// DefaultRetryPolicy retries transport-level failures up to three
// attempts with exponential backoff between 1s and 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		RetryIf:      retryTransportErrors,
	}
}

// NoRetry performs every call exactly once.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// retryTransportErrors retries everything except context cancellation.
// HTTP error statuses never reach the policy: the client returns them as
// values, not errors.
func retryTransportErrors(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Do runs fn under the policy.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	if p.MaxAttempts <= 1 {
		return fn()
	}

	opts := []retry.Option{
		retry.Attempts(p.MaxAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	}
	if p.InitialDelay > 0 {
		opts = append(opts, retry.Delay(p.InitialDelay))
	}
	if p.MaxDelay > 0 {
		opts = append(opts, retry.MaxDelay(p.MaxDelay))
	}
	if p.RetryIf != nil {
		opts = append(opts, retry.RetryIf(p.RetryIf))
	}

	return retry.Do(fn, opts...)
}
