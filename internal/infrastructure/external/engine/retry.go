package engine

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// retryPolicy bounds retries of idempotent engine reads
type retryPolicy struct {
	maxRetries uint64
	initial    time.Duration
	logger     *zap.Logger
}

func (p retryPolicy) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.initial > 0 {
		b.InitialInterval = p.initial
	}
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, p.maxRetries), ctx)
}

// do runs fn until it succeeds, hits a permanent error, or exhausts the budget
func (p retryPolicy) do(ctx context.Context, op string, fn func() error) error {
	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := fn()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, p.newBackOff(ctx), func(err error, wait time.Duration) {
		p.logger.Warn("Retrying engine call",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err))
	})
}

// retryable reports whether a failed call may succeed on a later attempt.
// Client errors other than 408 and 429 are permanent.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusRequestTimeout, se.Code == http.StatusTooManyRequests:
			return true
		case se.Code >= 400 && se.Code < 500:
			return false
		}
	}
	return true
}
