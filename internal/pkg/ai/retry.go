package ai

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

type RetryPolicy struct {
	// Retries is the number of extra attempts after the first one.
	Retries   int
	BaseDelay time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Retries: 1, BaseDelay: 2 * time.Second}
}

// WithRetry runs op, retrying only on rate-limit (429) and unavailable (503)
// replies. The delay doubles after every retry.
func WithRetry[T any](ctx context.Context, p RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	delay := p.BaseDelay
	for attempt := 0; ; attempt++ {
		v, err := op(ctx)
		if err == nil || attempt >= p.Retries || !retryable(err) {
			return v, err
		}

		logrus.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay":   delay.String(),
		}).Warnf("ai call throttled, retrying: %v", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

func retryable(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Temporary()
}
