// Package retry provides the single retry policy used for every external call:
// providers, vector index, and bus publishes all go through Do.
package retry

import (
	"context"
	"errors"
	"strconv"
	"time"

	apperrors "github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
)

// Policy describes exponential backoff with a cap.
// Delay before attempt n (0-based) is BaseDelay * Multiplier^n, capped at MaxDelay.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration

	// OnRetry, when set, is called before each retry attempt. attempt is
	// 1-based: the first retry after a failed initial call is 1.
	OnRetry func(op string, attempt int)
}

// DefaultPolicy matches the service-wide budget for provider calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  200 * time.Millisecond,
		Multiplier: 2.0,
		MaxDelay:   5 * time.Second,
	}
}

// Retryable marks an error as transient so Do will try again.
// Non-retryable errors abort immediately and are returned as-is.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Transient wraps err so the policy treats it as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsTransient reports whether err was marked retryable.
func IsTransient(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// Do runs fn under the policy. Retries happen only for transient errors;
// exhaustion converts to a typed rate-limit error carrying the operation name.
// Context deadline overruns convert to a typed timeout error, never swallowed.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			if p.OnRetry != nil {
				p.OnRetry(op, attempt)
			}
			delay := p.delay(attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctxError(ctx, op)
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxError(ctx, op)
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
	}

	retryAfter := int(p.delay(p.MaxRetries) / time.Second)
	return apperrors.RateLimitedError(op, retryAfter).
		WithDetail("attempts", strconv.Itoa(p.MaxRetries+1)).
		WithDetail("last_error", lastErr.Error())
}

func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 0; i < attempt; i++ {
		d *= p.Multiplier
	}
	if max := float64(p.MaxDelay); d > max {
		d = max
	}
	return time.Duration(d)
}

func ctxError(ctx context.Context, op string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.TimeoutError(op)
	}
	return ctx.Err()
}
