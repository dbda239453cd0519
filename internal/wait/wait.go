// Package wait implements the bounded polling used everywhere the harness
// has to wait for the page to reach some state.
package wait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jakopako/flowcheck/internal/log"
)

// DefaultInterval is the poll interval used when a caller passes zero.
const DefaultInterval = 500 * time.Millisecond

// A Condition is evaluated against a subject s until it reports ok. An error
// is treated like a not-yet-satisfied evaluation and is kept for the timeout
// error. The returned value is handed back to the caller of Until.
type Condition[S, T any] func(ctx context.Context, s S) (T, bool, error)

// TimeoutError is returned by Until when the condition did not hold within
// the timeout.
type TimeoutError struct {
	Description string
	Timeout     time.Duration
	Attempts    int
	LastErr     error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %v waiting for %s (%d attempts)", e.Timeout, e.Description, e.Attempts)
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}

// IsTimeout reports whether err is or wraps a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Until evaluates cond immediately and then once per interval until it holds,
// the timeout expires or ctx is done. The condition is never evaluated more
// often than once per interval. A zero or negative timeout evaluates the
// condition exactly once.
func Until[S, T any](ctx context.Context, s S, description string, cond Condition[S, T], timeout, interval time.Duration) (T, error) {
	var zero T
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := log.LoggerFromContext(ctx).With(slog.String("wait", description))

	deadline := time.Now().Add(timeout)
	attempts := 0
	var lastErr error

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		attempts++
		v, ok, err := cond(ctx, s)
		if ok {
			logger.Debug(fmt.Sprintf("condition met after %d attempt(s)", attempts))
			return v, nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return zero, ctxErr
			}
			lastErr = err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			logger.Debug(fmt.Sprintf("condition not met after %d attempt(s)", attempts))
			return zero, &TimeoutError{
				Description: description,
				Timeout:     timeout,
				Attempts:    attempts,
				LastErr:     lastErr,
			}
		}
		// restart the period so a slow evaluation is never followed
		// immediately by the next one
		ticker.Reset(interval)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-ticker.C:
		}
	}
}

// For blocks for d or until ctx is done. It is used for the short settle
// delays after an action whose effect cannot be observed directly.
func For(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
