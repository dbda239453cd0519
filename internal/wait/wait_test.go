package wait

import (
	"context"
	"errors"
	"testing"
	"time"
)

type counter struct {
	calls   []time.Time
	succeed int
}

func (c *counter) cond(ctx context.Context, _ string) (int, bool, error) {
	c.calls = append(c.calls, time.Now())
	n := len(c.calls)
	if c.succeed > 0 && n >= c.succeed {
		return n, true, nil
	}
	return 0, false, errors.New("not yet")
}

func TestUntilSucceedsOnThirdAttempt(t *testing.T) {
	c := &counter{succeed: 3}
	interval := 20 * time.Millisecond
	v, err := Until(context.Background(), "subject", "third attempt", c.cond, 10*interval, interval)
	if err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if v != 3 {
		t.Fatalf("expected value 3 but got %d", v)
	}
	if len(c.calls) != 3 {
		t.Fatalf("expected 3 evaluations but got %d", len(c.calls))
	}
}

func TestUntilTimesOut(t *testing.T) {
	c := &counter{}
	interval := 20 * time.Millisecond
	timeout := 100 * time.Millisecond
	start := time.Now()
	_, err := Until(context.Background(), "subject", "never", c.cond, timeout, interval)
	elapsed := time.Since(start)

	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected a *TimeoutError but got %v", err)
	}
	if te.Description != "never" || te.Timeout != timeout {
		t.Errorf("unexpected timeout error fields: %+v", te)
	}
	if te.Attempts != len(c.calls) {
		t.Errorf("expected %d attempts but got %d", len(c.calls), te.Attempts)
	}
	if te.LastErr == nil || te.LastErr.Error() != "not yet" {
		t.Errorf("expected last error to be kept, got %v", te.LastErr)
	}
	if elapsed < timeout {
		t.Errorf("returned after %v, before the timeout of %v", elapsed, timeout)
	}
	// generous upper bound, scheduling on busy machines is noisy
	if elapsed > timeout+5*interval {
		t.Errorf("returned after %v, long after the timeout of %v", elapsed, timeout)
	}
	if !IsTimeout(err) {
		t.Errorf("expected IsTimeout to be true")
	}
}

func TestUntilRespectsInterval(t *testing.T) {
	c := &counter{}
	interval := 30 * time.Millisecond
	Until(context.Background(), "subject", "never", c.cond, 150*time.Millisecond, interval)
	if len(c.calls) < 2 {
		t.Fatalf("expected several evaluations but got %d", len(c.calls))
	}
	for i := 1; i < len(c.calls); i++ {
		// allow for timer granularity
		if gap := c.calls[i].Sub(c.calls[i-1]); gap < interval-2*time.Millisecond {
			t.Errorf("evaluations %d and %d were only %v apart", i-1, i, gap)
		}
	}
}

func TestUntilZeroTimeoutEvaluatesOnce(t *testing.T) {
	c := &counter{}
	_, err := Until(context.Background(), "subject", "once", c.cond, 0, time.Millisecond)
	if !IsTimeout(err) {
		t.Fatalf("expected a timeout but got %v", err)
	}
	if len(c.calls) != 1 {
		t.Fatalf("expected 1 evaluation but got %d", len(c.calls))
	}
}

func TestUntilContextCancelled(t *testing.T) {
	c := &counter{}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := Until(ctx, "subject", "never", c.cond, time.Minute, 10*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the context error but got %v", err)
	}
	if IsTimeout(err) {
		t.Fatalf("a cancelled context is not a wait timeout")
	}
}

func TestFor(t *testing.T) {
	start := time.Now()
	if err := For(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("got unexpected error: %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatalf("returned too early")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := For(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled but got %v", err)
	}
}
