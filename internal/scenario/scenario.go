// Package scenario runs single UI scenarios against a fresh automation
// session and maps their errors onto the pass, fail and skip outcomes of
// the go test runner.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jakopako/flowcheck/internal/driver"
	"github.com/jakopako/flowcheck/internal/locator"
	"github.com/jakopako/flowcheck/internal/log"
	"github.com/jakopako/flowcheck/internal/wait"
)

// TB is the part of testing.TB the runner needs.
type TB interface {
	Helper()
	Name() string
	Logf(format string, args ...any)
	Skipf(format string, args ...any)
	Fatalf(format string, args ...any)
}

// SessionManager hands out and takes back automation sessions.
type SessionManager interface {
	Acquire(ctx context.Context) (*driver.Session, error)
	Release(s *driver.Session) error
}

// Func is the body of a scenario.
type Func func(ctx context.Context, s *driver.Session) error

type Verdict string

const (
	Pass Verdict = "pass"
	Fail Verdict = "fail"
	Skip Verdict = "skip"
)

// Result is the recorded outcome of one scenario run.
type Result struct {
	Name     string
	Verdict  Verdict
	Reason   string
	Duration time.Duration
	Snapshot string
}

// A Runner runs scenarios one session each and keeps their results.
type Runner struct {
	Manager SessionManager
	// Timeout bounds a whole scenario. Zero means no bound.
	Timeout time.Duration

	mu      sync.Mutex
	results []Result
}

func NewRunner(m SessionManager, timeout time.Duration) *Runner {
	return &Runner{Manager: m, Timeout: timeout}
}

// Run acquires a session, runs fn with it and reports the outcome to t.
// The session is released exactly once, whatever fn does. On failure a
// snapshot of the page is stored before the session goes away.
func (r *Runner) Run(t TB, fn Func) {
	t.Helper()
	logger := log.LoggerFromContext(context.Background()).With(slog.String("scenario", t.Name()))
	ctx := log.ContextWithLogger(context.Background(), logger)
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	s, err := r.Manager.Acquire(ctx)
	if err != nil {
		r.record(Result{Name: t.Name(), Verdict: Fail, Reason: err.Error(), Duration: time.Since(start)})
		t.Fatalf("%v", err)
		return
	}
	defer func() {
		if err := r.Manager.Release(s); err != nil {
			logger.Warn("releasing session failed", slog.String("error", err.Error()))
		}
	}()
	ctx = s.Context(ctx)

	err = call(ctx, s, fn)
	verdict, reason := Classify(err)
	res := Result{Name: t.Name(), Verdict: verdict, Reason: reason, Duration: time.Since(start)}
	if verdict == Fail || (log.Debug && verdict == Pass) {
		path, serr := s.SaveSnapshot(context.WithoutCancel(ctx), t.Name())
		if serr != nil {
			logger.Warn("storing snapshot failed", slog.String("error", serr.Error()))
		} else {
			res.Snapshot = path
			t.Logf("snapshot stored at %s", path)
		}
	}
	r.record(res)

	switch verdict {
	case Skip:
		t.Skipf("%s", reason)
	case Fail:
		t.Fatalf("%s", reason)
	}
}

func call(ctx context.Context, s *driver.Session, fn Func) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
		}
	}()
	return fn(ctx, s)
}

// Classify maps a scenario error onto its verdict. Missing elements and
// expired waits mean the page under test does not offer the feature, so
// the scenario is skipped. Violated assertions, session failures and any
// other fault fail it.
func Classify(err error) (Verdict, string) {
	if err == nil {
		return Pass, ""
	}
	var av *AssertionViolation
	if errors.As(err, &av) {
		return Fail, err.Error()
	}
	var sce *driver.SessionCreationError
	if errors.As(err, &sce) {
		return Fail, err.Error()
	}
	var se *SkipError
	if errors.As(err, &se) {
		return Skip, err.Error()
	}
	if errors.Is(err, locator.ErrNotFound) || wait.IsTimeout(err) {
		return Skip, err.Error()
	}
	return Fail, err.Error()
}

func (r *Runner) record(res Result) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
}

// Results returns a copy of the results recorded so far.
func (r *Runner) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}
