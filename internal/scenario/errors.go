package scenario

import (
	"errors"
	"fmt"
)

// SkipError marks a scenario whose precondition does not hold on the
// application under test.
type SkipError struct {
	Reason string
	// Err is the error the skip was derived from, if any.
	Err error
}

func (e *SkipError) Error() string {
	return "skipped: " + e.Reason
}

func (e *SkipError) Unwrap() error {
	return e.Err
}

// Skipf returns a *SkipError with the formatted reason.
func Skipf(format string, args ...any) error {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}

// AssertionViolation is returned when the application answered but not in
// the expected way.
type AssertionViolation struct {
	Message string
}

func (e *AssertionViolation) Error() string {
	return "assertion violated: " + e.Message
}

// Expect returns nil if cond holds and an *AssertionViolation carrying the
// formatted message otherwise.
func Expect(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	return &AssertionViolation{Message: fmt.Sprintf(format, args...)}
}

// Equal expects got to be want.
func Equal[T comparable](what string, got, want T) error {
	return Expect(got == want, "%s: got %v, want %v", what, got, want)
}

// Unless turns a failed optional lookup into a skip. found is the result of
// a presence check like flow.Flows.Present.
func Unless(found bool, err error, format string, args ...any) error {
	if err != nil {
		return err
	}
	if !found {
		return Skipf(format, args...)
	}
	return nil
}

// Precondition turns err into a skip when it matches one of targets, so a
// scenario whose setup step is refused by the application is skipped. Any
// other error, a broken session for instance, is returned unchanged.
func Precondition(what string, err error, targets ...error) error {
	if err == nil {
		return nil
	}
	for _, target := range targets {
		if errors.Is(err, target) {
			return &SkipError{Reason: fmt.Sprintf("precondition %s: %v", what, err), Err: err}
		}
	}
	return err
}
