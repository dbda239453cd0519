package driver

import (
	"context"
	"fmt"

	"github.com/jakopako/flowcheck/internal/locator"
	"github.com/jakopako/flowcheck/internal/wait"
)

// immediate looks up elements without the session's implicit wait, so the
// conditions below poll at the wait primitive only.
type immediate struct {
	s *Session
}

func (i immediate) FindAll(ctx context.Context, loc locator.Locator) ([]Element, error) {
	if err := i.s.check(); err != nil {
		return nil, err
	}
	return i.s.driver.FindAll(ctx, loc)
}

func firstWhere(ctx context.Context, s *Session, candidates []locator.Locator, pred func(context.Context, Element) (bool, error)) (Element, bool, error) {
	elems, _, err := locator.Resolve[Element](ctx, immediate{s}, candidates...)
	if err != nil {
		return nil, false, err
	}
	if len(elems) == 0 {
		return nil, false, fmt.Errorf("%w: %s", locator.ErrNotFound, locator.Describe(candidates))
	}
	var lastErr error
	for _, el := range elems {
		ok, err := pred(ctx, el)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			return el, true, nil
		}
	}
	return nil, false, lastErr
}

// Visible holds once a match of the first matching candidate is visible.
func Visible(candidates ...locator.Locator) wait.Condition[*Session, Element] {
	return func(ctx context.Context, s *Session) (Element, bool, error) {
		return firstWhere(ctx, s, candidates, s.Visible)
	}
}

// Clickable holds once a match of the first matching candidate is visible
// and enabled.
func Clickable(candidates ...locator.Locator) wait.Condition[*Session, Element] {
	return func(ctx context.Context, s *Session) (Element, bool, error) {
		return firstWhere(ctx, s, candidates, func(ctx context.Context, el Element) (bool, error) {
			visible, err := s.Visible(ctx, el)
			if err != nil || !visible {
				return false, err
			}
			return s.Enabled(ctx, el)
		})
	}
}

// URLMatches holds once the current location satisfies match.
func URLMatches(match func(string) bool) wait.Condition[*Session, string] {
	return func(ctx context.Context, s *Session) (string, bool, error) {
		loc, err := s.Location(ctx)
		if err != nil {
			return "", false, err
		}
		return loc, match(loc), nil
	}
}
