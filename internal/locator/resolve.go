package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jakopako/flowcheck/internal/log"
)

// ErrNotFound signals that none of the candidate locators matched. It is not
// a failure by itself: callers decide whether a missing element means skip
// or fail.
var ErrNotFound = errors.New("element not found")

// A Finder finds all elements matching a single locator.
type Finder[E any] interface {
	FindAll(ctx context.Context, loc Locator) ([]E, error)
}

// Resolve tries the candidates in order and returns the matches of the first
// candidate that yields at least one element, together with that candidate.
// Candidates after the winning one are never evaluated. A candidate whose
// lookup fails counts as a non-match. If nothing matches an empty slice and
// a nil error are returned; only context errors are returned as errors.
func Resolve[E any](ctx context.Context, f Finder[E], candidates ...Locator) ([]E, Locator, error) {
	logger := log.LoggerFromContext(ctx)
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, Locator{}, err
		}
		elems, err := f.FindAll(ctx, c)
		if err != nil {
			if ctx.Err() != nil {
				return nil, Locator{}, ctx.Err()
			}
			logger.Debug("locator lookup failed", slog.String("locator", c.String()), slog.String("err", err.Error()))
			continue
		}
		if len(elems) > 0 {
			logger.Debug(fmt.Sprintf("resolved %d element(s)", len(elems)), slog.String("locator", c.String()))
			return elems, c, nil
		}
	}
	return []E{}, Locator{}, nil
}

// First is like Resolve but returns only the first match. If no candidate
// matches the returned error wraps ErrNotFound.
func First[E any](ctx context.Context, f Finder[E], candidates ...Locator) (E, Locator, error) {
	var zero E
	elems, loc, err := Resolve(ctx, f, candidates...)
	if err != nil {
		return zero, loc, err
	}
	if len(elems) == 0 {
		return zero, loc, fmt.Errorf("%w: %s", ErrNotFound, Describe(candidates))
	}
	return elems[0], loc, nil
}
