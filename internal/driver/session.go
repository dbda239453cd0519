package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jakopako/flowcheck/internal/locator"
	"github.com/jakopako/flowcheck/internal/log"
	"github.com/jakopako/flowcheck/internal/utils"
	"github.com/jakopako/flowcheck/internal/wait"
)

// A Session is one automation session owned by exactly one scenario. It
// must not be shared between goroutines.
type Session struct {
	ID string

	driver       Driver
	implicitWait time.Duration
	pollInterval time.Duration
	artifactDir  string

	closeOnce sync.Once
	closeErr  error
	released  bool
	mu        sync.Mutex
}

// NewSession wraps d into a session using the waits and artifact directory
// of cfg.
func NewSession(d Driver, cfg Config) *Session {
	id := uuid.NewString()
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = wait.DefaultInterval
	}
	return &Session{
		ID:           id,
		driver:       d,
		implicitWait: cfg.ImplicitWait,
		pollInterval: pollInterval,
		artifactDir:  cfg.ArtifactDir,
	}
}

// Context returns ctx carrying the session's logger.
func (s *Session) Context(ctx context.Context) context.Context {
	logger := log.LoggerFromContext(ctx).With(slog.String("session", s.ID[:8]))
	return log.ContextWithLogger(ctx, logger)
}

func (s *Session) PollInterval() time.Duration {
	return s.pollInterval
}

func (s *Session) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrSessionReleased
	}
	return nil
}

// close closes the underlying driver. Only the first call has an effect.
func (s *Session) close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.released = true
		s.mu.Unlock()
		s.closeErr = s.driver.Close()
	})
	return s.closeErr
}

// Released reports whether the session has been released.
func (s *Session) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.check(); err != nil {
		return err
	}
	log.LoggerFromContext(ctx).Debug("navigating", slog.String("url", url))
	if err := s.driver.Navigate(ctx, url); err != nil {
		return fmt.Errorf("error navigating to %s: %w", url, err)
	}
	return nil
}

func (s *Session) Location(ctx context.Context) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	return s.driver.Location(ctx)
}

// FindAll returns the elements matching loc. With an implicit wait
// configured it waits up to that long for a first match; an empty result
// is never an error.
func (s *Session) FindAll(ctx context.Context, loc locator.Locator) ([]Element, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if s.implicitWait <= 0 {
		return s.driver.FindAll(ctx, loc)
	}
	elems, err := wait.Until(ctx, loc, loc.String(), func(ctx context.Context, loc locator.Locator) ([]Element, bool, error) {
		elems, err := s.driver.FindAll(ctx, loc)
		return elems, len(elems) > 0, err
	}, s.implicitWait, s.pollInterval)
	var te *wait.TimeoutError
	if errors.As(err, &te) {
		return []Element{}, te.LastErr
	}
	return elems, err
}

// Resolve resolves the candidates in order, see locator.Resolve.
func (s *Session) Resolve(ctx context.Context, candidates ...locator.Locator) ([]Element, locator.Locator, error) {
	return locator.Resolve[Element](ctx, s, candidates...)
}

// First returns the first match of the first matching candidate or an
// error wrapping locator.ErrNotFound.
func (s *Session) First(ctx context.Context, candidates ...locator.Locator) (Element, error) {
	el, _, err := locator.First[Element](ctx, s, candidates...)
	return el, err
}

func (s *Session) Click(ctx context.Context, el Element) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.driver.Click(ctx, el)
}

func (s *Session) Type(ctx context.Context, el Element, text string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.driver.Type(ctx, el, text)
}

// Fill clears el and types text into it.
func (s *Session) Fill(ctx context.Context, el Element, text string) error {
	if err := s.Clear(ctx, el); err != nil {
		return err
	}
	return s.Type(ctx, el, text)
}

func (s *Session) Clear(ctx context.Context, el Element) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.driver.Clear(ctx, el)
}

func (s *Session) Value(ctx context.Context, el Element) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	return s.driver.Value(ctx, el)
}

func (s *Session) Attribute(ctx context.Context, el Element, name string) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	return s.driver.Attribute(ctx, el, name)
}

func (s *Session) Text(ctx context.Context, el Element) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	return s.driver.Text(ctx, el)
}

func (s *Session) Visible(ctx context.Context, el Element) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	return s.driver.Visible(ctx, el)
}

func (s *Session) Enabled(ctx context.Context, el Element) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	return s.driver.Enabled(ctx, el)
}

func (s *Session) Snapshot(ctx context.Context) (Artifact, error) {
	if err := s.check(); err != nil {
		return Artifact{}, err
	}
	return s.driver.Snapshot(ctx)
}

// SaveSnapshot stores a snapshot of the current page in the artifact
// directory and returns the file path.
func (s *Session) SaveSnapshot(ctx context.Context, name string) (string, error) {
	a, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	if s.artifactDir != "" {
		if err := os.MkdirAll(s.artifactDir, os.ModePerm); err != nil {
			return "", fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}
	filename := filepath.Join(s.artifactDir, fmt.Sprintf("%s_%s.%s", utils.SafeFilename(name), time.Now().Format("20060102_150405"), a.Ext))
	log.LoggerFromContext(ctx).Debug(fmt.Sprintf("writing snapshot to file %s", filename))
	if err := os.WriteFile(filename, a.Data, 0644); err != nil {
		return "", err
	}
	return filename, nil
}

// WaitVisible waits until one of the matches of the first matching
// candidate is visible and returns it.
func (s *Session) WaitVisible(ctx context.Context, timeout time.Duration, candidates ...locator.Locator) (Element, error) {
	return wait.Until(ctx, s, "visible "+locator.Describe(candidates), Visible(candidates...), timeout, s.pollInterval)
}

// WaitClickable waits until one of the matches of the first matching
// candidate is visible and enabled and returns it.
func (s *Session) WaitClickable(ctx context.Context, timeout time.Duration, candidates ...locator.Locator) (Element, error) {
	return wait.Until(ctx, s, "clickable "+locator.Describe(candidates), Clickable(candidates...), timeout, s.pollInterval)
}

// WaitURL waits until the current location satisfies match and returns it.
func (s *Session) WaitURL(ctx context.Context, timeout time.Duration, description string, match func(string) bool) (string, error) {
	return wait.Until(ctx, s, "location "+description, URLMatches(match), timeout, s.pollInterval)
}
