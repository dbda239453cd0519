// Package flow composes the session primitives into the user journeys of
// the clinic application: signing in, searching doctors, booking and
// managing appointments and editing the profile.
//
// Flows never retry. A missing element surfaces as an error wrapping
// locator.ErrNotFound or as a *wait.TimeoutError and it is up to the
// caller to decide what that means.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jakopako/flowcheck/internal/driver"
	"github.com/jakopako/flowcheck/internal/locator"
	"github.com/jakopako/flowcheck/internal/log"
	"github.com/jakopako/flowcheck/internal/wait"
)

// Credential is an account of the application under test.
type Credential struct {
	Email     string `yaml:"email" env:"FLOWCHECK_EMAIL" env-default:"test@example.com"`
	Password  string `yaml:"password" env:"FLOWCHECK_PASSWORD" env-default:"TestPassword123!"`
	FirstName string `yaml:"first_name" env-default:"Test"`
	LastName  string `yaml:"last_name" env-default:"User"`
}

// DefaultAccount is the fixed test account expected to exist in the
// application under test.
var DefaultAccount = Credential{
	Email:     "test@example.com",
	Password:  "TestPassword123!",
	FirstName: "Test",
	LastName:  "User",
}

type Status int

const (
	Success Status = iota
	Failure
)

func (s Status) String() string {
	if s == Success {
		return "success"
	}
	return "failure"
}

// Outcome is the observable result of a flow whose failure is a legitimate
// application response, eg. rejected credentials, rather than an error.
type Outcome struct {
	Status   Status
	Reason   string
	Location string
}

func (o Outcome) String() string {
	if o.Reason == "" {
		return o.Status.String()
	}
	return fmt.Sprintf("%s (%s)", o.Status, o.Reason)
}

const (
	DefaultTimeout = 10 * time.Second
	DefaultSettle  = time.Second
)

// Flows runs the journeys against the application at BaseURL, finding
// elements through Contract.
type Flows struct {
	BaseURL  string
	Contract *locator.Contract
	// Timeout bounds every single wait of a flow.
	Timeout time.Duration
	// Settle is the pause after actions whose effect cannot be waited for,
	// eg. toggling a favorite.
	Settle time.Duration
}

// New returns flows for the application at baseURL. A zero timeout or a
// negative settle delay is replaced by its default.
func New(baseURL string, c *locator.Contract, timeout, settle time.Duration) *Flows {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if settle < 0 {
		settle = DefaultSettle
	}
	return &Flows{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Contract: c,
		Timeout:  timeout,
		Settle:   settle,
	}
}

// URL returns the absolute url of path.
func (f *Flows) URL(path string) string {
	return f.BaseURL + "/" + strings.TrimLeft(path, "/")
}

func (f *Flows) loc(name string) []locator.Locator {
	return f.Contract.Candidates(name)
}

// Open navigates to the path of the named contract page.
func (f *Flows) Open(ctx context.Context, s *driver.Session, page string) error {
	p, ok := f.Contract.Page(page)
	if !ok {
		return fmt.Errorf("contract %s has no page %s", f.Contract.Version, page)
	}
	return s.Navigate(ctx, f.URL(p.Path))
}

// Find returns the first match of the named contract element without
// waiting.
func (f *Flows) Find(ctx context.Context, s *driver.Session, name string) (driver.Element, error) {
	return s.First(ctx, f.loc(name)...)
}

// FindAll returns all matches of the named contract element without
// waiting. No match is not an error.
func (f *Flows) FindAll(ctx context.Context, s *driver.Session, name string) ([]driver.Element, error) {
	elems, _, err := s.Resolve(ctx, f.loc(name)...)
	return elems, err
}

// WaitVisible waits for the named contract element to become visible.
func (f *Flows) WaitVisible(ctx context.Context, s *driver.Session, name string) (driver.Element, error) {
	return s.WaitVisible(ctx, f.Timeout, f.loc(name)...)
}

// Present reports whether the named element is currently visible. It does
// not wait.
func (f *Flows) Present(ctx context.Context, s *driver.Session, name string) (bool, error) {
	_, ok, err := driver.Visible(f.loc(name)...)(ctx, s)
	if errors.Is(err, locator.ErrNotFound) {
		return false, nil
	}
	if ok {
		return true, nil
	}
	return false, err
}

// Click waits for the named element to become clickable and clicks it.
func (f *Flows) Click(ctx context.Context, s *driver.Session, name string) error {
	el, err := s.WaitClickable(ctx, f.Timeout, f.loc(name)...)
	if err != nil {
		return err
	}
	log.LoggerFromContext(ctx).Debug("clicking", slog.String("element", name))
	return s.Click(ctx, el)
}

// Fill waits for the named input to become visible, clears it and types
// text.
func (f *Flows) Fill(ctx context.Context, s *driver.Session, name, text string) error {
	el, err := f.WaitVisible(ctx, s, name)
	if err != nil {
		return err
	}
	return s.Fill(ctx, el, text)
}

// Value returns the current value of the named input.
func (f *Flows) Value(ctx context.Context, s *driver.Session, name string) (string, error) {
	el, err := f.Find(ctx, s, name)
	if err != nil {
		return "", err
	}
	return s.Value(ctx, el)
}

// TextOf returns the text of the named element.
func (f *Flows) TextOf(ctx context.Context, s *driver.Session, name string) (string, error) {
	el, err := f.Find(ctx, s, name)
	if err != nil {
		return "", err
	}
	return s.Text(ctx, el)
}

func (f *Flows) settle(ctx context.Context) error {
	return wait.For(ctx, f.Settle)
}

// Path returns the path of the session's current location.
func Path(ctx context.Context, s *driver.Session) (string, error) {
	loc, err := s.Location(ctx)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(loc)
	if err != nil {
		return "", err
	}
	return u.Path, nil
}

func pathOf(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return location
	}
	return u.Path
}
