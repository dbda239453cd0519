package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jakopako/flowcheck/internal/driver"
	"github.com/jakopako/flowcheck/internal/locator"
	"github.com/jakopako/flowcheck/internal/log"
	"github.com/jakopako/flowcheck/internal/wait"
)

// ErrLoginRejected is returned by Login when the application did not sign
// the account in, either by showing an error or by not reacting in time.
var ErrLoginRejected = errors.New("login rejected")

func onLogin(location string) bool {
	return strings.HasSuffix(strings.TrimRight(pathOf(location), "/"), "/login")
}

// Authenticate signs in with cred in a single attempt. The outcome is
// Success once the location leaves the login route and Failure when the
// error region appears or nothing happens within the wait budget. Errors
// are only returned when the login form itself cannot be used.
func (f *Flows) Authenticate(ctx context.Context, s *driver.Session, cred Credential) (Outcome, error) {
	logger := log.LoggerFromContext(ctx).With(slog.String("flow", "authenticate"))
	if err := f.Open(ctx, s, "login"); err != nil {
		return Outcome{}, err
	}
	if err := f.Fill(ctx, s, "login.email", cred.Email); err != nil {
		return Outcome{}, err
	}
	password, err := f.Find(ctx, s, "login.password")
	if err != nil {
		return Outcome{}, err
	}
	if err := s.Fill(ctx, password, cred.Password); err != nil {
		return Outcome{}, err
	}
	if err := f.Click(ctx, s, "login.submit"); err != nil {
		return Outcome{}, err
	}

	errorRegion := driver.Visible(f.loc("login.error")...)
	outcome, err := wait.Until(ctx, s, "login outcome", func(ctx context.Context, s *driver.Session) (Outcome, bool, error) {
		loc, err := s.Location(ctx)
		if err != nil {
			return Outcome{}, false, err
		}
		if !onLogin(loc) {
			return Outcome{Status: Success, Location: loc}, true, nil
		}
		el, ok, _ := errorRegion(ctx, s)
		if ok {
			reason, _ := s.Text(ctx, el)
			return Outcome{Status: Failure, Reason: reason, Location: loc}, true, nil
		}
		return Outcome{}, false, nil
	}, f.Timeout, s.PollInterval())
	if wait.IsTimeout(err) {
		loc, _ := s.Location(ctx)
		outcome = Outcome{Status: Failure, Reason: "login did not complete", Location: loc}
		err = nil
	}
	if err != nil {
		return Outcome{}, err
	}
	logger.Debug(fmt.Sprintf("login outcome: %s", outcome))
	return outcome, nil
}

// Login is Authenticate for callers that need a signed in session. A
// rejected login is an error wrapping ErrLoginRejected.
func (f *Flows) Login(ctx context.Context, s *driver.Session, cred Credential) error {
	o, err := f.Authenticate(ctx, s, cred)
	if err != nil {
		return err
	}
	if o.Status != Success {
		return fmt.Errorf("%w: login as %s failed: %s", ErrLoginRejected, cred.Email, o.Reason)
	}
	return nil
}

// Logout signs out through the logout control and waits until the
// application shows the login or landing route.
func (f *Flows) Logout(ctx context.Context, s *driver.Session) error {
	if err := f.Click(ctx, s, "dashboard.logout"); err != nil {
		return err
	}
	_, err := s.WaitURL(ctx, f.Timeout, "login or landing page", func(loc string) bool {
		p := strings.TrimRight(pathOf(loc), "/")
		return p == "" || onLogin(loc)
	})
	return err
}

// SubmitEmptyLogin submits the login form with an empty email and returns
// the validation message shown for it, if any. The native "required"
// validation of browsers may block the submission, in which case no
// message is rendered and an error wrapping locator.ErrNotFound or a
// timeout is returned.
func (f *Flows) SubmitEmptyLogin(ctx context.Context, s *driver.Session) (string, error) {
	return f.submitLogin(ctx, s, "", "login.email-error")
}

// SubmitMalformedEmail submits the login form with an email that is not an
// address and returns the validation message shown for it.
func (f *Flows) SubmitMalformedEmail(ctx context.Context, s *driver.Session, email string) (string, error) {
	return f.submitLogin(ctx, s, email, "login.email-format-error")
}

func (f *Flows) submitLogin(ctx context.Context, s *driver.Session, email, message string) (string, error) {
	if err := f.Open(ctx, s, "login"); err != nil {
		return "", err
	}
	if err := f.Fill(ctx, s, "login.email", email); err != nil {
		return "", err
	}
	if err := f.Fill(ctx, s, "login.password", "x"); err != nil {
		return "", err
	}
	if err := f.Click(ctx, s, "login.submit"); err != nil {
		return "", err
	}
	el, err := f.WaitVisible(ctx, s, message)
	if err != nil {
		return "", err
	}
	return s.Text(ctx, el)
}

// OpenSignup opens the registration page and waits for its form.
func (f *Flows) OpenSignup(ctx context.Context, s *driver.Session) error {
	if err := f.Open(ctx, s, "register"); err != nil {
		return err
	}
	if _, err := f.WaitVisible(ctx, s, "register.email"); err != nil {
		return err
	}
	_, err := f.Find(ctx, s, "register.password")
	return err
}

// IsNotFound reports whether err means that an expected element was not
// there, as opposed to a broken session.
func IsNotFound(err error) bool {
	return errors.Is(err, locator.ErrNotFound) || wait.IsTimeout(err)
}
