package e2e

import (
	"context"
	"strings"
	"testing"

	"github.com/jakopako/flowcheck/internal/driver"
	"github.com/jakopako/flowcheck/internal/flow"
	"github.com/jakopako/flowcheck/internal/scenario"
)

func TestLoginPageLoads(t *testing.T) {
	runner.Run(t, func(ctx context.Context, s *driver.Session) error {
		if err := flows.Open(ctx, s, "login"); err != nil {
			return err
		}
		for _, name := range []string{"login.email", "login.password", "login.submit"} {
			if _, err := flows.WaitVisible(ctx, s, name); err != nil {
				return err
			}
		}
		return nil
	})
}

func TestValidLogin(t *testing.T) {
	runner.Run(t, func(ctx context.Context, s *driver.Session) error {
		o, err := flows.Authenticate(ctx, s, account)
		if err != nil {
			return err
		}
		return scenario.Expect(o.Status == flow.Success, "login as %s: %s", account.Email, o)
	})
}

func TestInvalidLogin(t *testing.T) {
	runner.Run(t, func(ctx context.Context, s *driver.Session) error {
		o, err := flows.Authenticate(ctx, s, flow.Credential{Email: "invalid@test.com", Password: "wrongpassword"})
		if err != nil {
			return err
		}
		if err := scenario.Equal("outcome", o.Status, flow.Failure); err != nil {
			return err
		}
		return scenario.Expect(strings.Contains(o.Location, "login"), "still on the login page, got %s", o.Location)
	})
}

func TestSignupPageLoads(t *testing.T) {
	runner.Run(t, func(ctx context.Context, s *driver.Session) error {
		return flows.OpenSignup(ctx, s)
	})
}

func TestLogout(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if err := flows.OpenDoctorSearch(ctx, s); err != nil {
			return err
		}
		if err := flows.Logout(ctx, s); err != nil {
			return err
		}
		// protected pages send a signed out user back to the login page
		if err := flows.Open(ctx, s, "dashboard"); err != nil {
			return err
		}
		_, err := s.WaitURL(ctx, flows.Timeout, "login page", func(loc string) bool {
			return strings.Contains(loc, "/login")
		})
		return err
	}))
}

func TestEmailRequired(t *testing.T) {
	runner.Run(t, func(ctx context.Context, s *driver.Session) error {
		msg, err := flows.SubmitEmptyLogin(ctx, s)
		if err != nil {
			return err
		}
		return scenario.Expect(strings.Contains(msg, "required"), "email required message, got %q", msg)
	})
}

func TestEmailFormat(t *testing.T) {
	runner.Run(t, func(ctx context.Context, s *driver.Session) error {
		msg, err := flows.SubmitMalformedEmail(ctx, s, "invalid-email")
		if err != nil {
			return err
		}
		return scenario.Expect(msg != "", "email format message shown")
	})
}
