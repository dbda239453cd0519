package e2e

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jakopako/flowcheck/internal/driver"
	"github.com/jakopako/flowcheck/internal/flow"
	"github.com/jakopako/flowcheck/internal/scenario"
)

func TestNavigateToProfile(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if _, err := flows.OpenProfile(ctx, s); err != nil {
			return err
		}
		p, err := flow.Path(ctx, s)
		if err != nil {
			return err
		}
		return scenario.Expect(strings.Contains(p, "profile"), "profile page, got %s", p)
	}))
}

func TestViewProfile(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		email, err := flows.OpenProfile(ctx, s)
		if err != nil {
			return err
		}
		return scenario.Equal("profile email", strings.TrimSpace(email), account.Email)
	}))
}

func TestEditProfile(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) (err error) {
		if _, err := flows.OpenProfile(ctx, s); err != nil {
			return err
		}
		o, err := flows.EditProfile(ctx, s, flow.ProfileUpdate{FirstName: "Updated"})
		if err != nil {
			return err
		}
		if err := scenario.Equal("profile update", o.Status, flow.Success); err != nil {
			return err
		}
		defer func() {
			rerr := restore(ctx, account, func(ctx context.Context, s *driver.Session) error {
				if _, err := flows.OpenProfile(ctx, s); err != nil {
					return err
				}
				o, err := flows.EditProfile(ctx, s, flow.ProfileUpdate{FirstName: account.FirstName})
				if err != nil {
					return err
				}
				return scenario.Equal("profile restore", o.Status, flow.Success)
			})
			if rerr != nil {
				err = errors.Join(err, fmt.Errorf("restoring the first name: %w", rerr))
			}
		}()
		return nil
	}))
}

func TestEmailReadOnly(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if _, err := flows.OpenProfile(ctx, s); err != nil {
			return err
		}
		if err := flows.StartEditing(ctx, s); err != nil {
			return err
		}
		editable, err := flows.EmailEditable(ctx, s)
		if err != nil {
			return err
		}
		return scenario.Expect(!editable, "email field is read only")
	}))
}

func TestPhoneFormat(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if _, err := flows.OpenProfile(ctx, s); err != nil {
			return err
		}
		o, err := flows.EditProfile(ctx, s, flow.ProfileUpdate{Phone: "123"})
		if err != nil {
			return err
		}
		return scenario.Equal("profile update with phone 123", o.Status, flow.Failure)
	}))
}

// withPassword changes the password of the test account to next and runs
// fn. Once the change is confirmed the original password is restored on a
// fresh session, whatever fn returns.
func withPassword(next string, fn scenario.Func) scenario.Func {
	return func(ctx context.Context, s *driver.Session) (err error) {
		if _, err := flows.OpenProfile(ctx, s); err != nil {
			return err
		}
		o, err := flows.ChangePassword(ctx, s, account.Password, next)
		if err != nil {
			return err
		}
		if err := scenario.Equal("password change", o.Status, flow.Success); err != nil {
			return err
		}
		defer func() {
			changed := account
			changed.Password = next
			rerr := restore(ctx, changed, func(ctx context.Context, s *driver.Session) error {
				if _, err := flows.OpenProfile(ctx, s); err != nil {
					return err
				}
				o, err := flows.ChangePassword(ctx, s, next, account.Password)
				if err != nil {
					return err
				}
				return scenario.Equal("password restore", o.Status, flow.Success)
			})
			if rerr != nil {
				err = errors.Join(err, fmt.Errorf("restoring the password: %w", rerr))
			}
		}()
		return fn(ctx, s)
	}
}

func TestChangePassword(t *testing.T) {
	runner.Run(t, signedIn(withPassword("NewPassword123!", func(ctx context.Context, s *driver.Session) error {
		return nil
	})))
}

func TestPasswordRestoredAfterInterruption(t *testing.T) {
	errInterrupted := errors.New("interrupted")
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		err := withPassword("Interrupted123!", func(ctx context.Context, s *driver.Session) error {
			return errInterrupted
		})(ctx, s)
		if !errors.Is(err, errInterrupted) {
			return err
		}
		err = restore(ctx, account, func(ctx context.Context, s *driver.Session) error { return nil })
		return scenario.Expect(err == nil, "original password signs in after an interrupted change: %v", err)
	}))
}
