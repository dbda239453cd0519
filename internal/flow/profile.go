package flow

import (
	"context"

	"github.com/jakopako/flowcheck/internal/driver"
	"github.com/jakopako/flowcheck/internal/wait"
)

// ProfileUpdate holds the profile fields to change. Empty fields are left
// untouched.
type ProfileUpdate struct {
	FirstName string
	Phone     string
}

// OpenProfile opens the profile page through the profile link of the
// dashboard and waits for the account email.
func (f *Flows) OpenProfile(ctx context.Context, s *driver.Session) (string, error) {
	if err := f.Open(ctx, s, "dashboard"); err != nil {
		return "", err
	}
	if err := f.Click(ctx, s, "dashboard.profile-link"); err != nil {
		return "", err
	}
	el, err := f.WaitVisible(ctx, s, "profile.email-display")
	if err != nil {
		return "", err
	}
	return s.Text(ctx, el)
}

// StartEditing switches the profile into edit mode if it has one.
func (f *Flows) StartEditing(ctx context.Context, s *driver.Session) error {
	ok, err := f.Present(ctx, s, "profile.edit")
	if err != nil || !ok {
		return err
	}
	if err := f.Click(ctx, s, "profile.edit"); err != nil {
		return err
	}
	_, err = f.WaitVisible(ctx, s, "profile.first-name")
	return err
}

// EditProfile changes the profile and saves it. The outcome is Success when
// the application confirms the update and Failure with the validation
// message when it rejects it.
func (f *Flows) EditProfile(ctx context.Context, s *driver.Session, u ProfileUpdate) (Outcome, error) {
	if err := f.StartEditing(ctx, s); err != nil {
		return Outcome{}, err
	}
	if u.FirstName != "" {
		if err := f.Fill(ctx, s, "profile.first-name", u.FirstName); err != nil {
			return Outcome{}, err
		}
	}
	if u.Phone != "" {
		if err := f.Fill(ctx, s, "profile.phone", u.Phone); err != nil {
			return Outcome{}, err
		}
	}
	if err := f.Click(ctx, s, "profile.save"); err != nil {
		return Outcome{}, err
	}
	return f.awaitVerdict(ctx, s, "profile update", "profile.updated", "profile.validation-error")
}

// EmailEditable reports whether the email field of the profile accepts
// input.
func (f *Flows) EmailEditable(ctx context.Context, s *driver.Session) (bool, error) {
	el, err := f.Find(ctx, s, "profile.email-field")
	if err != nil {
		return false, err
	}
	enabled, err := s.Enabled(ctx, el)
	if err != nil || !enabled {
		return false, err
	}
	readonly, err := s.Attribute(ctx, el, "readonly")
	if err != nil {
		return false, err
	}
	if readonly != "" {
		return false, nil
	}
	// a readonly attribute without value is only detectable by trying
	before, err := s.Value(ctx, el)
	if err != nil {
		return false, err
	}
	if err := s.Type(ctx, el, "x"); err != nil {
		return false, err
	}
	after, err := s.Value(ctx, el)
	if err != nil {
		return false, err
	}
	return after != before, nil
}

// ChangePassword changes the password from current to next.
func (f *Flows) ChangePassword(ctx context.Context, s *driver.Session, current, next string) (Outcome, error) {
	ok, err := f.Present(ctx, s, "profile.password-section")
	if err != nil {
		return Outcome{}, err
	}
	if ok {
		if err := f.Click(ctx, s, "profile.password-section"); err != nil {
			return Outcome{}, err
		}
	}
	if err := f.fillAll(ctx, s, []field{
		{"profile.old-password", current},
		{"profile.new-password", next},
		{"profile.confirm-password", next},
	}); err != nil {
		return Outcome{}, err
	}
	if err := f.Click(ctx, s, "profile.password-submit"); err != nil {
		return Outcome{}, err
	}
	return f.awaitVerdict(ctx, s, "password change", "profile.password-changed", "profile.validation-error")
}

// awaitVerdict waits until either the success or the failure element is
// visible. Failure wins if both are.
func (f *Flows) awaitVerdict(ctx context.Context, s *driver.Session, description, success, failure string) (Outcome, error) {
	name, el, err := f.awaitAny(ctx, s, description, failure, success)
	if err != nil {
		return Outcome{}, err
	}
	o := Outcome{Status: Success}
	if name == failure {
		o.Status = Failure
	}
	o.Reason, _ = s.Text(ctx, el)
	o.Location, _ = s.Location(ctx)
	return o, nil
}

// awaitAny waits until one of the named elements is visible and returns
// its name. Earlier names take precedence.
func (f *Flows) awaitAny(ctx context.Context, s *driver.Session, description string, names ...string) (string, driver.Element, error) {
	conds := make([]wait.Condition[*driver.Session, driver.Element], len(names))
	for i, n := range names {
		conds[i] = driver.Visible(f.loc(n)...)
	}
	type hit struct {
		name string
		el   driver.Element
	}
	h, err := wait.Until(ctx, s, description, func(ctx context.Context, s *driver.Session) (hit, bool, error) {
		var lastErr error
		for i, c := range conds {
			el, ok, err := c(ctx, s)
			if ok {
				return hit{names[i], el}, true, nil
			}
			if err != nil {
				lastErr = err
			}
		}
		return hit{}, false, lastErr
	}, f.Timeout, s.PollInterval())
	return h.name, h.el, err
}
