package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/jakopako/flowcheck/internal/driver"
)

// OpenDoctorSearch opens the patient dashboard and waits for the search
// field.
func (f *Flows) OpenDoctorSearch(ctx context.Context, s *driver.Session) error {
	if err := f.Open(ctx, s, "dashboard"); err != nil {
		return err
	}
	_, err := f.WaitVisible(ctx, s, "dashboard.search")
	return err
}

// SearchDoctors enters query into the search field, submits it and returns
// the doctor cards shown afterwards.
func (f *Flows) SearchDoctors(ctx context.Context, s *driver.Session, query string) ([]driver.Element, error) {
	if err := f.Fill(ctx, s, "dashboard.search", query); err != nil {
		return nil, err
	}
	if err := f.Click(ctx, s, "dashboard.search-button"); err != nil {
		return nil, err
	}
	if err := f.settle(ctx); err != nil {
		return nil, err
	}
	return f.DoctorCards(ctx, s)
}

// ClearSearch empties the search field, submits it and returns the doctor
// cards shown afterwards.
func (f *Flows) ClearSearch(ctx context.Context, s *driver.Session) ([]driver.Element, error) {
	return f.SearchDoctors(ctx, s, "")
}

// FilterBySpecialization selects the option at index of the specialization
// filter and applies it. It returns the value of the selected option.
func (f *Flows) FilterBySpecialization(ctx context.Context, s *driver.Session, index int) (string, error) {
	if _, err := f.WaitVisible(ctx, s, "dashboard.specialization"); err != nil {
		return "", err
	}
	options, err := f.FindAll(ctx, s, "dashboard.specialization-option")
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(options) {
		return "", fmt.Errorf("specialization filter has %d options, cannot select option %d", len(options), index)
	}
	value, err := s.Value(ctx, options[index])
	if err != nil {
		return "", err
	}
	if err := s.Click(ctx, options[index]); err != nil {
		return "", err
	}
	// forms without javascript only filter on submit
	if ok, err := f.Present(ctx, s, "dashboard.search-button"); err != nil {
		return "", err
	} else if ok {
		if err := f.Click(ctx, s, "dashboard.search-button"); err != nil {
			return "", err
		}
	}
	return value, f.settle(ctx)
}

// DoctorCards returns the doctor cards currently listed. An empty list is
// not an error.
func (f *Flows) DoctorCards(ctx context.Context, s *driver.Session) ([]driver.Element, error) {
	return f.FindAll(ctx, s, "dashboard.doctor-card")
}

// DoctorNames returns the texts of the doctor cards currently listed.
func (f *Flows) DoctorNames(ctx context.Context, s *driver.Session) ([]string, error) {
	cards, err := f.DoctorCards(ctx, s)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cards))
	for _, c := range cards {
		t, err := s.Text(ctx, c)
		if err != nil {
			return nil, err
		}
		names = append(names, t)
	}
	return names, nil
}

// OpenFirstBooking clicks the booking control of the first doctor and waits
// for the booking route.
func (f *Flows) OpenFirstBooking(ctx context.Context, s *driver.Session) (string, error) {
	if err := f.Click(ctx, s, "dashboard.book"); err != nil {
		return "", err
	}
	return s.WaitURL(ctx, f.Timeout, "booking page", func(loc string) bool {
		return strings.Contains(pathOf(loc), "/book")
	})
}

// ToggleFirstFavorite clicks the favorite marker of the first doctor and
// returns the marker text before and after.
func (f *Flows) ToggleFirstFavorite(ctx context.Context, s *driver.Session) (before, after string, err error) {
	before, err = f.TextOf(ctx, s, "dashboard.favorite")
	if err != nil {
		return "", "", err
	}
	if err := f.Click(ctx, s, "dashboard.favorite"); err != nil {
		return "", "", err
	}
	if err := f.settle(ctx); err != nil {
		return "", "", err
	}
	// the click may have replaced the page, look the marker up again
	after, err = f.TextOf(ctx, s, "dashboard.favorite")
	if err != nil {
		return "", "", err
	}
	return before, after, nil
}
