package e2e

import (
	"context"
	"strings"
	"testing"

	"github.com/jakopako/flowcheck/internal/driver"
	"github.com/jakopako/flowcheck/internal/scenario"
)

func TestDoctorSearchPageLoads(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if err := flows.OpenDoctorSearch(ctx, s); err != nil {
			return err
		}
		_, err := flows.WaitVisible(ctx, s, "dashboard.search")
		return err
	}))
}

func TestDoctorListing(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if err := flows.OpenDoctorSearch(ctx, s); err != nil {
			return err
		}
		cards, err := flows.DoctorCards(ctx, s)
		if err != nil {
			return err
		}
		if len(cards) == 0 {
			return scenario.Skipf("no doctors listed")
		}
		names, err := flows.DoctorNames(ctx, s)
		if err != nil {
			return err
		}
		return scenario.Equal("doctor names", len(names), len(cards))
	}))
}

func TestSearchByName(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if err := flows.OpenDoctorSearch(ctx, s); err != nil {
			return err
		}
		if _, err := flows.SearchDoctors(ctx, s, "Smith"); err != nil {
			return err
		}
		names, err := flows.DoctorNames(ctx, s)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return scenario.Skipf("search for Smith listed no doctors")
		}
		for _, n := range names {
			if !strings.Contains(n, "Smith") {
				return scenario.Expect(false, "search for Smith listed %q", n)
			}
		}
		return nil
	}))
}

func TestClearSearch(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if err := flows.OpenDoctorSearch(ctx, s); err != nil {
			return err
		}
		all, err := flows.DoctorCards(ctx, s)
		if err != nil {
			return err
		}
		if _, err := flows.SearchDoctors(ctx, s, "Smith"); err != nil {
			return err
		}
		cleared, err := flows.ClearSearch(ctx, s)
		if err != nil {
			return err
		}
		return scenario.Equal("doctors after clearing the search", len(cleared), len(all))
	}))
}

func TestSpecializationFilter(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if err := flows.OpenDoctorSearch(ctx, s); err != nil {
			return err
		}
		all, err := flows.DoctorCards(ctx, s)
		if err != nil {
			return err
		}
		value, err := flows.FilterBySpecialization(ctx, s, 1)
		if err != nil {
			return err
		}
		filtered, err := flows.DoctorCards(ctx, s)
		if err != nil {
			return err
		}
		return scenario.Expect(len(filtered) <= len(all), "filtering by %s listed %d of %d doctors", value, len(filtered), len(all))
	}))
}

func TestBookNowNavigation(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if err := flows.OpenDoctorSearch(ctx, s); err != nil {
			return err
		}
		loc, err := flows.OpenFirstBooking(ctx, s)
		if err != nil {
			return err
		}
		return scenario.Expect(strings.Contains(loc, "/book"), "booking page, got %s", loc)
	}))
}

func TestFavorites(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if err := flows.OpenDoctorSearch(ctx, s); err != nil {
			return err
		}
		before, after, err := flows.ToggleFirstFavorite(ctx, s)
		if err != nil {
			return err
		}
		if err := scenario.Expect(before != after, "favorite toggle stays %q", before); err != nil {
			return err
		}
		// toggle back, favorites are account state
		_, _, err = flows.ToggleFirstFavorite(ctx, s)
		return err
	}))
}
