package e2e

import (
	"context"
	"strings"
	"testing"

	"github.com/jakopako/flowcheck/internal/driver"
	"github.com/jakopako/flowcheck/internal/flow"
	"github.com/jakopako/flowcheck/internal/scenario"
)

// toBooking opens the booking page of the first listed doctor.
func toBooking(ctx context.Context, s *driver.Session) error {
	if err := flows.OpenDoctorSearch(ctx, s); err != nil {
		return err
	}
	_, err := flows.OpenFirstBooking(ctx, s)
	return err
}

func TestNavigateToBooking(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if err := toBooking(ctx, s); err != nil {
			return err
		}
		_, err := flows.WaitVisible(ctx, s, "booking.date")
		return err
	}))
}

func TestSelectDate(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if err := toBooking(ctx, s); err != nil {
			return err
		}
		date, err := flows.SelectDate(ctx, s)
		if err != nil {
			return err
		}
		return scenario.Expect(date != "", "a date is selected")
	}))
}

func TestSelectTimeSlot(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if err := toBooking(ctx, s); err != nil {
			return err
		}
		if _, err := flows.SelectDate(ctx, s); err != nil {
			return err
		}
		slot, err := flows.SelectTimeSlot(ctx, s)
		if err != nil {
			return err
		}
		return scenario.Expect(slot != "", "a time slot is selected")
	}))
}

func TestPatientDetails(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if err := toBooking(ctx, s); err != nil {
			return err
		}
		if err := flows.FillPatientDetails(ctx, s, flow.DefaultPatient); err != nil {
			return err
		}
		shown, err := flows.PatientDetailsShown(ctx, s)
		if err != nil {
			return err
		}
		return scenario.Equal("patient details", shown, flow.DefaultPatient)
	}))
}

func TestPaymentDetails(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if err := toBooking(ctx, s); err != nil {
			return err
		}
		if err := flows.FillPaymentDetails(ctx, s, flow.DefaultPayment); err != nil {
			return err
		}
		bank, err := flows.Value(ctx, s, "booking.bank-name")
		if err != nil {
			return err
		}
		return scenario.Equal("bank name", bank, flow.DefaultPayment.BankName)
	}))
}

func TestBookingConfirmation(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		before, err := flows.Appointments(ctx, s)
		if err != nil {
			return err
		}
		if err := toBooking(ctx, s); err != nil {
			return err
		}
		if _, err := flows.SelectDate(ctx, s); err != nil {
			return err
		}
		if _, err := flows.SelectTimeSlot(ctx, s); err != nil {
			return err
		}
		if err := flows.FillPatientDetails(ctx, s, flow.DefaultPatient); err != nil {
			return err
		}
		if err := flows.FillPaymentDetails(ctx, s, flow.DefaultPayment); err != nil {
			return err
		}
		msg, err := flows.ConfirmBooking(ctx, s)
		if err != nil {
			return err
		}
		if err := scenario.Expect(strings.Contains(strings.ToLower(msg), "confirm") || strings.Contains(strings.ToLower(msg), "success"), "confirmation message, got %q", msg); err != nil {
			return err
		}
		after, err := flows.Appointments(ctx, s)
		if err != nil {
			return err
		}
		return scenario.Equal("appointments after booking", len(after), len(before)+1)
	}))
}

func TestAppointmentHistory(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		if _, err := flows.Appointments(ctx, s); err != nil {
			return err
		}
		_, err := flows.WaitVisible(ctx, s, "appointments.card")
		return err
	}))
}

func TestAppointmentDetails(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		appts, err := flows.Appointments(ctx, s)
		if err != nil {
			return err
		}
		if len(appts) == 0 {
			return scenario.Skipf("no appointments to view")
		}
		details, err := flows.OpenAppointmentDetails(ctx, s)
		if err != nil {
			return err
		}
		return scenario.Expect(strings.TrimSpace(details) != "", "appointment details shown")
	}))
}

func TestCancelAppointment(t *testing.T) {
	runner.Run(t, signedIn(func(ctx context.Context, s *driver.Session) error {
		before, err := flows.Appointments(ctx, s)
		if err != nil {
			return err
		}
		if len(before) == 0 {
			return scenario.Skipf("no appointments to cancel")
		}
		if err := flows.CancelFirstAppointment(ctx, s); err != nil {
			return err
		}
		after, err := flows.Appointments(ctx, s)
		if err != nil {
			return err
		}
		return scenario.Equal("appointments after cancelling", len(after), len(before)-1)
	}))
}
