package flow

import (
	"context"
	"time"

	"github.com/jakopako/flowcheck/internal/driver"
)

// PatientDetails are the patient fields of the booking form.
type PatientDetails struct {
	Name    string
	NIC     string
	Email   string
	Contact string
}

// DefaultPatient is the patient entered by the booking scenarios.
var DefaultPatient = PatientDetails{
	Name:    "John Doe",
	NIC:     "123456789V",
	Email:   "patient@example.com",
	Contact: "0701234567",
}

// PaymentDetails are the bank transfer fields of the booking form.
type PaymentDetails struct {
	AccountName   string
	AccountNumber string
	BankName      string
	BankBranch    string
}

var DefaultPayment = PaymentDetails{
	AccountName:   "John Doe",
	AccountNumber: "1234567890",
	BankName:      "Test Bank",
	BankBranch:    "Colombo",
}

// OpenBooking opens the booking page of the contract and waits for the
// date selection.
func (f *Flows) OpenBooking(ctx context.Context, s *driver.Session) error {
	if err := f.Open(ctx, s, "booking"); err != nil {
		return err
	}
	_, err := f.WaitVisible(ctx, s, "booking.date")
	return err
}

// SelectDate picks the first available date and returns it. Date inputs
// get tomorrow's date typed in.
func (f *Flows) SelectDate(ctx context.Context, s *driver.Session) (string, error) {
	el, err := s.WaitClickable(ctx, f.Timeout, f.loc("booking.date")...)
	if err != nil {
		return "", err
	}
	if el.TagName() == "input" {
		date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
		return date, s.Fill(ctx, el, date)
	}
	date, err := s.Attribute(ctx, el, "value")
	if err != nil {
		return "", err
	}
	if date == "" {
		if date, err = s.Text(ctx, el); err != nil {
			return "", err
		}
	}
	if err := s.Click(ctx, el); err != nil {
		return "", err
	}
	_, err = f.WaitVisible(ctx, s, "booking.selected-date")
	return date, err
}

// SelectTimeSlot picks the first available time slot, waits until it is
// marked as selected and returns its label.
func (f *Flows) SelectTimeSlot(ctx context.Context, s *driver.Session) (string, error) {
	el, err := s.WaitClickable(ctx, f.Timeout, f.loc("booking.time-slot")...)
	if err != nil {
		return "", err
	}
	label, err := s.Text(ctx, el)
	if err != nil {
		return "", err
	}
	if err := s.Click(ctx, el); err != nil {
		return "", err
	}
	_, err = f.WaitVisible(ctx, s, "booking.selected-time-slot")
	return label, err
}

// FillPatientDetails fills the patient fields of the booking form.
func (f *Flows) FillPatientDetails(ctx context.Context, s *driver.Session, p PatientDetails) error {
	return f.fillAll(ctx, s, []field{
		{"booking.patient-name", p.Name},
		{"booking.nic", p.NIC},
		{"booking.email", p.Email},
		{"booking.contact", p.Contact},
	})
}

// PatientDetailsShown reads the patient fields back from the form.
func (f *Flows) PatientDetailsShown(ctx context.Context, s *driver.Session) (PatientDetails, error) {
	var p PatientDetails
	var err error
	for _, r := range []struct {
		name string
		dst  *string
	}{
		{"booking.patient-name", &p.Name},
		{"booking.nic", &p.NIC},
		{"booking.email", &p.Email},
		{"booking.contact", &p.Contact},
	} {
		if *r.dst, err = f.Value(ctx, s, r.name); err != nil {
			return PatientDetails{}, err
		}
	}
	return p, nil
}

// FillPaymentDetails fills the bank transfer fields of the booking form.
func (f *Flows) FillPaymentDetails(ctx context.Context, s *driver.Session, p PaymentDetails) error {
	return f.fillAll(ctx, s, []field{
		{"booking.account-name", p.AccountName},
		{"booking.account-number", p.AccountNumber},
		{"booking.bank-name", p.BankName},
		{"booking.bank-branch", p.BankBranch},
	})
}

// ConfirmBooking submits the booking and waits for the confirmation.
func (f *Flows) ConfirmBooking(ctx context.Context, s *driver.Session) (string, error) {
	if err := f.Click(ctx, s, "booking.confirm"); err != nil {
		return "", err
	}
	el, err := f.WaitVisible(ctx, s, "booking.success")
	if err != nil {
		return "", err
	}
	return s.Text(ctx, el)
}

// Appointments opens the appointment history and returns the listed
// appointments. An empty history is not an error.
func (f *Flows) Appointments(ctx context.Context, s *driver.Session) ([]driver.Element, error) {
	if err := f.Open(ctx, s, "appointments"); err != nil {
		return nil, err
	}
	if err := f.settle(ctx); err != nil {
		return nil, err
	}
	return f.FindAll(ctx, s, "appointments.card")
}

// OpenAppointmentDetails opens the details of the first appointment and
// returns the details text.
func (f *Flows) OpenAppointmentDetails(ctx context.Context, s *driver.Session) (string, error) {
	if err := f.Click(ctx, s, "appointments.view"); err != nil {
		return "", err
	}
	el, err := f.WaitVisible(ctx, s, "appointments.details")
	if err != nil {
		return "", err
	}
	return s.Text(ctx, el)
}

// CancelFirstAppointment cancels the first cancellable appointment,
// confirming the cancellation if asked to.
func (f *Flows) CancelFirstAppointment(ctx context.Context, s *driver.Session) error {
	if err := f.Click(ctx, s, "appointments.cancel"); err != nil {
		return err
	}
	name, el, err := f.awaitAny(ctx, s, "cancellation", "appointments.confirm-cancel", "appointments.cancelled")
	if err != nil || name == "appointments.cancelled" {
		return err
	}
	if err := s.Click(ctx, el); err != nil {
		return err
	}
	_, err = f.WaitVisible(ctx, s, "appointments.cancelled")
	return err
}

type field struct {
	name  string
	value string
}

func (f *Flows) fillAll(ctx context.Context, s *driver.Session, fields []field) error {
	for _, fd := range fields {
		if err := f.Fill(ctx, s, fd.name, fd.value); err != nil {
			return err
		}
	}
	return nil
}
