package booking

import (
	"context"

	"innkeeper/internal/events"
)

// SendEmailStep delivers the booking confirmation email. With no mailer
// configured the step skips, leaving the event untouched.
type SendEmailStep struct {
	mailer Mailer
}

// NewSendEmailStep constructs a SendEmailStep.
func NewSendEmailStep(mailer Mailer) *SendEmailStep {
	return &SendEmailStep{mailer: mailer}
}

func (s *SendEmailStep) Name() string { return "send_email" }

func (s *SendEmailStep) Validate(ev Event) Decision {
	if ev.BackendBookingStatus != BookingStatusBooked {
		return Abort("booking not confirmed")
	}
	if s.mailer == nil {
		return Skip()
	}
	return Proceed()
}

func (s *SendEmailStep) Execute(ctx context.Context, ev Event, notifier *events.Notifier) (Event, error) {
	rec := Record{OrderID: ev.OrderID, UserEmail: ev.UserEmail}
	if ev.BookingRecord != nil {
		rec = *ev.BookingRecord
	}
	if err := s.mailer.SendConfirmation(ctx, ev.UserEmail, rec); err != nil {
		return ev, err
	}
	return ev, nil
}
