package booking

import "errors"

// Normalized backend statuses persisted to the booking store.
const (
	PaymentStatusPaid   = "paid"
	PaymentStatusFailed = "failed"

	BookingStatusPending = "pending"
	BookingStatusBooked  = "booked"
)

var (
	ErrOrderIDRequired = errors.New("order id is required")
	ErrEmailRequired   = errors.New("user email is required")
)

// Event is the unit of work threaded through the fulfillment pipeline. It is
// created per confirmation request, passed by value from step to step, and
// discarded when the run ends; the booking store is the durable record.
//
// OrderID and UserEmail are immutable once the event is created. Every other
// field is written once, by the step that owns it.
type Event struct {
	PaymentID            string
	OrderID              string
	Provider             string
	UserEmail            string
	PaymentStatus        string
	BackendPaymentStatus string
	BackendBookingStatus string
	BookingRecord        *Record
}

// NewEvent constructs an Event with validation on the immutable fields.
func NewEvent(paymentID, orderID, provider, userEmail string) (Event, error) {
	if orderID == "" {
		return Event{}, ErrOrderIDRequired
	}
	if userEmail == "" {
		return Event{}, ErrEmailRequired
	}
	return Event{
		PaymentID: paymentID,
		OrderID:   orderID,
		Provider:  provider,
		UserEmail: userEmail,
	}, nil
}

// OrderIDFrom derives the stable order identifier from an app-level booking
// reference and the user's email.
func OrderIDFrom(appReference, userEmail string) string {
	if appReference == "" {
		return ""
	}
	return appReference + ":" + userEmail
}
