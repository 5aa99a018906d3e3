package booking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrBookingNotFound signals no booking record exists for the order.
var ErrBookingNotFound = errors.New("booking not found")

// Record is the durable booking snapshot held by the backend store. A
// pending record is created when the user selects a room; the pipeline
// fills in payment and booking status after confirmation.
type Record struct {
	OrderID       string    `json:"order_id"`
	UserEmail     string    `json:"user_email"`
	PaymentID     string    `json:"payment_id,omitempty"`
	Provider      string    `json:"provider,omitempty"`
	HotelCode     string    `json:"hotel_code,omitempty"`
	RoomCode      string    `json:"room_code,omitempty"`
	CheckIn       string    `json:"check_in,omitempty"`
	CheckOut      string    `json:"check_out,omitempty"`
	GuestName     string    `json:"guest_name,omitempty"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	BookingStatus string    `json:"booking_status,omitempty"`
	BookingRef    string    `json:"booking_ref,omitempty"`
	BookedVia     string    `json:"booked_via,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// RunRecord is the durable trace of one finished pipeline run.
type RunRecord struct {
	OrderID    string    `json:"order_id"`
	UserEmail  string    `json:"user_email"`
	Status     string    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// Run outcome statuses.
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Store is the narrow interface the pipeline uses to reach the backend
// booking store.
type Store interface {
	GetBooking(ctx context.Context, orderID string) (Record, error)
	UpdatePaymentStatus(ctx context.Context, orderID, userEmail, status string) error
	SaveBooking(ctx context.Context, rec Record) error
	RecordRun(ctx context.Context, run RunRecord) error
}

// StatusMirror receives a best-effort copy of every store write. Mirrors
// serve live-status reads and never participate in lookups.
type StatusMirror interface {
	UpdatePaymentStatus(ctx context.Context, orderID, userEmail, status string) error
	SaveBooking(ctx context.Context, rec Record) error
	RecordRun(ctx context.Context, run RunRecord) error
}

// MirroredStore reads from the primary store and fans writes out to the
// primary plus each mirror. A mirror failure is logged, not propagated: the
// primary is the source of truth and a lagging mirror must not fail a
// booking.
type MirroredStore struct {
	primary Store
	mirrors []StatusMirror
	logger  *zap.Logger
}

// NewMirroredStore composes a primary store with zero or more mirrors.
func NewMirroredStore(primary Store, logger *zap.Logger, mirrors ...StatusMirror) *MirroredStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MirroredStore{primary: primary, mirrors: mirrors, logger: logger}
}

func (s *MirroredStore) GetBooking(ctx context.Context, orderID string) (Record, error) {
	return s.primary.GetBooking(ctx, orderID)
}

func (s *MirroredStore) UpdatePaymentStatus(ctx context.Context, orderID, userEmail, status string) error {
	if err := s.primary.UpdatePaymentStatus(ctx, orderID, userEmail, status); err != nil {
		return err
	}
	for _, mirror := range s.mirrors {
		if err := mirror.UpdatePaymentStatus(ctx, orderID, userEmail, status); err != nil {
			s.logger.Warn("status mirror write failed",
				zap.String("order_id", orderID), zap.Error(err))
		}
	}
	return nil
}

func (s *MirroredStore) SaveBooking(ctx context.Context, rec Record) error {
	if err := s.primary.SaveBooking(ctx, rec); err != nil {
		return err
	}
	for _, mirror := range s.mirrors {
		if err := mirror.SaveBooking(ctx, rec); err != nil {
			s.logger.Warn("status mirror write failed",
				zap.String("order_id", rec.OrderID), zap.Error(err))
		}
	}
	return nil
}

func (s *MirroredStore) RecordRun(ctx context.Context, run RunRecord) error {
	if err := s.primary.RecordRun(ctx, run); err != nil {
		return err
	}
	for _, mirror := range s.mirrors {
		if err := mirror.RecordRun(ctx, run); err != nil {
			s.logger.Warn("status mirror write failed",
				zap.String("order_id", run.OrderID), zap.Error(err))
		}
	}
	return nil
}
