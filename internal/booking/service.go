package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"innkeeper/internal/events"
	"innkeeper/internal/observability"
	"innkeeper/internal/providers"
)

// ConfirmRequest is the post-payment confirmation hook payload. OrderID may
// be omitted when AppReference is set; the order identifier is then derived
// from the reference and the user's email.
type ConfirmRequest struct {
	PaymentID    string `json:"payment_id"`
	OrderID      string `json:"order_id"`
	AppReference string `json:"app_reference"`
	Provider     string `json:"provider"`
	UserEmail    string `json:"user_email"`
}

type ConfirmResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	OrderID   string `json:"order_id,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

// ServiceConfig carries the collaborators for a fulfillment Service. Store,
// Gateway and Hotels are required; the rest degrade to no-ops when nil.
type ServiceConfig struct {
	Store    Store
	Gateway  PaymentGateway
	Hotels   providers.HotelProvider
	Mailer   Mailer
	Locks    *LockManager
	Notifier *events.Notifier
	Metrics  *observability.Metrics
	Logger   *zap.Logger

	PollInterval    time.Duration
	PollMaxAttempts int
}

// Service runs the fulfillment pipeline for confirmed payments. One pipeline
// run per booking at a time; overlapping confirmations for the same booking
// are rejected while the first holds the lock.
type Service struct {
	store    Store
	gateway  PaymentGateway
	hotels   providers.HotelProvider
	mailer   Mailer
	locks    *LockManager
	notifier *events.Notifier
	metrics  *observability.Metrics
	logger   *zap.Logger

	pollInterval    time.Duration
	pollMaxAttempts int
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	locks := cfg.Locks
	if locks == nil {
		locks = NewLockManager()
	}
	return &Service{
		store:           cfg.Store,
		gateway:         cfg.Gateway,
		hotels:          cfg.Hotels,
		mailer:          cfg.Mailer,
		locks:           locks,
		notifier:        cfg.Notifier,
		metrics:         cfg.Metrics,
		logger:          logger,
		pollInterval:    cfg.PollInterval,
		pollMaxAttempts: cfg.PollMaxAttempts,
	}
}

// Locks exposes the lock manager for inspection endpoints.
func (s *Service) Locks() *LockManager { return s.locks }

// ConfirmBooking validates the request, takes the per-booking lock and runs
// the pipeline to completion. The lock is released when the run ends, success
// or not. Internal failure details go to the log and the run record; the
// caller gets a generic message.
func (s *Service) ConfirmBooking(ctx context.Context, req ConfirmRequest) ConfirmResult {
	orderID := req.OrderID
	if orderID == "" {
		orderID = OrderIDFrom(req.AppReference, req.UserEmail)
	}

	ev, err := NewEvent(req.PaymentID, orderID, req.Provider, req.UserEmail)
	if err != nil {
		return ConfirmResult{Success: false, Message: err.Error()}
	}

	if !s.locks.TryAcquire(ev.PaymentID, ev.OrderID) {
		return ConfirmResult{
			Success:   false,
			Message:   "booking is already being processed",
			OrderID:   ev.OrderID,
			UserEmail: ev.UserEmail,
		}
	}
	defer s.locks.Release(ev.PaymentID, ev.OrderID)

	span := s.metrics.Start("booking.Confirm")
	_, err = ProcessPipeline(ctx, ev, s.steps(), s.notifier)
	span.End(err)

	run := RunRecord{
		OrderID:    ev.OrderID,
		UserEmail:  ev.UserEmail,
		Status:     RunStatusCompleted,
		FinishedAt: time.Now(),
	}
	if err != nil {
		run.Status = RunStatusFailed
		run.Detail = err.Error()
	}
	if recErr := s.store.RecordRun(ctx, run); recErr != nil {
		s.logger.Warn("record run failed",
			zap.String("order_id", ev.OrderID),
			zap.Error(recErr))
	}

	if err != nil {
		s.logger.Error("booking pipeline failed",
			zap.String("order_id", ev.OrderID),
			zap.String("user_email", ev.UserEmail),
			zap.Error(err))
		return ConfirmResult{
			Success:   false,
			Message:   "booking processing failed",
			OrderID:   ev.OrderID,
			UserEmail: ev.UserEmail,
		}
	}

	return ConfirmResult{
		Success:   true,
		Message:   "booking confirmed",
		OrderID:   ev.OrderID,
		UserEmail: ev.UserEmail,
	}
}

func (s *Service) steps() []Step {
	return []Step{
		NewPaymentStatusStep(s.gateway, s.store, s.pollInterval, s.pollMaxAttempts),
		NewBookRoomStep(s.hotels, s.store),
		NewSendEmailStep(s.mailer),
	}
}
