package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"innkeeper/internal/events"
)

// ErrPaymentStatusTimeout signals the upstream payment provider never
// reported a terminal status within the configured polling budget.
var ErrPaymentStatusTimeout = errors.New("payment status polling timed out")

var errPaymentPending = errors.New("payment still pending")

// PaymentStatusStep polls the payment gateway until the payment reaches a
// terminal status, then persists the normalized status. Polling is bounded;
// exhausting the budget fails the run with ErrPaymentStatusTimeout rather
// than waiting forever.
type PaymentStatusStep struct {
	gateway PaymentGateway
	store   Store
	retry   RetryPolicy
}

// NewPaymentStatusStep constructs a PaymentStatusStep polling every interval,
// at most maxAttempts times.
func NewPaymentStatusStep(gateway PaymentGateway, store Store, interval time.Duration, maxAttempts int) *PaymentStatusStep {
	return &PaymentStatusStep{
		gateway: gateway,
		store:   store,
		retry: RetryPolicy{
			MaxAttempts: maxAttempts,
			Interval:    interval,
			ShouldRetry: func(err error) bool { return errors.Is(err, errPaymentPending) },
		},
	}
}

func (s *PaymentStatusStep) Name() string { return "payment_status" }

func (s *PaymentStatusStep) Validate(ev Event) Decision {
	if ev.OrderID == "" || ev.UserEmail == "" {
		return Abort("order id and user email are required")
	}
	if ev.PaymentID == "" {
		return Abort("payment id is required before status polling")
	}
	if ev.BackendPaymentStatus != "" {
		return Skip()
	}
	return Proceed()
}

func (s *PaymentStatusStep) Execute(ctx context.Context, ev Event, notifier *events.Notifier) (Event, error) {
	var state PaymentState
	err := s.retry.Do(ctx, func() error {
		observed, statusErr := s.gateway.Status(ctx, ev.PaymentID)
		if statusErr != nil {
			return statusErr
		}
		if !observed.Finished {
			return errPaymentPending
		}
		state = observed
		return nil
	})
	if errors.Is(err, errPaymentPending) {
		return ev, ErrPaymentStatusTimeout
	}
	if err != nil {
		return ev, err
	}

	ev.PaymentStatus = state.Status
	ev.BackendPaymentStatus = normalizePaymentStatus(state.Status)
	if err := s.store.UpdatePaymentStatus(ctx, ev.OrderID, ev.UserEmail, ev.BackendPaymentStatus); err != nil {
		return ev, err
	}
	return ev, nil
}

func normalizePaymentStatus(raw string) string {
	switch strings.ToLower(raw) {
	case "finished", "succeeded", "paid", "captured", "confirmed":
		return PaymentStatusPaid
	default:
		return PaymentStatusFailed
	}
}
