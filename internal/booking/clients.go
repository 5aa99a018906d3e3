package booking

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// PaymentState is one observation of an upstream payment attempt. Finished
// means the provider reports a terminal status.
type PaymentState struct {
	Status   string
	Finished bool
}

// PaymentGateway reports the status of a payment attempt at the upstream
// payment provider.
type PaymentGateway interface {
	Status(ctx context.Context, paymentID string) (PaymentState, error)
}

// Mailer sends the booking confirmation email.
type Mailer interface {
	SendConfirmation(ctx context.Context, to string, rec Record) error
}

// NewMemoryPaymentGateway constructs an in-memory payment gateway.
func NewMemoryPaymentGateway() *MemoryPaymentGateway {
	return &MemoryPaymentGateway{states: make(map[string][]PaymentState)}
}

// MemoryPaymentGateway serves scripted payment states in memory. Each call
// for a payment id consumes the next scripted state; the last state repeats.
// Unscripted ids report a finished successful payment, so the service runs
// end-to-end without a live provider.
type MemoryPaymentGateway struct {
	mu     sync.Mutex
	states map[string][]PaymentState
	err    error
}

// Script queues the states returned for a payment id, in order.
func (g *MemoryPaymentGateway) Script(paymentID string, states ...PaymentState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.states[paymentID] = states
}

// Fail makes every Status call return err.
func (g *MemoryPaymentGateway) Fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *MemoryPaymentGateway) Status(ctx context.Context, paymentID string) (PaymentState, error) {
	if err := ctx.Err(); err != nil {
		return PaymentState{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil {
		return PaymentState{}, g.err
	}

	queue := g.states[paymentID]
	switch len(queue) {
	case 0:
		return PaymentState{Status: "finished", Finished: true}, nil
	case 1:
		return queue[0], nil
	default:
		g.states[paymentID] = queue[1:]
		return queue[0], nil
	}
}

// NewMemoryMailer constructs an in-memory mailer.
func NewMemoryMailer() *MemoryMailer {
	return &MemoryMailer{}
}

// MemoryMailer records confirmation sends in memory.
type MemoryMailer struct {
	mu    sync.Mutex
	sends []string
	err   error
}

// Fail makes every send return err.
func (m *MemoryMailer) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemoryMailer) SendConfirmation(ctx context.Context, to string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sends = append(m.sends, to)
	return nil
}

// Sent returns the recipients of recorded sends (for testing/inspection).
func (m *MemoryMailer) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sends...)
}

// LogMailer logs confirmations instead of delivering them. Used when no SMTP
// transport is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendConfirmation(ctx context.Context, to string, rec Record) error {
	m.logger.Info("booking confirmation email",
		zap.String("to", to),
		zap.String("order_id", rec.OrderID),
		zap.String("booking_ref", rec.BookingRef),
	)
	return nil
}
