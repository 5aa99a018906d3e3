package events

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies a pipeline lifecycle transition.
type Type string

const (
	TypePipelineStart Type = "OnPipelineStart"
	TypeStepStart     Type = "OnStepStart"
	TypeStepCompleted Type = "OnStepCompleted"
	TypeStepSkipped   Type = "OnStepSkipped"
	TypePipelineAbort Type = "OnPipelineAbort"
	TypePipelineEnd   Type = "OnPipelineEnd"
)

// Event is one lifecycle emission. Constructed and published exactly once
// per transition, never mutated after construction, and not retained by the
// bus. It carries signals only, never raw error payloads.
type Event struct {
	EventID       string    `json:"event_id"`
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
	OrderID       string    `json:"order_id"`
	Step          string    `json:"step,omitempty"`
	Type          Type      `json:"type"`
	Email         string    `json:"email"`
	Topic         string    `json:"-"`
}

// Run identifies one pipeline execution in notifier emissions. The
// correlation id is stable across every event of the run.
type Run struct {
	CorrelationID string
	OrderID       string
	Email         string
}

// NewRun allocates a fresh correlation id for a pipeline execution.
func NewRun(orderID, email string) Run {
	return Run{
		CorrelationID: uuid.NewString(),
		OrderID:       orderID,
		Email:         email,
	}
}

// Notifier publishes pipeline lifecycle events through a Bus, keyed by the
// recipient email. A nil Notifier is valid everywhere; every emission becomes
// a no-op, so a pipeline can run with no listeners at all.
type Notifier struct {
	bus *Bus
	now func() time.Time
}

// NewNotifier constructs a Notifier over the given bus.
func NewNotifier(bus *Bus) *Notifier {
	return &Notifier{bus: bus, now: time.Now}
}

// TopicFor derives the bus topic for a recipient email.
func TopicFor(email string) string {
	return "booking:" + email
}

func (n *Notifier) PipelineStart(run Run) { n.emit(run, "", TypePipelineStart) }
func (n *Notifier) PipelineEnd(run Run)   { n.emit(run, "", TypePipelineEnd) }

func (n *Notifier) StepStart(run Run, step string)     { n.emit(run, step, TypeStepStart) }
func (n *Notifier) StepCompleted(run Run, step string) { n.emit(run, step, TypeStepCompleted) }
func (n *Notifier) StepSkipped(run Run, step string)   { n.emit(run, step, TypeStepSkipped) }
func (n *Notifier) PipelineAbort(run Run, step string) { n.emit(run, step, TypePipelineAbort) }

func (n *Notifier) emit(run Run, step string, typ Type) {
	if n == nil || n.bus == nil {
		return
	}
	n.bus.Publish(TopicFor(run.Email), Event{
		EventID:       uuid.NewString(),
		CorrelationID: run.CorrelationID,
		Timestamp:     n.now(),
		OrderID:       run.OrderID,
		Step:          step,
		Type:          typ,
		Email:         run.Email,
	})
}
