package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"innkeeper/internal/events"
)

type scriptedStep struct {
	name     string
	decision Decision
	err      error
	mutate   func(ev Event) Event

	validated int
	executed  int
}

func (s *scriptedStep) Name() string { return s.name }

func (s *scriptedStep) Validate(ev Event) Decision {
	s.validated++
	return s.decision
}

func (s *scriptedStep) Execute(ctx context.Context, ev Event, notifier *events.Notifier) (Event, error) {
	s.executed++
	if s.err != nil {
		return ev, s.err
	}
	if s.mutate != nil {
		return s.mutate(ev), nil
	}
	return ev, nil
}

func testEvent(t *testing.T) Event {
	t.Helper()
	ev, err := NewEvent("pay-1", "order-1", "stripe", "guest@example.com")
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	return ev
}

func drainEvents(t *testing.T, ch <-chan events.Event, want int) []events.Event {
	t.Helper()
	out := make([]events.Event, 0, want)
	for len(out) < want {
		select {
		case ev := <-ch:
			out = append(out, ev)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d of %d events", len(out), want)
		}
	}
	return out
}

func TestProcessPipelineRunsStepsInOrder(t *testing.T) {
	var order []string
	mk := func(name string) *scriptedStep {
		return &scriptedStep{
			name:     name,
			decision: Proceed(),
			mutate: func(ev Event) Event {
				order = append(order, name)
				return ev
			},
		}
	}
	first, second, third := mk("first"), mk("second"), mk("third")

	_, err := ProcessPipeline(context.Background(), testEvent(t), []Step{first, second, third}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("steps ran out of order: %v", order)
	}
}

func TestProcessPipelineAbortStopsTheRun(t *testing.T) {
	first := &scriptedStep{name: "first", decision: Proceed()}
	rejecting := &scriptedStep{name: "rejecting", decision: Abort("precondition failed")}
	after := &scriptedStep{name: "after", decision: Proceed()}

	_, err := ProcessPipeline(context.Background(), testEvent(t), []Step{first, rejecting, after}, nil)
	if err == nil {
		t.Fatalf("expected abort error")
	}
	if !strings.Contains(err.Error(), "rejecting") || !strings.Contains(err.Error(), "precondition failed") {
		t.Fatalf("abort error should name the step and reason: %v", err)
	}
	if rejecting.executed != 0 {
		t.Fatalf("aborting step must not execute")
	}
	if after.validated != 0 || after.executed != 0 {
		t.Fatalf("steps after the abort must not run")
	}
}

func TestProcessPipelineSkipLeavesEventUntouched(t *testing.T) {
	skipped := &scriptedStep{name: "skipped", decision: Skip()}
	final := &scriptedStep{
		name:     "final",
		decision: Proceed(),
		mutate: func(ev Event) Event {
			ev.BackendBookingStatus = BookingStatusBooked
			return ev
		},
	}

	out, err := ProcessPipeline(context.Background(), testEvent(t), []Step{skipped, final}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped.executed != 0 {
		t.Fatalf("skipped step must not execute")
	}
	if out.BackendBookingStatus != BookingStatusBooked {
		t.Fatalf("later step must still see and mutate the event")
	}
}

func TestProcessPipelineStepErrorWrapsStepName(t *testing.T) {
	boom := errors.New("provider exploded")
	failing := &scriptedStep{name: "book_room", decision: Proceed(), err: boom}
	after := &scriptedStep{name: "after", decision: Proceed()}

	_, err := ProcessPipeline(context.Background(), testEvent(t), []Step{failing, after}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "book_room") {
		t.Fatalf("error should carry the step name: %v", err)
	}
	if after.validated != 0 {
		t.Fatalf("steps after the failure must not run")
	}
}

func TestProcessPipelineEmitsLifecycleEvents(t *testing.T) {
	bus := events.NewBus(16, nil)
	_, ch := bus.Subscribe("booking:*")
	notifier := events.NewNotifier(bus)

	steps := []Step{
		&scriptedStep{name: "one", decision: Proceed()},
		&scriptedStep{name: "two", decision: Skip()},
	}
	if _, err := ProcessPipeline(context.Background(), testEvent(t), steps, notifier); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := drainEvents(t, ch, 5)
	wantTypes := []events.Type{
		events.TypePipelineStart,
		events.TypeStepStart,
		events.TypeStepCompleted,
		events.TypeStepSkipped,
		events.TypePipelineEnd,
	}
	for i, want := range wantTypes {
		if got[i].Type != want {
			t.Fatalf("event %d: got %s, want %s", i, got[i].Type, want)
		}
	}
	for _, ev := range got[1:] {
		if ev.CorrelationID != got[0].CorrelationID {
			t.Fatalf("correlation id must be stable across the run")
		}
	}
}

func TestProcessPipelineEmitsAbortEvent(t *testing.T) {
	bus := events.NewBus(16, nil)
	_, ch := bus.Subscribe("booking:guest@example.com")
	notifier := events.NewNotifier(bus)

	steps := []Step{&scriptedStep{name: "gate", decision: Abort("nope")}}
	if _, err := ProcessPipeline(context.Background(), testEvent(t), steps, notifier); err == nil {
		t.Fatalf("expected abort error")
	}

	got := drainEvents(t, ch, 2)
	if got[0].Type != events.TypePipelineStart {
		t.Fatalf("expected pipeline start first, got %s", got[0].Type)
	}
	if got[1].Type != events.TypePipelineAbort || got[1].Step != "gate" {
		t.Fatalf("expected abort for step gate, got %+v", got[1])
	}
}

func TestProcessPipelineNilNotifier(t *testing.T) {
	steps := []Step{&scriptedStep{name: "only", decision: Proceed()}}
	if _, err := ProcessPipeline(context.Background(), testEvent(t), steps, nil); err != nil {
		t.Fatalf("nil notifier must not fail the run: %v", err)
	}
}
