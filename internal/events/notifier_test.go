package events

import (
	"testing"
	"time"
)

func TestNotifierEmitsOnRecipientTopic(t *testing.T) {
	bus := NewBus(10, nil)
	notifier := NewNotifier(bus)

	id, ch := bus.Subscribe(TopicFor("guest@example.com"))
	t.Cleanup(func() { bus.Unsubscribe(id) })

	run := NewRun("order-1", "guest@example.com")
	notifier.PipelineStart(run)
	notifier.StepStart(run, "payment_status")
	notifier.StepCompleted(run, "payment_status")
	notifier.PipelineEnd(run)

	wantTypes := []Type{TypePipelineStart, TypeStepStart, TypeStepCompleted, TypePipelineEnd}
	seen := make(map[string]bool)
	for i, want := range wantTypes {
		ev := recv(t, ch)
		if ev.Type != want {
			t.Fatalf("event %d: expected type %s, got %s", i, want, ev.Type)
		}
		if ev.CorrelationID != run.CorrelationID {
			t.Fatalf("event %d: correlation id %q, want %q", i, ev.CorrelationID, run.CorrelationID)
		}
		if ev.OrderID != "order-1" || ev.Email != "guest@example.com" {
			t.Fatalf("event %d: unexpected identity fields %+v", i, ev)
		}
		if ev.EventID == "" || seen[ev.EventID] {
			t.Fatalf("event %d: event id must be unique per emission", i)
		}
		seen[ev.EventID] = true
		if ev.Timestamp.IsZero() {
			t.Fatalf("event %d: missing timestamp", i)
		}
	}
}

func TestNotifierStepNameOnlyOnStepEvents(t *testing.T) {
	bus := NewBus(10, nil)
	notifier := NewNotifier(bus)
	id, ch := bus.Subscribe("booking:*")
	t.Cleanup(func() { bus.Unsubscribe(id) })

	run := NewRun("order-2", "guest@example.com")
	notifier.PipelineStart(run)
	notifier.StepSkipped(run, "send_email")

	if ev := recv(t, ch); ev.Step != "" {
		t.Fatalf("pipeline-level event must not carry a step name, got %q", ev.Step)
	}
	if ev := recv(t, ch); ev.Step != "send_email" || ev.Type != TypeStepSkipped {
		t.Fatalf("unexpected step event %+v", ev)
	}
}

func TestNilNotifierIsNoop(t *testing.T) {
	var notifier *Notifier
	run := NewRun("order-3", "guest@example.com")

	done := make(chan struct{})
	go func() {
		notifier.PipelineStart(run)
		notifier.StepStart(run, "s1")
		notifier.PipelineAbort(run, "s1")
		notifier.PipelineEnd(run)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("nil notifier must not block")
	}
}

func TestRunsGetDistinctCorrelationIDs(t *testing.T) {
	a := NewRun("order-1", "a@example.com")
	b := NewRun("order-1", "a@example.com")
	if a.CorrelationID == b.CorrelationID {
		t.Fatalf("expected distinct correlation ids")
	}
}
