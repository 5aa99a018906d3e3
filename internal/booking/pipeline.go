package booking

import (
	"context"
	"fmt"

	"innkeeper/internal/events"
)

// Action is a step's validation verdict.
type Action int

const (
	ActionRun Action = iota
	ActionSkip
	ActionAbort
)

// Decision tells the executor what to do with a step.
type Decision struct {
	Action Action
	Reason string
}

// Proceed runs the step.
func Proceed() Decision { return Decision{Action: ActionRun} }

// Skip leaves the event untouched and moves on to the next step.
func Skip() Decision { return Decision{Action: ActionSkip} }

// Abort terminates the whole pipeline with the given reason.
func Abort(reason string) Decision { return Decision{Action: ActionAbort, Reason: reason} }

// Step is one stage of the fulfillment pipeline. Steps are stateless; all
// mutable state lives in the Event passed through the chain.
type Step interface {
	Name() string
	Validate(ev Event) Decision
	Execute(ctx context.Context, ev Event, notifier *events.Notifier) (Event, error)
}

// ProcessPipeline runs the ordered steps against the event, emitting a
// lifecycle event around every transition. Order is significant and fixed by
// the caller: step n may depend on fields set by step n-1, so steps never
// run in parallel and are never reordered.
//
// An Abort decision or an execution error terminates the run immediately; no
// later step runs and no retry happens at this layer. The notifier may be
// nil, in which case every emission is a no-op.
func ProcessPipeline(ctx context.Context, ev Event, steps []Step, notifier *events.Notifier) (Event, error) {
	run := events.NewRun(ev.OrderID, ev.UserEmail)
	notifier.PipelineStart(run)

	current := ev
	for _, step := range steps {
		decision := step.Validate(current)
		switch decision.Action {
		case ActionAbort:
			notifier.PipelineAbort(run, step.Name())
			return current, fmt.Errorf("pipeline aborted at %s: %s", step.Name(), decision.Reason)
		case ActionSkip:
			notifier.StepSkipped(run, step.Name())
			continue
		}

		notifier.StepStart(run, step.Name())
		next, err := step.Execute(ctx, current, notifier)
		if err != nil {
			return current, fmt.Errorf("%s: %w", step.Name(), err)
		}
		current = next
		notifier.StepCompleted(run, step.Name())
	}

	notifier.PipelineEnd(run)
	return current, nil
}
