package command

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
)

// Step is one stage of a multi-step command: given the already-pending
// events from earlier steps, it validates against whatever write-model
// state it needs, and returns the additional commands to append plus an
// arbitrary outcome value the caller
// inspects after the whole chain runs. A step that fails returns a non-nil
// error and no further steps run.
type Step func(ctx context.Context, store *eventstore.Eventstore, pending []eventstore.Command) (commands []eventstore.Command, outcome any, err error)

// runSteps threads pending across steps, in order, collecting every
// command they emit, then returns the full list plus each step's outcome in
// call order. No command is pushed here; the caller pushes the aggregated
// list in a single transaction, deferring side effects until validation
// succeeds.
func runSteps(ctx context.Context, store *eventstore.Eventstore, steps ...Step) ([]eventstore.Command, []any, error) {
	var pending []eventstore.Command
	outcomes := make([]any, 0, len(steps))
	for _, step := range steps {
		cmds, outcome, err := step(ctx, store, pending)
		if err != nil {
			return nil, nil, err
		}
		pending = append(pending, cmds...)
		outcomes = append(outcomes, outcome)
	}
	return pending, outcomes, nil
}

// pushAll is the combinator's final step: push everything steps produced in
// one transaction and return the persisted events.
func pushAll(ctx context.Context, store *eventstore.Eventstore, commands []eventstore.Command) ([]eventstore.Event, error) {
	if len(commands) == 0 {
		return nil, nil
	}
	return store.Push(ctx, commands...)
}
