// Package command implements the write side of the system: a reusable
// WriteModel base, the command pipeline, and a small Commands facade over
// the collaborators every handler needs.
package command

import (
	"context"
	"time"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
)

// WriteModel is embedded by every concrete write model (OrgWriteModel,
// UserWriteModel, ProjectWriteModel, AuthRequestWriteModel,
// MachineKeyWriteModel, WebAuthNWriteModel and the others). It carries the identity and version bookkeeping
// every write model shares; concrete types add their own state
// fields, buffer events via the promoted AppendEvents, and implement Reduce
// to fold them, ending with a call to WriteModel.Reduce to advance Sequence
// and clear the buffer.
type WriteModel struct {
	AggregateID   string
	ResourceOwner string
	InstanceID    string
	// Sequence is the highest aggregate_version folded so far.
	Sequence uint64
	// Events buffers events appended since the last Reduce call.
	Events []eventstore.Event
}

// Reducer is implemented by every concrete write model: reduce is pure
// and operates on the buffer
// AppendEvents fills, not on an argument list.
type Reducer interface {
	// AppendEvents buffers events for the next Reduce call.
	AppendEvents(events ...eventstore.Event)
	// Reduce folds every buffered event into the model's state, then
	// clears the buffer. Unknown event types are ignored (forward
	// compatibility).
	Reduce() error
	// Query returns the filter load uses to fetch this model's event
	// stream.
	Query() *eventstore.SearchQueryBuilder
}

// AppendEvents buffers events for the next Reduce call; concrete write
// models get this for free through embedding.
func (wm *WriteModel) AppendEvents(events ...eventstore.Event) {
	wm.Events = append(wm.Events, events...)
}

// Reduce advances Sequence and ResourceOwner to the tail of the buffered
// events and clears the buffer. Concrete write models embed WriteModel and
// call this at the end of their own Reduce, after their event-type switch
// has updated domain fields.
func (wm *WriteModel) Reduce() error {
	for _, e := range wm.Events {
		if e.Sequence() > wm.Sequence {
			wm.Sequence = e.Sequence()
		}
		if owner := e.Aggregate().ResourceOwner; owner != "" {
			wm.ResourceOwner = owner
		}
	}
	wm.Events = nil
	return nil
}

// NewQuery builds the base filter every write model's Query() narrows
// further with its own aggregate type / event type set.
func NewQuery(instanceID string, aggregateType eventstore.AggregateType, aggregateID string) *eventstore.SearchQueryBuilder {
	builder := eventstore.NewSearchQueryBuilder(instanceID).OrderAsc()
	builder.AddQuery().AggregateTypes(aggregateType).AggregateIDs(aggregateID)
	return builder
}

// load streams wm's event stream through FilterToReducer, buffering and
// reducing once per batch; after it returns, Sequence
// reflects the tail of the stream.
func load(ctx context.Context, store *eventstore.Eventstore, wm Reducer) error {
	return store.FilterToReducer(ctx, wm.Query(), reduceAdapter{wm})
}

// reduceAdapter satisfies eventstore.Reducer (Reduce(...Event) error) so a
// command-package Reducer can be passed straight to FilterToReducer without
// an import cycle between the two packages.
type reduceAdapter struct{ r Reducer }

func (a reduceAdapter) Reduce(events ...eventstore.Event) error {
	a.r.AppendEvents(events...)
	return a.r.Reduce()
}

// appendAndReduce buffers and folds newly pushed events in place, so the
// object-details returned from a command reflect post-append state without
// a reload.
func appendAndReduce(wm Reducer, events ...eventstore.Event) error {
	wm.AppendEvents(events...)
	return wm.Reduce()
}

// ObjectDetails is the result every mutating command returns.
type ObjectDetails struct {
	Sequence      uint64
	EventDate     time.Time
	ResourceOwner string
}

// detailsFromEvent projects the last pushed event of a command into its
// object-details result.
func detailsFromEvent(e eventstore.Event) *ObjectDetails {
	return &ObjectDetails{
		Sequence:      e.Sequence(),
		EventDate:     e.CreatedAt(),
		ResourceOwner: e.Aggregate().ResourceOwner,
	}
}
