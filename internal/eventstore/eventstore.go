// Package eventstore implements the append-only event log, its
// projection-facing read paths, and the in-process subscription bus.
package eventstore

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"github.com/zitadel/logging"

	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// defaultBatchSize is the batch FilterToReducer streams events in.
const defaultBatchSize = 100

// Eventstore is the facade callers and the projection engine use. It wraps
// a Repository with a circuit breaker (so repeated storage failures fail
// fast as zerrors.TypeTransient instead of exhausting connections) and an
// optional subscription bus.
type Eventstore struct {
	repo    Repository
	breaker *gobreaker.CircuitBreaker
	bus     *subscriptionBus
	mappers map[AggregateType]map[EventType]EventMapper
}

// Option configures an Eventstore at construction.
type Option func(*Eventstore)

// WithBus enables the in-process subscription bus. Disabled by default to
// avoid cross-test contamination.
func WithBus() Option {
	return func(es *Eventstore) { es.bus = newSubscriptionBus() }
}

func New(repo Repository, opts ...Option) *Eventstore {
	es := &Eventstore{
		repo: repo,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "eventstore",
			MaxRequests: 1,
			Interval:    0,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
		mappers: map[AggregateType]map[EventType]EventMapper{},
	}
	for _, opt := range opts {
		opt(es)
	}
	return es
}

// RegisterMapper wires a per-aggregate event's mapper (e.g.
// org.AddedEventMapper) so Filter results can be cast back to their
// concrete type by write models and projections.
func (es *Eventstore) RegisterMapper(agg AggregateType, typ EventType, mapper EventMapper) {
	m, ok := es.mappers[agg]
	if !ok {
		m = map[EventType]EventMapper{}
		es.mappers[agg] = m
	}
	m[typ] = mapper
}

func (es *Eventstore) mapEvent(e Event) (Event, error) {
	byAgg, ok := es.mappers[e.Aggregate().Type]
	if !ok {
		return e, nil
	}
	mapper, ok := byAgg[e.Type()]
	if !ok {
		return e, nil
	}
	return mapper(e)
}

// Push atomically appends one or more commands, in order, in a single
// transaction. On success, all persisted events are
// published to the subscription bus in position order.
func (es *Eventstore) Push(ctx context.Context, commands ...Command) ([]Event, error) {
	if len(commands) == 0 {
		return nil, zerrors.ThrowInvalidArgument(nil, "EVENT-4m9ds", "Errors.Internal.EventTypeMissing")
	}
	result, err := es.breaker.Execute(func() (any, error) {
		return es.repo.Push(ctx, commands...)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, zerrors.ThrowTransient(err, "EVENT-b8s1a", "Errors.Internal")
		}
		return nil, err
	}
	events := result.([]Event)
	mapped := make([]Event, len(events))
	for i, e := range events {
		me, mapErr := es.mapEvent(e)
		if mapErr != nil {
			logging.WithFields("eventType", e.Type()).WithError(mapErr).Warn("unable to map pushed event")
			me = e
		}
		mapped[i] = me
	}
	es.bus.Publish(mapped...)
	return mapped, nil
}

// Filter returns events matching query.
func (es *Eventstore) Filter(ctx context.Context, query *SearchQueryBuilder) ([]Event, error) {
	result, err := es.breaker.Execute(func() (any, error) {
		return es.repo.Filter(ctx, query)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, zerrors.ThrowTransient(err, "EVENT-s0a1x", "Errors.Internal")
		}
		return nil, err
	}
	events := result.([]Event)
	mapped := make([]Event, len(events))
	for i, e := range events {
		me, mapErr := es.mapEvent(e)
		if mapErr != nil {
			return nil, mapErr
		}
		mapped[i] = me
	}
	return mapped, nil
}

// Reducer is implemented by write models and projections that fold a
// stream of events into state.
type Reducer interface {
	Reduce(events ...Event) error
}

// FilterToReducer streams matching events to reducer in ascending order, in
// batches of defaultBatchSize, calling reducer.Reduce once per batch. If
// Reduce returns an error, streaming stops and
// the error propagates; no batch is replayed.
func (es *Eventstore) FilterToReducer(ctx context.Context, query *SearchQueryBuilder, reducer Reducer) error {
	const limit = defaultBatchSize

	var cursor float64
	var cursorTxOrder uint32
	hasCursor := false

	for {
		batch := query.Clone().Limit(limit).OrderAsc()
		if hasCursor {
			for _, q := range batch.Queries() {
				q.AfterCursor(cursor, cursorTxOrder)
			}
		}
		events, err := es.Filter(ctx, batch)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		if err := reducer.Reduce(events...); err != nil {
			return err
		}
		last := events[len(events)-1]
		cursor, cursorTxOrder, hasCursor = last.Position(), last.InTxOrder(), true
		if len(events) < limit {
			return nil
		}
	}
}

// LatestPosition returns the position of the last event matching query, or
// zero if none.
func (es *Eventstore) LatestPosition(ctx context.Context, query *SearchQueryBuilder) (float64, error) {
	result, err := es.breaker.Execute(func() (any, error) {
		return es.repo.LatestPosition(ctx, query)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return 0, zerrors.ThrowTransient(err, "EVENT-p0s1x", "Errors.Internal")
		}
		return 0, err
	}
	return result.(float64), nil
}

// EventsAfterPosition returns events with position > after matching the
// optional filter, ascending; used by
// projections to catch up.
func (es *Eventstore) EventsAfterPosition(ctx context.Context, instanceID string, after float64, filter *SearchQueryBuilder) ([]Event, error) {
	if filter == nil {
		filter = NewSearchQueryBuilder(instanceID)
	}
	for _, q := range filter.Queries() {
		q.PositionAfter(after)
	}
	filter.OrderAsc()
	return es.Filter(ctx, filter)
}

// Health reports whether the underlying storage adapter can serve requests.
func (es *Eventstore) Health(ctx context.Context) error {
	return es.repo.Health(ctx)
}
