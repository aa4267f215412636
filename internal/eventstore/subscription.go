package eventstore

import (
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/zitadel/zitadel-eventstore-core/internal/metrics"
)

// subscriptionQueueSize bounds each subscriber's channel; once full, the
// oldest pending event is dropped. Subscribers that require durability
// must use the projection engine, not the bus.
const subscriptionQueueSize = 1024

// Subscription is an in-process, best-effort, at-most-once fan-out
// consumer of newly-committed events.
type Subscription struct {
	// ID is a random, non-sortable identifier useful for logging and
	// metrics labels; nothing orders subscriptions by it.
	ID string

	events chan Event

	mu      sync.Mutex
	active  bool
	matches func(Event) bool
	limiter *rate.Limiter
	bus     *subscriptionBus
}

// Events returns the channel subscribers range over. It closes when
// Unsubscribe is called.
func (s *Subscription) Events() <-chan Event { return s.events }

// Unsubscribe marks the subscription inactive and closes its channel;
// iteration in progress observes the close and ends.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	s.bus.remove(s)
	close(s.events)
}

// offer delivers e to the subscriber if it matches, dropping the oldest
// queued event on overflow rather than blocking the publisher.
func (s *Subscription) offer(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || !s.matches(e) {
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		metrics.SubscriptionDrops.Inc()
		return
	}
	for {
		select {
		case s.events <- e:
			return
		default:
		}
		select {
		case <-s.events:
			metrics.SubscriptionDrops.Inc()
		default:
			return
		}
	}
}

// subscriptionBus is the process-wide post-commit publisher. It
// is optional: an Eventstore built without WithBus (tests, replicas) never
// constructs one, so Publish is a guarded no-op on a nil *subscriptionBus.
type subscriptionBus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func newSubscriptionBus() *subscriptionBus {
	return &subscriptionBus{subs: map[*Subscription]struct{}{}}
}

// Publish fans out events, in order, to every subscription whose filter
// matches. Called once per committed Push, after the transaction commits.
func (b *subscriptionBus) Publish(events ...Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, e := range events {
		for sub := range b.subs {
			sub.offer(e)
		}
	}
}

func (b *subscriptionBus) add(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub] = struct{}{}
}

func (b *subscriptionBus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, sub)
}

func (b *subscriptionBus) newSubscription(matches func(Event) bool) *Subscription {
	if b == nil {
		// Bus disabled: hand out a closed subscription so iteration ends
		// immediately instead of blocking forever.
		events := make(chan Event)
		close(events)
		return &Subscription{ID: uuid.NewString(), events: events}
	}
	sub := &Subscription{
		ID:      uuid.NewString(),
		events:  make(chan Event, subscriptionQueueSize),
		active:  true,
		matches: matches,
		limiter: rate.NewLimiter(rate.Limit(10000), 1000),
		bus:     b,
	}
	b.add(sub)
	return sub
}

// Subscribe creates a subscription matching any event whose aggregate type
// is in the given set.
func (es *Eventstore) Subscribe(aggregates ...AggregateType) *Subscription {
	set := make(map[AggregateType]struct{}, len(aggregates))
	for _, a := range aggregates {
		set[a] = struct{}{}
	}
	return es.bus.newSubscription(func(e Event) bool {
		_, ok := set[e.Aggregate().Type]
		return ok
	})
}

// SubscribeEventTypes creates a subscription matching events whose
// aggregate type maps to a set containing their event type.
func (es *Eventstore) SubscribeEventTypes(filter map[AggregateType][]EventType) *Subscription {
	return es.bus.newSubscription(func(e Event) bool {
		types, ok := filter[e.Aggregate().Type]
		if !ok {
			return false
		}
		return containsEventType(types, e.Type())
	})
}
