package eventstore_test

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore/eventstoretest"
)

type testCommand struct {
	agg     *eventstore.Aggregate
	typ     eventstore.EventType
	payload any
}

func (c *testCommand) Aggregate() *eventstore.Aggregate                  { return c.agg }
func (c *testCommand) Type() eventstore.EventType                        { return c.typ }
func (c *testCommand) Payload() any                                      { return c.payload }
func (c *testCommand) Creator() string                                   { return "system" }
func (c *testCommand) RequiredSequence() uint64                          { return 0 }
func (c *testCommand) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }

func cmd(instanceID, aggID string, typ eventstore.EventType, payload any) *testCommand {
	return &testCommand{
		agg:     &eventstore.Aggregate{ID: aggID, Type: "user", InstanceID: instanceID, ResourceOwner: "org1"},
		typ:     typ,
		payload: payload,
	}
}

// collectingReducer accumulates every event it is handed, recording batch
// boundaries so tests can assert the streaming contract.
type collectingReducer struct {
	events  []eventstore.Event
	batches []int
}

func (r *collectingReducer) Reduce(events ...eventstore.Event) error {
	r.events = append(r.events, events...)
	r.batches = append(r.batches, len(events))
	return nil
}

// TestFilterToReducer_StreamsAllEventsAscending covers the streaming
// contract: 250 events pushed across separate
// transactions stream to the reducer complete, in (position, in_tx_order)
// order, with the final batch smaller than the batch size.
func TestFilterToReducer_StreamsAllEventsAscending(t *testing.T) {
	es := eventstore.New(eventstoretest.New())
	ctx := context.Background()

	const total = 250
	for i := 0; i < total; i++ {
		_, err := es.Push(ctx, cmd("i1", "u"+strconv.Itoa(i%3), "user.human.added", map[string]string{"n": strconv.Itoa(i)}))
		require.NoError(t, err)
	}

	query := eventstore.NewSearchQueryBuilder("i1")
	query.AddQuery().AggregateTypes("user")

	reducer := &collectingReducer{}
	require.NoError(t, es.FilterToReducer(ctx, query, reducer))
	require.Len(t, reducer.events, total)

	for i := 1; i < len(reducer.events); i++ {
		prev, cur := reducer.events[i-1], reducer.events[i]
		ordered := prev.Position() < cur.Position() ||
			(prev.Position() == cur.Position() && prev.InTxOrder() < cur.InTxOrder())
		require.True(t, ordered, "events out of order at index %d", i)
	}
	require.Greater(t, len(reducer.batches), 1, "250 events must stream in more than one batch")

	// Replay = live equivalence: a second full fold sees the identical
	// stream.
	replay := &collectingReducer{}
	require.NoError(t, es.FilterToReducer(ctx, query.Clone(), replay))
	require.Equal(t, len(reducer.events), len(replay.events))
	for i := range reducer.events {
		require.Equal(t, reducer.events[i].Position(), replay.events[i].Position())
		require.Equal(t, reducer.events[i].Sequence(), replay.events[i].Sequence())
	}
}

// TestEventsAfterPosition_PicksUpExactlyTheTail covers the projection
// catch-up path: after a checkpoint, only the events appended afterward are
// returned.
func TestEventsAfterPosition_PicksUpExactlyTheTail(t *testing.T) {
	es := eventstore.New(eventstoretest.New())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := es.Push(ctx, cmd("i1", "u1", "user.human.added", nil))
		require.NoError(t, err)
	}
	checkpoint, err := es.LatestPosition(ctx, eventstore.NewSearchQueryBuilder("i1"))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := es.Push(ctx, cmd("i1", "u2", "user.human.added", nil))
		require.NoError(t, err)
	}

	tail, err := es.EventsAfterPosition(ctx, "i1", checkpoint, nil)
	require.NoError(t, err)
	require.Len(t, tail, 10)
	for _, e := range tail {
		require.Greater(t, e.Position(), checkpoint)
		require.Equal(t, "u2", e.Aggregate().ID)
	}
}

// TestSubscription_ReceivesOnlyEventsAfterSubscribe: a subscription sees
// every matching event appended after it started, in
// commit order, and nothing appended before; Unsubscribe ends iteration.
func TestSubscription_ReceivesOnlyEventsAfterSubscribe(t *testing.T) {
	es := eventstore.New(eventstoretest.New(), eventstore.WithBus())
	ctx := context.Background()

	_, err := es.Push(ctx, cmd("i1", "u0", "user.human.added", nil))
	require.NoError(t, err)

	sub := es.Subscribe("user")
	defer sub.Unsubscribe()

	_, err = es.Push(ctx, cmd("i1", "u1", "user.human.added", nil))
	require.NoError(t, err)
	_, err = es.Push(ctx, cmd("i1", "u1", "user.deactivated", nil))
	require.NoError(t, err)

	first := receiveEvent(t, sub)
	require.Equal(t, "u1", first.Aggregate().ID)
	require.Equal(t, eventstore.EventType("user.human.added"), first.Type())

	second := receiveEvent(t, sub)
	require.Equal(t, eventstore.EventType("user.deactivated"), second.Type())

	sub.Unsubscribe()
	_, ok := <-sub.Events()
	require.False(t, ok, "channel must close on unsubscribe")
}

// TestSubscription_EventTypeFilter covers the event-type-map subscription
// shape: only events whose (aggregate type, event type) pair is in the map are
// delivered.
func TestSubscription_EventTypeFilter(t *testing.T) {
	es := eventstore.New(eventstoretest.New(), eventstore.WithBus())
	ctx := context.Background()

	sub := es.SubscribeEventTypes(map[eventstore.AggregateType][]eventstore.EventType{
		"user": {"user.removed"},
	})
	defer sub.Unsubscribe()

	_, err := es.Push(ctx, cmd("i1", "u1", "user.human.added", nil))
	require.NoError(t, err)
	_, err = es.Push(ctx, cmd("i1", "u1", "user.removed", nil))
	require.NoError(t, err)

	got := receiveEvent(t, sub)
	require.Equal(t, eventstore.EventType("user.removed"), got.Type())

	select {
	case e, ok := <-sub.Events():
		require.Falsef(t, ok, "unexpected extra event %v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestPush_LargePayloadRoundTrip: a 1 MiB string payload
// commits and reads back byte-identical, including characters that need
// escaping.
func TestPush_LargePayloadRoundTrip(t *testing.T) {
	es := eventstore.New(eventstoretest.New())
	ctx := context.Background()

	big := strings.Repeat("x", 1<<20) + `'"\` + "\n\t;& 🏢"
	_, err := es.Push(ctx, cmd("i1", "u1", "user.human.added", map[string]string{"blob": big}))
	require.NoError(t, err)

	query := eventstore.NewSearchQueryBuilder("i1")
	query.AddQuery().AggregateIDs("u1")
	events, err := es.Filter(ctx, query)
	require.NoError(t, err)
	require.Len(t, events, 1)

	var decoded map[string]string
	require.NoError(t, events[0].Unmarshal(&decoded))
	require.Equal(t, big, decoded["blob"])
}

func receiveEvent(t *testing.T, sub *eventstore.Subscription) eventstore.Event {
	t.Helper()
	select {
	case e, ok := <-sub.Events():
		require.True(t, ok, "subscription closed unexpectedly")
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscription event")
		return nil
	}
}
