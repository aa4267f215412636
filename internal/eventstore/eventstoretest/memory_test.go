package eventstoretest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

type testCommand struct {
	agg      *eventstore.Aggregate
	typ      eventstore.EventType
	payload  any
	required uint64
	unique   []*eventstore.UniqueConstraint
}

func (c *testCommand) Aggregate() *eventstore.Aggregate                  { return c.agg }
func (c *testCommand) Type() eventstore.EventType                        { return c.typ }
func (c *testCommand) Payload() any                                      { return c.payload }
func (c *testCommand) Creator() string                                   { return "system" }
func (c *testCommand) RequiredSequence() uint64                          { return c.required }
func (c *testCommand) UniqueConstraints() []*eventstore.UniqueConstraint { return c.unique }

func addedCmd(instanceID, aggID string) *testCommand {
	return &testCommand{
		agg: &eventstore.Aggregate{ID: aggID, Type: "org", InstanceID: instanceID},
		typ: "org.added",
	}
}

// TestPush_ContiguousVersions verifies that repeated pushes to
// the same aggregate get contiguous, 1-based versions.
func TestPush_ContiguousVersions(t *testing.T) {
	repo := New()
	ctx := context.Background()

	events, err := repo.Push(ctx, addedCmd("i1", "a1"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), events[0].Sequence())

	second := addedCmd("i1", "a1")
	second.typ = "org.changed"
	events, err = repo.Push(ctx, second)
	require.NoError(t, err)
	require.Equal(t, uint64(2), events[0].Sequence())
}

// TestPush_MultiCommandBatchSharesPositionOrdersByInTxOrder verifies that
// events of one transactional append share a logical position but
// tie-break by ascending in-tx order.
func TestPush_MultiCommandBatchSharesPositionOrdersByInTxOrder(t *testing.T) {
	repo := New()
	ctx := context.Background()

	events, err := repo.Push(ctx, addedCmd("i1", "a1"), addedCmd("i1", "a2"))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, events[0].Position(), events[1].Position())
	require.Equal(t, uint32(0), events[0].InTxOrder())
	require.Equal(t, uint32(1), events[1].InTxOrder())
}

// TestPush_ConcurrencyConflictIsExclusive verifies that a
// stale RequiredSequence fails, and failure leaves no partial state (the
// aggregate's version is unchanged and a retry with the correct
// precondition succeeds).
func TestPush_ConcurrencyConflictIsExclusive(t *testing.T) {
	repo := New()
	ctx := context.Background()

	_, err := repo.Push(ctx, addedCmd("i1", "a1"))
	require.NoError(t, err)

	stale := addedCmd("i1", "a1")
	stale.required = 5
	_, err = repo.Push(ctx, stale)
	require.Error(t, err)
	require.True(t, zerrors.IsConcurrencyConflict(err))

	correct := addedCmd("i1", "a1")
	correct.required = 1
	events, err := repo.Push(ctx, correct)
	require.NoError(t, err)
	require.Equal(t, uint64(2), events[0].Sequence())
}

// TestPush_UniqueConstraintAddThenRemoveLifecycle: adding the same unique
// value twice fails, releasing it allows reuse.
func TestPush_UniqueConstraintAddThenRemoveLifecycle(t *testing.T) {
	repo := New()
	ctx := context.Background()

	add := addedCmd("i1", "a1")
	add.unique = []*eventstore.UniqueConstraint{eventstore.NewAddUniqueConstraint("org_name", "acme", "already exists")}
	_, err := repo.Push(ctx, add)
	require.NoError(t, err)

	dup := addedCmd("i1", "a2")
	dup.unique = []*eventstore.UniqueConstraint{eventstore.NewAddUniqueConstraint("org_name", "acme", "already exists")}
	_, err = repo.Push(ctx, dup)
	require.Error(t, err)
	require.True(t, zerrors.IsUniqueConstraintViolation(err))

	remove := addedCmd("i1", "a1")
	remove.typ = "org.removed"
	remove.required = 1
	remove.unique = []*eventstore.UniqueConstraint{eventstore.NewRemoveUniqueConstraint("org_name", "acme")}
	_, err = repo.Push(ctx, remove)
	require.NoError(t, err)

	_, err = repo.Push(ctx, dup)
	require.NoError(t, err)
}

// TestPush_UniqueConstraintBatchIsAtomic covers the all-or-nothing
// guarantee a multi-command batch must give its unique-constraint intents:
// a later command's collision must not leave an earlier command's
// constraint registered.
func TestPush_UniqueConstraintBatchIsAtomic(t *testing.T) {
	repo := New()
	ctx := context.Background()

	seed := addedCmd("i1", "seed")
	seed.unique = []*eventstore.UniqueConstraint{eventstore.NewAddUniqueConstraint("org_name", "acme", "already exists")}
	_, err := repo.Push(ctx, seed)
	require.NoError(t, err)

	first := addedCmd("i1", "a1")
	first.unique = []*eventstore.UniqueConstraint{eventstore.NewAddUniqueConstraint("org_name", "globex", "already exists")}
	second := addedCmd("i1", "a2")
	second.unique = []*eventstore.UniqueConstraint{eventstore.NewAddUniqueConstraint("org_name", "acme", "already exists")}

	_, err = repo.Push(ctx, first, second)
	require.Error(t, err)

	retry := addedCmd("i1", "a3")
	retry.unique = []*eventstore.UniqueConstraint{eventstore.NewAddUniqueConstraint("org_name", "globex", "already exists")}
	_, err = repo.Push(ctx, retry)
	require.NoError(t, err, "globex must not have been committed by the failed batch")
}

// TestPush_GlobalConstraintCollidesAcrossInstances: a global unique
// constraint collides across instances; a non-global
// one of the same type/value does not.
func TestPush_GlobalConstraintCollidesAcrossInstances(t *testing.T) {
	repo := New()
	ctx := context.Background()

	globalFirst := addedCmd("i1", "a1")
	globalFirst.unique = []*eventstore.UniqueConstraint{{UniqueType: "org_name", UniqueField: "acme", IsGlobal: true, Action: eventstore.UniqueConstraintAdd}}
	_, err := repo.Push(ctx, globalFirst)
	require.NoError(t, err)

	globalSecond := addedCmd("i2", "a2")
	globalSecond.unique = []*eventstore.UniqueConstraint{{UniqueType: "org_name", UniqueField: "acme", IsGlobal: true, Action: eventstore.UniqueConstraintAdd}}
	_, err = repo.Push(ctx, globalSecond)
	require.Error(t, err)

	scopedFirst := addedCmd("i1", "b1")
	scopedFirst.unique = []*eventstore.UniqueConstraint{eventstore.NewAddUniqueConstraint("username", "alice", "taken")}
	_, err = repo.Push(ctx, scopedFirst)
	require.NoError(t, err)

	scopedSecond := addedCmd("i2", "b2")
	scopedSecond.unique = []*eventstore.UniqueConstraint{eventstore.NewAddUniqueConstraint("username", "alice", "taken")}
	_, err = repo.Push(ctx, scopedSecond)
	require.NoError(t, err, "a per-instance constraint must not collide across instances")
}

// TestPush_RejectsNullByteInPayload verifies that a payload whose
// encoded bytes contain a raw null (e.g. forwarded as a json.RawMessage
// rather than re-marshaled from a Go string, which encoding/json would
// otherwise always escape to the six-character sequence `\u0000`) is
// rejected rather than silently truncated or stored. encoding/json's
// validation of the RawMessage fails while Push marshals the payload, so
// the rejection happens there, before the null-byte check.
func TestPush_RejectsNullByteInPayload(t *testing.T) {
	repo := New()
	cmd := addedCmd("i1", "a1")
	cmd.payload = json.RawMessage("{\"name\":\"ac\x00me\"}")

	_, err := repo.Push(context.Background(), cmd)
	require.Error(t, err)
}

// TestPush_HandlesUnicodePayload: a
// payload containing multi-byte unicode round-trips unchanged.
func TestPush_HandlesUnicodePayload(t *testing.T) {
	repo := New()
	cmd := addedCmd("i1", "a1")
	cmd.payload = map[string]string{"name": "Acmé 株式会社 🏢"}

	events, err := repo.Push(context.Background(), cmd)
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, events[0].Unmarshal(&decoded))
	require.Equal(t, "Acmé 株式会社 🏢", decoded["name"])
}

func TestFilter_OrdersByPositionThenInTxOrder(t *testing.T) {
	repo := New()
	ctx := context.Background()

	_, err := repo.Push(ctx, addedCmd("i1", "a1"), addedCmd("i1", "a2"))
	require.NoError(t, err)
	_, err = repo.Push(ctx, addedCmd("i1", "a3"))
	require.NoError(t, err)

	query := eventstore.NewSearchQueryBuilder("i1").OrderAsc()
	query.AddQuery().AggregateTypes("org")
	events, err := repo.Filter(ctx, query)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, "a1", events[0].Aggregate().ID)
	require.Equal(t, "a2", events[1].Aggregate().ID)
	require.Equal(t, "a3", events[2].Aggregate().ID)
}

func TestFilter_ScopesByInstance(t *testing.T) {
	repo := New()
	ctx := context.Background()

	_, err := repo.Push(ctx, addedCmd("i1", "a1"))
	require.NoError(t, err)
	_, err = repo.Push(ctx, addedCmd("i2", "a2"))
	require.NoError(t, err)

	query := eventstore.NewSearchQueryBuilder("i1")
	query.AddQuery().AggregateTypes("org")
	events, err := repo.Filter(ctx, query)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "a1", events[0].Aggregate().ID)
}
