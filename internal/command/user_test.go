package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore/eventstoretest"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/user"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

func newUserTestCommands() *Commands {
	es := eventstore.New(eventstoretest.New())
	user.RegisterMappers(es)
	return New(es, &seqIDs{}, authz.AllowAll{}, LengthHasher{})
}

// TestAddHumanUser_UsernameUniquePerInstance: a second
// human user with the same username in the same instance collides, and
// removing the first frees it for reuse.
func TestAddHumanUser_UsernameUniquePerInstance(t *testing.T) {
	c := newUserTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, userID, err := c.AddHumanUser(ctx, "org1", "alice", "Alice", "Doe", "alice@example.com")
	require.NoError(t, err)

	_, _, err = c.AddHumanUser(ctx, "org1", "alice", "Alice", "Other", "alice2@example.com")
	require.Error(t, err)
	require.True(t, zerrors.IsUniqueConstraintViolation(err))

	_, err = c.RemoveUser(ctx, userID)
	require.NoError(t, err)

	_, _, err = c.AddHumanUser(ctx, "org1", "alice", "Alice", "Doe", "alice@example.com")
	require.NoError(t, err)
}

// TestAddHumanUser_SameUsernameAcrossInstancesAllowed: a per-instance
// unique constraint must not collide across
// separate instances.
func TestAddHumanUser_SameUsernameAcrossInstancesAllowed(t *testing.T) {
	c := newUserTestCommands()

	ctx1 := authz.WithInstanceID(context.Background(), "i1")
	_, _, err := c.AddHumanUser(ctx1, "org1", "alice", "Alice", "Doe", "alice@example.com")
	require.NoError(t, err)

	ctx2 := authz.WithInstanceID(context.Background(), "i2")
	_, _, err = c.AddHumanUser(ctx2, "org1", "alice", "Alice", "Doe", "alice@example.com")
	require.NoError(t, err)
}

// TestUserLifecycle covers ACTIVE -> DEACTIVATED -> ACTIVE -> REMOVED, and
// that operating on a removed user fails NotFound.
func TestUserLifecycle(t *testing.T) {
	c := newUserTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, userID, err := c.AddHumanUser(ctx, "org1", "alice", "Alice", "Doe", "alice@example.com")
	require.NoError(t, err)

	_, err = c.DeactivateUser(ctx, userID)
	require.NoError(t, err)

	_, err = c.DeactivateUser(ctx, userID)
	require.Error(t, err)
	require.True(t, zerrors.IsPreconditionFailed(err))
	require.ErrorContains(t, err, "COMMAND-User30")

	_, err = c.ReactivateUser(ctx, userID)
	require.NoError(t, err)

	_, err = c.RemoveUser(ctx, userID)
	require.NoError(t, err)

	_, err = c.RemoveUser(ctx, userID)
	require.Error(t, err)
	require.True(t, zerrors.IsNotFound(err))
}
