package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// TestAddMachineKey_Lifecycle covers the machine-key state machine of the
// command pipeline: UNSPECIFIED -> ACTIVE -> REMOVED, and that removing an
// already-removed key fails NotFound.
func TestAddMachineKey_Lifecycle(t *testing.T) {
	c := newUserTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, userID, err := c.AddMachineUser(ctx, "org1", "ci-bot", "CI Bot", "")
	require.NoError(t, err)

	details, keyID, err := c.AddMachineKey(ctx, userID, time.Now().Add(24*time.Hour), []byte("pub"))
	require.NoError(t, err)
	require.NotEmpty(t, keyID)
	require.Equal(t, uint64(2), details.Sequence)

	_, err = c.RemoveMachineKey(ctx, userID, keyID)
	require.NoError(t, err)

	_, err = c.RemoveMachineKey(ctx, userID, keyID)
	require.Error(t, err)
	require.True(t, zerrors.IsNotFound(err))
	require.ErrorContains(t, err, "COMMAND-MKey20")
}

// TestAddMachineKey_ExpirationMustBeFuture: an expiration at or before now
// is rejected before any event is written.
func TestAddMachineKey_ExpirationMustBeFuture(t *testing.T) {
	c := newUserTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, userID, err := c.AddMachineUser(ctx, "org1", "ci-bot", "CI Bot", "")
	require.NoError(t, err)

	_, _, err = c.AddMachineKey(ctx, userID, time.Now().Add(-time.Minute), nil)
	require.Error(t, err)
	require.True(t, zerrors.IsInvalidArgument(err))
	require.ErrorContains(t, err, "COMMAND-MKey10")
}

// TestAddMachineKey_RequiresMachineUser: keys attach only to machine users.
func TestAddMachineKey_RequiresMachineUser(t *testing.T) {
	c := newUserTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, userID, err := c.AddHumanUser(ctx, "org1", "alice", "Alice", "Doe", "alice@example.com")
	require.NoError(t, err)

	_, _, err = c.AddMachineKey(ctx, userID, time.Now().Add(time.Hour), nil)
	require.Error(t, err)
	require.True(t, zerrors.IsPreconditionFailed(err))
	require.ErrorContains(t, err, "COMMAND-MKey11")
}

// TestMachineKeyWriteModel_FiltersByKeyID: a second key's events must not
// leak into another key's write model, while the sequence still advances
// over the full stream.
func TestMachineKeyWriteModel_FiltersByKeyID(t *testing.T) {
	c := newUserTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, userID, err := c.AddMachineUser(ctx, "org1", "ci-bot", "CI Bot", "")
	require.NoError(t, err)

	_, key1, err := c.AddMachineKey(ctx, userID, time.Now().Add(time.Hour), nil)
	require.NoError(t, err)
	_, key2, err := c.AddMachineKey(ctx, userID, time.Now().Add(2*time.Hour), nil)
	require.NoError(t, err)

	_, err = c.RemoveMachineKey(ctx, userID, key1)
	require.NoError(t, err)

	wm := NewMachineKeyWriteModel("i1", userID, key2)
	require.NoError(t, load(context.Background(), c.Eventstore, wm))
	require.Equal(t, MachineKeyStateActive, wm.State)
	require.Equal(t, uint64(4), wm.Sequence)
}
