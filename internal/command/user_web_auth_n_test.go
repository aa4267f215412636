package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// TestWebAuthNLifecycle covers the token state machine: UNSPECIFIED ->
// NOT_READY (added, challenge issued) -> READY (verified, credential stored)
// -> REMOVED.
func TestWebAuthNLifecycle(t *testing.T) {
	c := newUserTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, userID, err := c.AddHumanUser(ctx, "org1", "alice", "Alice", "Doe", "alice@example.com")
	require.NoError(t, err)

	_, tokenID, challenge, err := c.AddHumanWebAuthN(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, tokenID)
	require.NotEmpty(t, challenge)

	wm := NewWebAuthNWriteModel("i1", userID, tokenID)
	require.NoError(t, load(ctx, c.Eventstore, wm))
	require.Equal(t, WebAuthNStateNotReady, wm.State)
	require.Equal(t, challenge, wm.Challenge)

	_, err = c.VerifyHumanWebAuthN(ctx, userID, tokenID, "packed", "YubiKey", []byte("key-id"), []byte("pubkey"), 1)
	require.NoError(t, err)

	wm = NewWebAuthNWriteModel("i1", userID, tokenID)
	require.NoError(t, load(ctx, c.Eventstore, wm))
	require.Equal(t, WebAuthNStateReady, wm.State)
	require.Equal(t, []byte("key-id"), wm.KeyID)
	require.Equal(t, []byte("pubkey"), wm.PublicKey)

	_, err = c.RemoveHumanWebAuthN(ctx, userID, tokenID)
	require.NoError(t, err)

	_, err = c.RemoveHumanWebAuthN(ctx, userID, tokenID)
	require.Error(t, err)
	require.True(t, zerrors.IsNotFound(err))
}

// TestVerifyWebAuthN_Preconditions: verifying twice fails, as does verifying
// with an empty credential.
func TestVerifyWebAuthN_Preconditions(t *testing.T) {
	c := newUserTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, userID, err := c.AddHumanUser(ctx, "org1", "alice", "Alice", "Doe", "alice@example.com")
	require.NoError(t, err)

	_, tokenID, _, err := c.AddHumanWebAuthN(ctx, userID)
	require.NoError(t, err)

	_, err = c.VerifyHumanWebAuthN(ctx, userID, tokenID, "packed", "", nil, nil, 0)
	require.Error(t, err)
	require.True(t, zerrors.IsInvalidArgument(err))
	require.ErrorContains(t, err, "COMMAND-WebAuthN10")

	_, err = c.VerifyHumanWebAuthN(ctx, userID, tokenID, "packed", "", []byte("k"), []byte("p"), 0)
	require.NoError(t, err)

	_, err = c.VerifyHumanWebAuthN(ctx, userID, tokenID, "packed", "", []byte("k"), []byte("p"), 0)
	require.Error(t, err)
	require.True(t, zerrors.IsPreconditionFailed(err))
	require.ErrorContains(t, err, "COMMAND-WebAuthN30")

	_, err = c.VerifyHumanWebAuthN(ctx, userID, "unknown-token", "packed", "", []byte("k"), []byte("p"), 0)
	require.Error(t, err)
	require.True(t, zerrors.IsNotFound(err))
	require.ErrorContains(t, err, "COMMAND-WebAuthN20")
}
