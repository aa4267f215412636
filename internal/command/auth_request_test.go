package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore/eventstoretest"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/authrequest"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

func newAuthRequestTestCommands() *Commands {
	es := eventstore.New(eventstoretest.New())
	authrequest.RegisterMappers(es)
	return New(es, &seqIDs{}, authz.AllowAll{}, LengthHasher{})
}

// TestAuthRequestFlow_Succeeds covers the happy path: added ->
// user selected -> password checked -> succeeded, producing a one-time
// auth code.
func TestAuthRequestFlow_Succeeds(t *testing.T) {
	c := newAuthRequestTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, id, err := c.AddAuthRequest(ctx, "client1", "https://example.com/cb", "code")
	require.NoError(t, err)

	_, err = c.SelectUser(ctx, id, "user1")
	require.NoError(t, err)

	_, err = c.CheckPassword(ctx, id, "a-long-enough-password")
	require.NoError(t, err)

	_, authCode, err := c.SucceedAuthRequest(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, authCode)

	wm := NewAuthRequestWriteModel("i1", id)
	require.NoError(t, load(ctx, c.Eventstore, wm))
	require.Equal(t, AuthRequestStateSucceeded, wm.State)
}

// TestAuthRequestFlow_FailedPasswordDoesNotAdvanceState:
// a failed password check still returns success details to the caller, but
// the request's state does not advance past USER_SELECTED.
func TestAuthRequestFlow_FailedPasswordDoesNotAdvanceState(t *testing.T) {
	c := newAuthRequestTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, id, err := c.AddAuthRequest(ctx, "client1", "https://example.com/cb", "code")
	require.NoError(t, err)
	_, err = c.SelectUser(ctx, id, "user1")
	require.NoError(t, err)

	_, err = c.CheckPassword(ctx, id, "short")
	require.NoError(t, err)

	wm := NewAuthRequestWriteModel("i1", id)
	require.NoError(t, load(ctx, c.Eventstore, wm))
	require.Equal(t, AuthRequestStateUserSelected, wm.State)

	_, _, err = c.SucceedAuthRequest(ctx, id)
	require.Error(t, err)
	require.True(t, zerrors.IsPreconditionFailed(err))
	require.ErrorContains(t, err, "COMMAND-Auth40")
}

// TestAuthRequestFlow_DoubleSucceedFails covers the literal
// COMMAND-Auth41: a second SucceedAuthRequest call on an
// already-SUCCEEDED request fails.
func TestAuthRequestFlow_DoubleSucceedFails(t *testing.T) {
	c := newAuthRequestTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, id, err := c.AddAuthRequest(ctx, "client1", "https://example.com/cb", "code")
	require.NoError(t, err)
	_, err = c.SelectUser(ctx, id, "user1")
	require.NoError(t, err)
	_, err = c.CheckPassword(ctx, id, "a-long-enough-password")
	require.NoError(t, err)
	_, _, err = c.SucceedAuthRequest(ctx, id)
	require.NoError(t, err)

	_, _, err = c.SucceedAuthRequest(ctx, id)
	require.Error(t, err)
	require.True(t, zerrors.IsPreconditionFailed(err))
	require.ErrorContains(t, err, "COMMAND-Auth41")
}

// TestSelectUser_WrongStateRejected covers COMMAND-Auth20: selecting a
// user on a request that isn't freshly ADDED fails.
func TestSelectUser_WrongStateRejected(t *testing.T) {
	c := newAuthRequestTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, id, err := c.AddAuthRequest(ctx, "client1", "https://example.com/cb", "code")
	require.NoError(t, err)
	_, err = c.SelectUser(ctx, id, "user1")
	require.NoError(t, err)

	_, err = c.SelectUser(ctx, id, "user2")
	require.Error(t, err)
	require.True(t, zerrors.IsPreconditionFailed(err))
	require.ErrorContains(t, err, "COMMAND-Auth20")
}
