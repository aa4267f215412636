package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// TestLoginPolicy_IsDefaultFlip covers the policy write-model
// semantics: isDefault starts true, the org-specific added event flips it to
// false, and removed flips it back to inheriting the instance default.
func TestLoginPolicy_IsDefaultFlip(t *testing.T) {
	c := newOrgTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, orgID, err := c.AddOrg(ctx, "Acme")
	require.NoError(t, err)

	wm := NewOrgLoginPolicyWriteModel("i1", orgID)
	require.NoError(t, load(ctx, c.Eventstore, wm))
	require.True(t, wm.IsDefault)

	_, err = c.AddLoginPolicy(ctx, orgID, LoginPolicy{AllowUsernamePassword: true, ForceMFA: true})
	require.NoError(t, err)

	wm = NewOrgLoginPolicyWriteModel("i1", orgID)
	require.NoError(t, load(ctx, c.Eventstore, wm))
	require.False(t, wm.IsDefault)
	require.True(t, wm.ForceMFA)

	_, err = c.RemoveLoginPolicy(ctx, orgID)
	require.NoError(t, err)

	wm = NewOrgLoginPolicyWriteModel("i1", orgID)
	require.NoError(t, load(ctx, c.Eventstore, wm))
	require.True(t, wm.IsDefault)
}

// TestLoginPolicy_Preconditions: a second add fails AlreadyExists, change
// and remove on an inherited (default) policy fail NotFound, and an
// identical change fails PreconditionFailed.
func TestLoginPolicy_Preconditions(t *testing.T) {
	c := newOrgTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, orgID, err := c.AddOrg(ctx, "Acme")
	require.NoError(t, err)

	_, err = c.ChangeLoginPolicy(ctx, orgID, LoginPolicy{AllowRegister: true})
	require.Error(t, err)
	require.True(t, zerrors.IsNotFound(err))
	require.ErrorContains(t, err, "COMMAND-Policy20")

	_, err = c.RemoveLoginPolicy(ctx, orgID)
	require.Error(t, err)
	require.True(t, zerrors.IsNotFound(err))

	policy := LoginPolicy{AllowUsernamePassword: true}
	_, err = c.AddLoginPolicy(ctx, orgID, policy)
	require.NoError(t, err)

	_, err = c.AddLoginPolicy(ctx, orgID, policy)
	require.Error(t, err)
	require.True(t, zerrors.IsAlreadyExists(err))
	require.ErrorContains(t, err, "COMMAND-Policy11")

	_, err = c.ChangeLoginPolicy(ctx, orgID, policy)
	require.Error(t, err)
	require.True(t, zerrors.IsPreconditionFailed(err))
	require.ErrorContains(t, err, "COMMAND-Policy21")

	_, err = c.ChangeLoginPolicy(ctx, orgID, LoginPolicy{AllowUsernamePassword: true, AllowRegister: true})
	require.NoError(t, err)
}
