package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// TestOrgDomain_VerifyReservesDomainPerInstance: the unique constraint is
// claimed on verification, not on add, and released again on removal.
func TestOrgDomain_VerifyReservesDomainPerInstance(t *testing.T) {
	c := newOrgTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, org1, err := c.AddOrg(ctx, "Acme")
	require.NoError(t, err)
	_, org2, err := c.AddOrg(ctx, "Globex")
	require.NoError(t, err)

	_, err = c.AddOrgDomain(ctx, org1, "acme.example.com")
	require.NoError(t, err)
	// Unverified, so another org may still add the same domain.
	_, err = c.AddOrgDomain(ctx, org2, "acme.example.com")
	require.NoError(t, err)

	_, err = c.VerifyOrgDomain(ctx, org1, "acme.example.com")
	require.NoError(t, err)

	_, err = c.VerifyOrgDomain(ctx, org2, "acme.example.com")
	require.Error(t, err)
	require.True(t, zerrors.IsUniqueConstraintViolation(err))

	_, err = c.RemoveOrgDomain(ctx, org1, "acme.example.com")
	require.NoError(t, err)

	_, err = c.VerifyOrgDomain(ctx, org2, "acme.example.com")
	require.NoError(t, err)
}

// TestOrgDomain_PrimaryNotRemovable: the primary domain cannot be removed
// until another domain takes over.
func TestOrgDomain_PrimaryNotRemovable(t *testing.T) {
	c := newOrgTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, orgID, err := c.AddOrg(ctx, "Acme")
	require.NoError(t, err)

	_, err = c.AddOrgDomain(ctx, orgID, "acme.example.com")
	require.NoError(t, err)
	_, err = c.VerifyOrgDomain(ctx, orgID, "acme.example.com")
	require.NoError(t, err)
	_, err = c.SetPrimaryOrgDomain(ctx, orgID, "acme.example.com")
	require.NoError(t, err)

	_, err = c.RemoveOrgDomain(ctx, orgID, "acme.example.com")
	require.Error(t, err)
	require.True(t, zerrors.IsPreconditionFailed(err))
	require.ErrorContains(t, err, "COMMAND-Dom31")

	// Promote a second domain; the first becomes removable.
	_, err = c.AddOrgDomain(ctx, orgID, "acme.example.org")
	require.NoError(t, err)
	_, err = c.VerifyOrgDomain(ctx, orgID, "acme.example.org")
	require.NoError(t, err)
	_, err = c.SetPrimaryOrgDomain(ctx, orgID, "acme.example.org")
	require.NoError(t, err)

	_, err = c.RemoveOrgDomain(ctx, orgID, "acme.example.com")
	require.NoError(t, err)
}

// TestOrgDomain_Preconditions: malformed domains, unverified primaries, and
// duplicate adds are rejected with their stable codes.
func TestOrgDomain_Preconditions(t *testing.T) {
	c := newOrgTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, orgID, err := c.AddOrg(ctx, "Acme")
	require.NoError(t, err)

	_, err = c.AddOrgDomain(ctx, orgID, "not-a-domain")
	require.Error(t, err)
	require.True(t, zerrors.IsInvalidArgument(err))
	require.ErrorContains(t, err, "COMMAND-Dom10")

	_, err = c.AddOrgDomain(ctx, orgID, "acme.example.com")
	require.NoError(t, err)

	_, err = c.AddOrgDomain(ctx, orgID, "acme.example.com")
	require.Error(t, err)
	require.True(t, zerrors.IsAlreadyExists(err))
	require.ErrorContains(t, err, "COMMAND-Dom12")

	_, err = c.SetPrimaryOrgDomain(ctx, orgID, "acme.example.com")
	require.Error(t, err)
	require.True(t, zerrors.IsPreconditionFailed(err))
	require.ErrorContains(t, err, "COMMAND-Dom30")
}
