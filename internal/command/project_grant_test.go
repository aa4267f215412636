package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore/eventstoretest"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/org"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/project"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

func newGrantTestCommands() *Commands {
	es := eventstore.New(eventstoretest.New())
	project.RegisterMappers(es)
	org.RegisterMappers(es)
	return New(es, &seqIDs{}, authz.AllowAll{}, LengthHasher{})
}

// TestAddProjectRole_KeyUniquePerProject: the same role key collides within
// one project but is free in another.
func TestAddProjectRole_KeyUniquePerProject(t *testing.T) {
	c := newGrantTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, proj1, err := c.AddProject(ctx, "org1", "CRM")
	require.NoError(t, err)
	_, proj2, err := c.AddProject(ctx, "org1", "ERP")
	require.NoError(t, err)

	_, err = c.AddProjectRole(ctx, proj1, "admin", "Administrator", "")
	require.NoError(t, err)

	_, err = c.AddProjectRole(ctx, proj1, "admin", "Administrator", "")
	require.Error(t, err)
	require.True(t, zerrors.IsAlreadyExists(err))

	_, err = c.AddProjectRole(ctx, proj2, "admin", "Administrator", "")
	require.NoError(t, err)
}

// TestAddProjectGrant_PairUniqueAndReferential: the (project, granted org)
// pair is unique per instance, the granted org must be ACTIVE, and every
// granted role key must exist on the project.
func TestAddProjectGrant_PairUniqueAndReferential(t *testing.T) {
	c := newGrantTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, grantedOrg, err := c.AddOrg(ctx, "Globex")
	require.NoError(t, err)
	_, projID, err := c.AddProject(ctx, "org1", "CRM")
	require.NoError(t, err)
	_, err = c.AddProjectRole(ctx, projID, "reader", "", "")
	require.NoError(t, err)

	_, _, err = c.AddProjectGrant(ctx, projID, grantedOrg, []string{"writer"})
	require.Error(t, err)
	require.True(t, zerrors.IsPreconditionFailed(err))
	require.ErrorContains(t, err, "COMMAND-Grant12")

	_, grantID, err := c.AddProjectGrant(ctx, projID, grantedOrg, []string{"reader"})
	require.NoError(t, err)

	_, _, err = c.AddProjectGrant(ctx, projID, grantedOrg, nil)
	require.Error(t, err)
	require.True(t, zerrors.IsUniqueConstraintViolation(err))

	_, err = c.RemoveProjectGrant(ctx, projID, grantID)
	require.NoError(t, err)

	_, _, err = c.AddProjectGrant(ctx, projID, grantedOrg, []string{"reader"})
	require.NoError(t, err)
}

// TestAddProjectGrant_GrantedOrgMustBeActive: the referential precondition
// on the granted org, checked at command time.
func TestAddProjectGrant_GrantedOrgMustBeActive(t *testing.T) {
	c := newGrantTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, grantedOrg, err := c.AddOrg(ctx, "Globex")
	require.NoError(t, err)
	_, err = c.DeactivateOrg(ctx, grantedOrg)
	require.NoError(t, err)

	_, projID, err := c.AddProject(ctx, "org1", "CRM")
	require.NoError(t, err)

	_, _, err = c.AddProjectGrant(ctx, projID, grantedOrg, nil)
	require.Error(t, err)
	require.True(t, zerrors.IsPreconditionFailed(err))
	require.ErrorContains(t, err, "COMMAND-Grant13")
}

// TestRemoveProjectRole_InUseByGrant: a role referenced by an active grant
// cannot be removed.
func TestRemoveProjectRole_InUseByGrant(t *testing.T) {
	c := newGrantTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, grantedOrg, err := c.AddOrg(ctx, "Globex")
	require.NoError(t, err)
	_, projID, err := c.AddProject(ctx, "org1", "CRM")
	require.NoError(t, err)
	_, err = c.AddProjectRole(ctx, projID, "reader", "", "")
	require.NoError(t, err)
	_, grantID, err := c.AddProjectGrant(ctx, projID, grantedOrg, []string{"reader"})
	require.NoError(t, err)

	_, err = c.RemoveProjectRole(ctx, projID, "reader")
	require.Error(t, err)
	require.True(t, zerrors.IsPreconditionFailed(err))
	require.ErrorContains(t, err, "COMMAND-Role30")

	_, err = c.RemoveProjectGrant(ctx, projID, grantID)
	require.NoError(t, err)

	_, err = c.RemoveProjectRole(ctx, projID, "reader")
	require.NoError(t, err)
}
