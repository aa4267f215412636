package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore/eventstoretest"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/instance"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/org"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/user"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

func newInstanceTestCommands() *Commands {
	es := eventstore.New(eventstoretest.New())
	instance.RegisterMappers(es)
	org.RegisterMappers(es)
	user.RegisterMappers(es)
	return New(es, &seqIDs{}, authz.AllowAll{}, LengthHasher{})
}

// TestSetupInstance_CreatesInstanceOrgAndAdmin exercises the composite
// command end to end: one call produces an instance, its default org and
// its first admin user, all loadable afterward.
func TestSetupInstance_CreatesInstanceOrgAndAdmin(t *testing.T) {
	c := newInstanceTestCommands()
	ctx := context.Background()

	details, instanceID, orgID, userID, err := c.SetupInstance(ctx, "Acme Corp", "Acme", "admin", "Ada", "Admin", "admin@acme.test")
	require.NoError(t, err)
	require.NotEmpty(t, instanceID)
	require.NotEmpty(t, orgID)
	require.NotEmpty(t, userID)
	require.NotNil(t, details)

	instWM := NewInstanceWriteModel(instanceID)
	require.NoError(t, load(ctx, c.Eventstore, instWM))
	require.Equal(t, InstanceStateAdded, instWM.State)
	require.Equal(t, "Acme Corp", instWM.Name)

	orgWM := NewOrgWriteModel(instanceID, orgID)
	require.NoError(t, load(ctx, c.Eventstore, orgWM))
	require.Equal(t, OrgStateActive, orgWM.State)

	userWM := NewUserWriteModel(instanceID, userID)
	require.NoError(t, load(ctx, c.Eventstore, userWM))
	require.Equal(t, UserStateActive, userWM.State)
	require.Equal(t, "admin", userWM.Username)
}

// TestSetupInstance_RequiresName covers the pipeline's step-1 validation,
// run before any id is generated or any step executes.
func TestSetupInstance_RequiresName(t *testing.T) {
	c := newInstanceTestCommands()

	_, _, _, _, err := c.SetupInstance(context.Background(), "", "Acme", "admin", "Ada", "Admin", "admin@acme.test")
	require.Error(t, err)
	require.True(t, zerrors.IsInvalidArgument(err))
	require.ErrorContains(t, err, "COMMAND-Inst01")
}

// TestRemoveInstance_MarksRemovedAndRejectsRetry covers the projection
// cleanup trigger: removing an instance flips its state, and a second
// removal fails NotFound.
func TestRemoveInstance_MarksRemovedAndRejectsRetry(t *testing.T) {
	c := newInstanceTestCommands()
	ctx := context.Background()

	_, instanceID, _, _, err := c.SetupInstance(ctx, "Acme Corp", "Acme", "admin", "Ada", "Admin", "admin@acme.test")
	require.NoError(t, err)

	_, err = c.RemoveInstance(ctx, instanceID)
	require.NoError(t, err)

	wm := NewInstanceWriteModel(instanceID)
	require.NoError(t, load(ctx, c.Eventstore, wm))
	require.Equal(t, InstanceStateRemoved, wm.State)

	_, err = c.RemoveInstance(ctx, instanceID)
	require.Error(t, err)
	require.True(t, zerrors.IsNotFound(err))
	require.ErrorContains(t, err, "COMMAND-Inst20")
}
