package command

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/instance"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/org"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/user"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// SetupInstance is the composite bootstrap command: it creates a tenant,
// its default org, and its first admin user in a single
// transaction, using the preparation combinator (prepare.go's runSteps/
// pushAll) instead of one Push per aggregate, so a failure partway through
// validation never leaves an instance without an org or an org without an
// admin. No permission check runs here: nothing exists yet to hold a role
// against, so callers are expected to gate access to this command outside
// the pipeline (e.g. a one-time bootstrap token), matching authz.AllowAll's
// documented use for "single-tenant bootstrap flows that run before any
// role exists".
func (c *Commands) SetupInstance(ctx context.Context, instanceName, orgName, username, firstName, lastName, email string) (details *ObjectDetails, instanceID, orgID, userID string, err error) {
	if instanceName == "" {
		return nil, "", "", "", zerrors.ThrowInvalidArgument(nil, "COMMAND-Inst01", "Errors.Instance.InvalidName")
	}

	instanceID = c.IDs.New()
	orgID = c.IDs.New()
	userID = c.IDs.New()

	addInstance := func(ctx context.Context, _ *eventstore.Eventstore, _ []eventstore.Command) ([]eventstore.Command, any, error) {
		aggregate := &eventstore.Aggregate{ID: instanceID, Type: instance.AggregateType, InstanceID: instanceID, ResourceOwner: instanceID}
		return []eventstore.Command{instance.NewAddedEvent(ctx, aggregate, instanceName)}, instanceID, nil
	}
	addOrg := func(ctx context.Context, _ *eventstore.Eventstore, _ []eventstore.Command) ([]eventstore.Command, any, error) {
		aggregate := &eventstore.Aggregate{ID: orgID, Type: org.AggregateType, InstanceID: instanceID, ResourceOwner: orgID}
		return []eventstore.Command{org.NewAddedEvent(ctx, aggregate, orgName)}, orgID, nil
	}
	addAdmin := func(ctx context.Context, _ *eventstore.Eventstore, _ []eventstore.Command) ([]eventstore.Command, any, error) {
		aggregate := &eventstore.Aggregate{ID: userID, Type: user.AggregateType, InstanceID: instanceID, ResourceOwner: orgID}
		return []eventstore.Command{user.NewHumanAddedEvent(ctx, aggregate, username, firstName, lastName, email)}, userID, nil
	}

	commands, _, err := runSteps(ctx, c.Eventstore, addInstance, addOrg, addAdmin)
	if err != nil {
		return nil, "", "", "", err
	}

	events, err := pushAll(ctx, c.Eventstore, commands)
	if err != nil {
		return nil, "", "", "", err
	}
	return detailsFromEvent(events[len(events)-1]), instanceID, orgID, userID, nil
}

// RemoveInstance tears a tenant down: it emits instance.removed, the
// trigger the projection registry watches to invoke every participating
// Handler.DeleteInstance. The
// projection-side deletion itself is out of a command's reach; this just
// records the intent the registry reacts to.
func (c *Commands) RemoveInstance(ctx context.Context, instanceID string) (*ObjectDetails, error) {
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "instance", Action: "delete", Scope: instanceID}); err != nil {
		return nil, err
	}

	wm := NewInstanceWriteModel(instanceID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.State != InstanceStateAdded {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Inst20", "Errors.Instance.NotFound")
	}

	aggregate := &eventstore.Aggregate{ID: instanceID, Type: instance.AggregateType, InstanceID: instanceID, ResourceOwner: instanceID, Version: wm.Sequence}
	event := instance.NewRemovedEvent(ctx, aggregate, wm.Name)
	events, err := c.Eventstore.Push(ctx, event)
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}
