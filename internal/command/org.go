package command

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/org"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// AddOrg creates a new org aggregate and reserves its name:
// AddOrg(name="Acme") → {orgID, sequence=1}, state ACTIVE.
func (c *Commands) AddOrg(ctx context.Context, name string) (*ObjectDetails, string, error) {
	if name == "" {
		return nil, "", zerrors.ThrowInvalidArgument(nil, "COMMAND-Org01", "Errors.Org.InvalidName")
	}
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "org", Action: "create", Scope: "instance"}); err != nil {
		return nil, "", err
	}

	orgID := c.IDs.New()
	instanceID := authz.GetInstance(ctx).InstanceID()
	aggregate := &eventstore.Aggregate{
		ID:            orgID,
		Type:          org.AggregateType,
		InstanceID:    instanceID,
		ResourceOwner: orgID,
	}

	event := org.NewAddedEvent(ctx, aggregate, name)
	events, err := c.Eventstore.Push(ctx, event)
	if err != nil {
		return nil, "", err
	}

	wm := NewOrgWriteModel(instanceID, orgID)
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, "", err
	}
	return detailsFromEvent(events[0]), orgID, nil
}

// DeactivateOrg moves an ACTIVE org to INACTIVE. Deactivating
// an already-INACTIVE org fails with COMMAND-Org31, the literal code the
// scenario requires.
func (c *Commands) DeactivateOrg(ctx context.Context, orgID string) (*ObjectDetails, error) {
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "org", Action: "write", Scope: orgID}); err != nil {
		return nil, err
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewOrgWriteModel(instanceID, orgID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.State == OrgStateUnspecified {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Org20", "Errors.Org.NotFound")
	}
	if wm.State != OrgStateActive {
		return nil, zerrors.ThrowPreconditionFailed(nil, "COMMAND-Org31", "Errors.Org.NotActive")
	}

	aggregate := &eventstore.Aggregate{ID: orgID, Type: org.AggregateType, InstanceID: instanceID, ResourceOwner: wm.ResourceOwner, Version: wm.Sequence}
	event := org.NewDeactivatedEvent(ctx, aggregate)
	events, err := c.Eventstore.Push(ctx, event)
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}

// ReactivateOrg moves an INACTIVE org back to ACTIVE.
func (c *Commands) ReactivateOrg(ctx context.Context, orgID string) (*ObjectDetails, error) {
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "org", Action: "write", Scope: orgID}); err != nil {
		return nil, err
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewOrgWriteModel(instanceID, orgID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.State == OrgStateUnspecified {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Org20", "Errors.Org.NotFound")
	}
	if wm.State != OrgStateInactive {
		return nil, zerrors.ThrowPreconditionFailed(nil, "COMMAND-Org32", "Errors.Org.NotInactive")
	}

	aggregate := &eventstore.Aggregate{ID: orgID, Type: org.AggregateType, InstanceID: instanceID, ResourceOwner: wm.ResourceOwner, Version: wm.Sequence}
	event := org.NewReactivatedEvent(ctx, aggregate)
	events, err := c.Eventstore.Push(ctx, event)
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}

// RemoveOrg terminates an org and releases its name: the remove-event
// emits the matching unique-constraint remove-intent.
func (c *Commands) RemoveOrg(ctx context.Context, orgID string) (*ObjectDetails, error) {
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "org", Action: "delete", Scope: orgID}); err != nil {
		return nil, err
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewOrgWriteModel(instanceID, orgID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.State == OrgStateUnspecified || wm.State == OrgStateRemoved {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Org20", "Errors.Org.NotFound")
	}

	aggregate := &eventstore.Aggregate{ID: orgID, Type: org.AggregateType, InstanceID: instanceID, ResourceOwner: wm.ResourceOwner, Version: wm.Sequence}
	event := org.NewRemovedEvent(ctx, aggregate, wm.Name)
	events, err := c.Eventstore.Push(ctx, event)
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}
