package command

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/user"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// AddHumanUser creates a human user under resourceOwner, reserving its
// username per-instance.
func (c *Commands) AddHumanUser(ctx context.Context, resourceOwner, username, firstName, lastName, email string) (*ObjectDetails, string, error) {
	if username == "" {
		return nil, "", zerrors.ThrowInvalidArgument(nil, "COMMAND-User10", "Errors.User.InvalidUsername")
	}
	if firstName == "" || lastName == "" {
		return nil, "", zerrors.ThrowInvalidArgument(nil, "COMMAND-User11", "Errors.User.InvalidName")
	}
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "user", Action: "create", Scope: resourceOwner}); err != nil {
		return nil, "", err
	}

	userID := c.IDs.New()
	instanceID := authz.GetInstance(ctx).InstanceID()
	aggregate := &eventstore.Aggregate{
		ID:            userID,
		Type:          user.AggregateType,
		InstanceID:    instanceID,
		ResourceOwner: resourceOwner,
	}

	event := user.NewHumanAddedEvent(ctx, aggregate, username, firstName, lastName, email)
	events, err := c.Eventstore.Push(ctx, event)
	if err != nil {
		return nil, "", err
	}

	wm := NewUserWriteModel(instanceID, userID)
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, "", err
	}
	return detailsFromEvent(events[0]), userID, nil
}

// DeactivateUser moves ACTIVE→DEACTIVATED.
func (c *Commands) DeactivateUser(ctx context.Context, userID string) (*ObjectDetails, error) {
	wm, err := c.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wm.State != UserStateActive {
		return nil, zerrors.ThrowPreconditionFailed(nil, "COMMAND-User30", "Errors.User.NotActive")
	}
	return c.pushUserEvent(ctx, wm, user.NewDeactivatedEvent(ctx, userAggregate(wm)))
}

// ReactivateUser moves DEACTIVATED→ACTIVE.
func (c *Commands) ReactivateUser(ctx context.Context, userID string) (*ObjectDetails, error) {
	wm, err := c.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wm.State != UserStateDeactivated {
		return nil, zerrors.ThrowPreconditionFailed(nil, "COMMAND-User31", "Errors.User.NotDeactivated")
	}
	return c.pushUserEvent(ctx, wm, user.NewReactivatedEvent(ctx, userAggregate(wm)))
}

// RemoveUser terminates the user and releases its username.
func (c *Commands) RemoveUser(ctx context.Context, userID string) (*ObjectDetails, error) {
	wm, err := c.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wm.State == UserStateRemoved {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-User20", "Errors.User.NotFound")
	}
	return c.pushUserEvent(ctx, wm, user.NewRemovedEvent(ctx, userAggregate(wm), wm.Username))
}

func (c *Commands) loadUser(ctx context.Context, userID string) (*UserWriteModel, error) {
	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewUserWriteModel(instanceID, userID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.State == UserStateUnspecified {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-User20", "Errors.User.NotFound")
	}
	return wm, nil
}

func userAggregate(wm *UserWriteModel) *eventstore.Aggregate {
	return &eventstore.Aggregate{
		ID:            wm.AggregateID,
		Type:          user.AggregateType,
		InstanceID:    wm.InstanceID,
		ResourceOwner: wm.ResourceOwner,
		Version:       wm.Sequence,
	}
}

func (c *Commands) pushUserEvent(ctx context.Context, wm *UserWriteModel, command eventstore.Command) (*ObjectDetails, error) {
	events, err := c.Eventstore.Push(ctx, command)
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}
