package command

import (
	"context"
	"time"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/user"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// AddMachineUser creates a machine (service) user under resourceOwner,
// reserving its username like a human user's.
func (c *Commands) AddMachineUser(ctx context.Context, resourceOwner, username, name, description string) (*ObjectDetails, string, error) {
	if username == "" {
		return nil, "", zerrors.ThrowInvalidArgument(nil, "COMMAND-User10", "Errors.User.InvalidUsername")
	}
	if name == "" {
		return nil, "", zerrors.ThrowInvalidArgument(nil, "COMMAND-User12", "Errors.User.InvalidName")
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

	events, err := c.Eventstore.Push(ctx, user.NewMachineAddedEvent(ctx, aggregate, username, name, description))
	if err != nil {
		return nil, "", err
	}

	wm := NewUserWriteModel(instanceID, userID)
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, "", err
	}
	return detailsFromEvent(events[0]), userID, nil
}

// AddMachineKey adds an authentication key to a machine user. The expiration
// must lie strictly in the future at add time. Returns the generated key
// id alongside the details; the key material itself is supplied by the
// caller (public key) and never derived here.
func (c *Commands) AddMachineKey(ctx context.Context, userID string, expirationDate time.Time, publicKey []byte) (*ObjectDetails, string, error) {
	if !expirationDate.After(time.Now()) {
		return nil, "", zerrors.ThrowInvalidArgument(nil, "COMMAND-MKey10", "Errors.User.MachineKey.ExpirationNotFuture")
	}
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "user", Action: "write", Scope: userID}); err != nil {
		return nil, "", err
	}

	keyID := c.IDs.New()
	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewMachineKeyWriteModel(instanceID, userID, keyID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, "", err
	}
	if wm.UserState == UserStateUnspecified || wm.UserState == UserStateRemoved {
		return nil, "", zerrors.ThrowNotFound(nil, "COMMAND-User20", "Errors.User.NotFound")
	}
	if !wm.UserIsMachine {
		return nil, "", zerrors.ThrowPreconditionFailed(nil, "COMMAND-MKey11", "Errors.User.NotMachine")
	}

	event := user.NewMachineKeyAddedEvent(ctx, machineKeyAggregate(wm), keyID, expirationDate, publicKey)
	events, err := c.Eventstore.Push(ctx, event)
	if err != nil {
		return nil, "", err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, "", err
	}
	return detailsFromEvent(events[0]), keyID, nil
}

// RemoveMachineKey removes one key of a machine user.
func (c *Commands) RemoveMachineKey(ctx context.Context, userID, keyID string) (*ObjectDetails, error) {
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "user", Action: "write", Scope: userID}); err != nil {
		return nil, err
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewMachineKeyWriteModel(instanceID, userID, keyID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.State != MachineKeyStateActive {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-MKey20", "Errors.User.MachineKey.NotFound")
	}

	events, err := c.Eventstore.Push(ctx, user.NewMachineKeyRemovedEvent(ctx, machineKeyAggregate(wm), keyID))
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}

func machineKeyAggregate(wm *MachineKeyWriteModel) *eventstore.Aggregate {
	return &eventstore.Aggregate{
		ID:            wm.AggregateID,
		Type:          user.AggregateType,
		InstanceID:    wm.InstanceID,
		ResourceOwner: wm.ResourceOwner,
		Version:       wm.Sequence,
	}
}
