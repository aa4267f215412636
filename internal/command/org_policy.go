package command

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/org"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// LoginPolicy carries the org-level login policy settings a caller supplies.
type LoginPolicy struct {
	AllowUsernamePassword bool
	AllowRegister         bool
	ForceMFA              bool
}

// AddLoginPolicy gives an org its own login policy, overriding the instance
// default it inherited until now.
func (c *Commands) AddLoginPolicy(ctx context.Context, orgID string, policy LoginPolicy) (*ObjectDetails, error) {
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "policy", Action: "write", Scope: orgID}); err != nil {
		return nil, err
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewOrgLoginPolicyWriteModel(instanceID, orgID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.OrgState != OrgStateActive {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Policy10", "Errors.Org.NotFound")
	}
	if !wm.IsDefault {
		return nil, zerrors.ThrowAlreadyExists(nil, "COMMAND-Policy11", "Errors.Org.LoginPolicy.AlreadyExists")
	}

	event := org.NewLoginPolicyAddedEvent(ctx, orgPolicyAggregate(wm), policy.AllowUsernamePassword, policy.AllowRegister, policy.ForceMFA)
	events, err := c.Eventstore.Push(ctx, event)
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}

// ChangeLoginPolicy updates an existing org-level override.
func (c *Commands) ChangeLoginPolicy(ctx context.Context, orgID string, policy LoginPolicy) (*ObjectDetails, error) {
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "policy", Action: "write", Scope: orgID}); err != nil {
		return nil, err
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewOrgLoginPolicyWriteModel(instanceID, orgID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.OrgState != OrgStateActive {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Policy10", "Errors.Org.NotFound")
	}
	if wm.IsDefault {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Policy20", "Errors.Org.LoginPolicy.NotFound")
	}
	if wm.AllowUsernamePassword == policy.AllowUsernamePassword && wm.AllowRegister == policy.AllowRegister && wm.ForceMFA == policy.ForceMFA {
		return nil, zerrors.ThrowPreconditionFailed(nil, "COMMAND-Policy21", "Errors.Org.LoginPolicy.NotChanged")
	}

	event := org.NewLoginPolicyChangedEvent(ctx, orgPolicyAggregate(wm), policy.AllowUsernamePassword, policy.AllowRegister, policy.ForceMFA)
	events, err := c.Eventstore.Push(ctx, event)
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}

// RemoveLoginPolicy drops the org-level override; the org inherits the
// instance default again.
func (c *Commands) RemoveLoginPolicy(ctx context.Context, orgID string) (*ObjectDetails, error) {
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "policy", Action: "write", Scope: orgID}); err != nil {
		return nil, err
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewOrgLoginPolicyWriteModel(instanceID, orgID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.OrgState != OrgStateActive {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Policy10", "Errors.Org.NotFound")
	}
	if wm.IsDefault {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Policy20", "Errors.Org.LoginPolicy.NotFound")
	}

	events, err := c.Eventstore.Push(ctx, org.NewLoginPolicyRemovedEvent(ctx, orgPolicyAggregate(wm)))
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}

func orgPolicyAggregate(wm *OrgLoginPolicyWriteModel) *eventstore.Aggregate {
	return &eventstore.Aggregate{
		ID:            wm.AggregateID,
		Type:          org.AggregateType,
		InstanceID:    wm.InstanceID,
		ResourceOwner: wm.ResourceOwner,
		Version:       wm.Sequence,
	}
}
