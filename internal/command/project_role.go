package command

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/project"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// AddProjectRole defines a role on a project, reserving its key within the
// project.
func (c *Commands) AddProjectRole(ctx context.Context, projectID, key, displayName, group string) (*ObjectDetails, error) {
	if key == "" {
		return nil, zerrors.ThrowInvalidArgument(nil, "COMMAND-Role10", "Errors.Project.Role.InvalidKey")
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewProjectWriteModel(instanceID, projectID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.State != ProjectStateActive {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Role11", "Errors.Project.NotActive")
	}
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "project", Action: "write", Scope: wm.ResourceOwner}); err != nil {
		return nil, err
	}
	if wm.Roles[key] {
		return nil, zerrors.ThrowAlreadyExists(nil, "COMMAND-Role12", "Errors.Project.Role.AlreadyExists")
	}

	event := project.NewRoleAddedEvent(ctx, projectAggregate(wm), key, displayName, group)
	events, err := c.Eventstore.Push(ctx, event)
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}

// RemoveProjectRole drops a role definition and releases its key. Roles
// referenced by a grant cannot be removed.
func (c *Commands) RemoveProjectRole(ctx context.Context, projectID, key string) (*ObjectDetails, error) {
	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewProjectWriteModel(instanceID, projectID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.State == ProjectStateUnspecified || wm.State == ProjectStateRemoved {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Role20", "Errors.Project.NotFound")
	}
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "project", Action: "write", Scope: wm.ResourceOwner}); err != nil {
		return nil, err
	}
	if !wm.Roles[key] {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Role21", "Errors.Project.Role.NotFound")
	}
	for _, grant := range wm.Grants {
		if grant.Removed {
			continue
		}
		for _, rk := range grant.RoleKeys {
			if rk == key {
				return nil, zerrors.ThrowPreconditionFailed(nil, "COMMAND-Role30", "Errors.Project.Role.InUse")
			}
		}
	}

	events, err := c.Eventstore.Push(ctx, project.NewRoleRemovedEvent(ctx, projectAggregate(wm), key))
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}

func projectAggregate(wm *ProjectWriteModel) *eventstore.Aggregate {
	return &eventstore.Aggregate{
		ID:            wm.AggregateID,
		Type:          project.AggregateType,
		InstanceID:    wm.InstanceID,
		ResourceOwner: wm.ResourceOwner,
		Version:       wm.Sequence,
	}
}
