package command

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/project"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// AddProjectGrant makes a project usable by another org, restricted to
// roleKeys. The granted org is a referential precondition: it must exist and
// be ACTIVE, a referential check done at command time rather than through
// structural references. The (project, granted org) pair is unique per
// instance.
func (c *Commands) AddProjectGrant(ctx context.Context, projectID, grantedOrgID string, roleKeys []string) (*ObjectDetails, string, error) {
	if grantedOrgID == "" {
		return nil, "", zerrors.ThrowInvalidArgument(nil, "COMMAND-Grant10", "Errors.Project.Grant.InvalidOrg")
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewProjectWriteModel(instanceID, projectID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, "", err
	}
	if wm.State != ProjectStateActive {
		return nil, "", zerrors.ThrowNotFound(nil, "COMMAND-Grant11", "Errors.Project.NotActive")
	}
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "project", Action: "write", Scope: wm.ResourceOwner}); err != nil {
		return nil, "", err
	}
	for _, key := range roleKeys {
		if !wm.Roles[key] {
			return nil, "", zerrors.ThrowPreconditionFailed(nil, "COMMAND-Grant12", "Errors.Project.Role.NotFound")
		}
	}

	orgWM := NewOrgWriteModel(instanceID, grantedOrgID)
	if err := load(ctx, c.Eventstore, orgWM); err != nil {
		return nil, "", err
	}
	if orgWM.State != OrgStateActive {
		return nil, "", zerrors.ThrowPreconditionFailed(nil, "COMMAND-Grant13", "Errors.Org.NotActive")
	}

	grantID := c.IDs.New()
	event := project.NewGrantAddedEvent(ctx, projectAggregate(wm), grantID, grantedOrgID, roleKeys)
	events, err := c.Eventstore.Push(ctx, event)
	if err != nil {
		return nil, "", err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, "", err
	}
	return detailsFromEvent(events[0]), grantID, nil
}

// RemoveProjectGrant withdraws a grant and releases the pair constraint.
func (c *Commands) RemoveProjectGrant(ctx context.Context, projectID, grantID string) (*ObjectDetails, error) {
	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewProjectWriteModel(instanceID, projectID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.State == ProjectStateUnspecified || wm.State == ProjectStateRemoved {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Grant20", "Errors.Project.NotFound")
	}
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "project", Action: "write", Scope: wm.ResourceOwner}); err != nil {
		return nil, err
	}
	grant, ok := wm.Grants[grantID]
	if !ok || grant.Removed {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Grant21", "Errors.Project.Grant.NotFound")
	}

	events, err := c.Eventstore.Push(ctx, project.NewGrantRemovedEvent(ctx, projectAggregate(wm), grantID, grant.GrantedOrgID))
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}
