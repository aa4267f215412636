package command

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/project"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// AddProject creates a new project under resourceOwner.
func (c *Commands) AddProject(ctx context.Context, resourceOwner, name string) (*ObjectDetails, string, error) {
	if name == "" {
		return nil, "", zerrors.ThrowInvalidArgument(nil, "COMMAND-Proj01", "Errors.Project.InvalidName")
	}
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "project", Action: "create", Scope: resourceOwner}); err != nil {
		return nil, "", err
	}

	projectID := c.IDs.New()
	instanceID := authz.GetInstance(ctx).InstanceID()
	aggregate := &eventstore.Aggregate{
		ID:            projectID,
		Type:          project.AggregateType,
		InstanceID:    instanceID,
		ResourceOwner: resourceOwner,
	}

	event := project.NewAddedEvent(ctx, aggregate, name)
	events, err := c.Eventstore.Push(ctx, event)
	if err != nil {
		return nil, "", err
	}

	wm := NewProjectWriteModel(instanceID, projectID)
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, "", err
	}
	return detailsFromEvent(events[0]), projectID, nil
}

// AddOIDCApp adds an OIDC application to projectID: empty
// redirectURIs fails InvalidArgument COMMAND-App10 before the project is
// even loaded; a project that isn't ACTIVE fails NotFound COMMAND-App11.
func (c *Commands) AddOIDCApp(ctx context.Context, projectID, name string, redirectURIs []string) (*ObjectDetails, string, error) {
	if len(redirectURIs) == 0 {
		return nil, "", zerrors.ThrowInvalidArgument(nil, "COMMAND-App10", "Errors.Project.App.RedirectURIsMissing")
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewProjectWriteModel(instanceID, projectID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, "", err
	}
	if wm.State != ProjectStateActive {
		return nil, "", zerrors.ThrowNotFound(nil, "COMMAND-App11", "Errors.Project.NotActive")
	}

	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "project", Action: "write", Scope: wm.ResourceOwner}); err != nil {
		return nil, "", err
	}

	appID := c.IDs.New()
	aggregate := &eventstore.Aggregate{
		ID:            projectID,
		Type:          project.AggregateType,
		InstanceID:    instanceID,
		ResourceOwner: wm.ResourceOwner,
		Version:       wm.Sequence,
	}

	event := project.NewOIDCAppAddedEvent(ctx, aggregate, appID, name, redirectURIs)
	events, err := c.Eventstore.Push(ctx, event)
	if err != nil {
		return nil, "", err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, "", err
	}
	return detailsFromEvent(events[0]), appID, nil
}
