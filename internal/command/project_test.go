package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore/eventstoretest"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/project"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

type seqIDs struct{ n int }

func (g *seqIDs) New() string {
	g.n++
	return string(rune('a' - 1 + g.n))
}

func newTestCommands() *Commands {
	es := eventstore.New(eventstoretest.New())
	project.RegisterMappers(es)
	return New(es, &seqIDs{}, authz.AllowAll{}, LengthHasher{})
}

// TestAddOIDCApp_RedirectURIsMissing: an empty
// redirectURIs list fails InvalidArgument COMMAND-App10 before the project
// write model is even loaded.
func TestAddOIDCApp_RedirectURIsMissing(t *testing.T) {
	c := newTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, _, err := c.AddOIDCApp(ctx, "does-not-exist", "console", nil)
	require.Error(t, err)
	require.True(t, zerrors.IsInvalidArgument(err))
	require.ErrorContains(t, err, "COMMAND-App10")
}

// TestAddOIDCApp_ProjectNotActive: a project that was
// never added (and so is not ACTIVE) fails NotFound COMMAND-App11, checked
// after the write model loads but before the permission check.
func TestAddOIDCApp_ProjectNotActive(t *testing.T) {
	c := newTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, _, err := c.AddOIDCApp(ctx, "does-not-exist", "console", []string{"https://example.com/cb"})
	require.Error(t, err)
	require.True(t, zerrors.IsNotFound(err))
	require.ErrorContains(t, err, "COMMAND-App11")
}

// TestAddProjectThenOIDCApp_Succeeds covers the happy path:
// once a project is ACTIVE, adding an OIDC app with redirect URIs succeeds
// and the write model folds the app under the project aggregate.
func TestAddProjectThenOIDCApp_Succeeds(t *testing.T) {
	c := newTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, projectID, err := c.AddProject(ctx, "org1", "console")
	require.NoError(t, err)

	_, appID, err := c.AddOIDCApp(ctx, projectID, "console-app", []string{"https://example.com/cb"})
	require.NoError(t, err)
	require.NotEmpty(t, appID)

	wm := NewProjectWriteModel("i1", projectID)
	require.NoError(t, load(ctx, c.Eventstore, wm))
	require.Equal(t, ProjectStateActive, wm.State)
	app, ok := wm.Apps[appID]
	require.True(t, ok)
	require.Equal(t, []string{"https://example.com/cb"}, app.RedirectURIs)
	require.False(t, app.Removed)
}

// TestAddOIDCApp_DeactivatedProjectRejected covers the other
// NotFound branch: a project that was ACTIVE but has since been
// deactivated also fails COMMAND-App11.
func TestAddOIDCApp_DeactivatedProjectRejected(t *testing.T) {
	c := newTestCommands()
	ctx := authz.WithInstanceID(context.Background(), "i1")

	_, projectID, err := c.AddProject(ctx, "org1", "console")
	require.NoError(t, err)

	wm := NewProjectWriteModel("i1", projectID)
	require.NoError(t, load(ctx, c.Eventstore, wm))

	aggregate := &eventstore.Aggregate{
		ID:            projectID,
		Type:          project.AggregateType,
		InstanceID:    "i1",
		ResourceOwner: wm.ResourceOwner,
		Version:       wm.Sequence,
	}
	_, err = c.Eventstore.Push(ctx, project.NewDeactivatedEvent(ctx, aggregate))
	require.NoError(t, err)

	_, _, err = c.AddOIDCApp(ctx, projectID, "console-app", []string{"https://example.com/cb"})
	require.Error(t, err)
	require.True(t, zerrors.IsNotFound(err))
	require.ErrorContains(t, err, "COMMAND-App11")
}
