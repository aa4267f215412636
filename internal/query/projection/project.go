package projection

import (
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/project"
)

// ProjectsTable and AppsTable are the two read-model tables the project
// projection owns; an OIDC application is a child row of its project, not
// its own aggregate, so both tables are driven off the same Handler.
const (
	ProjectsTable = "projections.projects"
	AppsTable     = "projections.project_apps"
)

const (
	projectStateActive   int32 = 1
	projectStateInactive int32 = 2
)

// NewProjectProjection builds the Handler that keeps projections.projects
// and projections.project_apps in sync with the project aggregate's event
// stream, including the OIDC application sub-entity.
func NewProjectProjection(instanceID string) *Handler {
	return NewHandler("projects", instanceID, []AggregateReducer{
		{
			Aggregate: project.AggregateType,
			EventReducers: []EventReducer{
				{Event: project.AddedEventType, Reduce: reduceProjectAdded},
				{Event: project.DeactivatedEventType, Reduce: reduceProjectState(projectStateInactive)},
				{Event: project.ReactivatedEventType, Reduce: reduceProjectState(projectStateActive)},
				{Event: project.RemovedEventType, Reduce: reduceProjectRemoved},
				{Event: project.OIDCAppAddedEventType, Reduce: reduceOIDCAppAdded},
				{Event: project.OIDCAppRemovedEventType, Reduce: reduceOIDCAppRemoved},
			},
		},
	}, []string{ProjectsTable, AppsTable})
}

func reduceProjectAdded(e eventstore.Event) (*Statement, error) {
	evt := e.(*project.AddedEvent)
	agg := evt.Aggregate()
	return NewUpsertStatement(e, ProjectsTable,
		[]Column{NewCol("instance_id", agg.InstanceID), NewCol("id", agg.ID)},
		[]Column{
			NewCol("instance_id", agg.InstanceID),
			NewCol("id", agg.ID),
			NewCol("resource_owner", agg.ResourceOwner),
			NewCol("name", evt.Name),
			NewCol("state", projectStateActive),
			NewCol("sequence", evt.Sequence()),
			OnlySetValueOnInsert("creation_date", evt.CreatedAt()),
			NewCol("change_date", evt.CreatedAt()),
		},
	), nil
}

func reduceProjectState(state int32) func(eventstore.Event) (*Statement, error) {
	return func(e eventstore.Event) (*Statement, error) {
		agg := e.Aggregate()
		return NewUpdateStatement(e, ProjectsTable,
			[]Column{
				NewCol("state", state),
				NewCol("sequence", e.Sequence()),
				NewCol("change_date", e.CreatedAt()),
			},
			[]Condition{NewCond("instance_id", agg.InstanceID), NewCond("id", agg.ID)},
		), nil
	}
}

func reduceProjectRemoved(e eventstore.Event) (*Statement, error) {
	agg := e.Aggregate()
	return NewDeleteStatement(e, ProjectsTable,
		[]Condition{NewCond("instance_id", agg.InstanceID), NewCond("id", agg.ID)},
	), nil
}

func reduceOIDCAppAdded(e eventstore.Event) (*Statement, error) {
	evt := e.(*project.OIDCAppAddedEvent)
	agg := evt.Aggregate()
	return NewCreateStatement(e, AppsTable, []Column{
		NewCol("instance_id", agg.InstanceID),
		NewCol("project_id", agg.ID),
		NewCol("id", evt.AppID),
		NewCol("name", evt.Name),
		NewCol("redirect_uris", evt.RedirectURIs),
		NewCol("sequence", evt.Sequence()),
		NewCol("creation_date", evt.CreatedAt()),
	}), nil
}

func reduceOIDCAppRemoved(e eventstore.Event) (*Statement, error) {
	evt := e.(*project.OIDCAppRemovedEvent)
	agg := evt.Aggregate()
	return NewDeleteStatement(e, AppsTable,
		[]Condition{
			NewCond("instance_id", agg.InstanceID),
			NewCond("project_id", agg.ID),
			NewCond("id", evt.AppID),
		},
	), nil
}
