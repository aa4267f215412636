package command

import (
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/project"
)

// ProjectState is the project aggregate's lifecycle tag.
type ProjectState int

const (
	ProjectStateUnspecified ProjectState = iota
	ProjectStateActive
	ProjectStateInactive
	ProjectStateRemoved
)

// ProjectWriteModel folds a project aggregate's event stream, including its
// OIDC applications keyed by app id.
type ProjectWriteModel struct {
	WriteModel

	Name   string
	State  ProjectState
	Apps   map[string]*OIDCAppState
	Roles  map[string]bool
	Grants map[string]*ProjectGrantState
}

// ProjectGrantState is the sub-entity state of one grant inside a project
// aggregate, keyed by grant id.
type ProjectGrantState struct {
	GrantedOrgID string
	RoleKeys     []string
	Removed      bool
}

// OIDCAppState is the sub-entity state of one OIDC application inside a
// project aggregate, keyed by the appId carried in each app event.
type OIDCAppState struct {
	Name         string
	RedirectURIs []string
	Removed      bool
}

func NewProjectWriteModel(instanceID, projectID string) *ProjectWriteModel {
	return &ProjectWriteModel{
		WriteModel: WriteModel{AggregateID: projectID, InstanceID: instanceID},
		Apps:       map[string]*OIDCAppState{},
		Roles:      map[string]bool{},
		Grants:     map[string]*ProjectGrantState{},
	}
}

func (wm *ProjectWriteModel) Query() *eventstore.SearchQueryBuilder {
	return NewQuery(wm.InstanceID, project.AggregateType, wm.AggregateID)
}

func (wm *ProjectWriteModel) Reduce() error {
	for _, e := range wm.Events {
		switch evt := e.(type) {
		case *project.AddedEvent:
			wm.Name = evt.Name
			wm.State = ProjectStateActive
		case *project.DeactivatedEvent:
			wm.State = ProjectStateInactive
		case *project.ReactivatedEvent:
			wm.State = ProjectStateActive
		case *project.RemovedEvent:
			wm.State = ProjectStateRemoved
		case *project.OIDCAppAddedEvent:
			wm.Apps[evt.AppID] = &OIDCAppState{Name: evt.Name, RedirectURIs: evt.RedirectURIs}
		case *project.OIDCAppRemovedEvent:
			if app, ok := wm.Apps[evt.AppID]; ok {
				app.Removed = true
			}
		case *project.RoleAddedEvent:
			wm.Roles[evt.Key] = true
		case *project.RoleRemovedEvent:
			delete(wm.Roles, evt.Key)
		case *project.GrantAddedEvent:
			wm.Grants[evt.GrantID] = &ProjectGrantState{GrantedOrgID: evt.GrantedOrgID, RoleKeys: evt.RoleKeys}
		case *project.GrantRemovedEvent:
			if grant, ok := wm.Grants[evt.GrantID]; ok {
				grant.Removed = true
			}
		}
	}
	return wm.WriteModel.Reduce()
}
