package command

import (
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/org"
)

// OrgState is the org lifecycle tag: UNSPECIFIED → ACTIVE (org.added);
// ACTIVE ↔ INACTIVE (deactivated/reactivated); ACTIVE|INACTIVE → REMOVED
// (removed).
type OrgState int

const (
	OrgStateUnspecified OrgState = iota
	OrgStateActive
	OrgStateInactive
	OrgStateRemoved
)

// OrgWriteModel folds an org aggregate's event stream.
type OrgWriteModel struct {
	WriteModel

	Name  string
	State OrgState
}

func NewOrgWriteModel(instanceID, orgID string) *OrgWriteModel {
	return &OrgWriteModel{
		WriteModel: WriteModel{AggregateID: orgID, InstanceID: instanceID},
	}
}

func (wm *OrgWriteModel) Query() *eventstore.SearchQueryBuilder {
	return NewQuery(wm.InstanceID, org.AggregateType, wm.AggregateID)
}

func (wm *OrgWriteModel) Reduce() error {
	for _, e := range wm.Events {
		switch evt := e.(type) {
		case *org.AddedEvent:
			wm.Name = evt.Name
			wm.State = OrgStateActive
		case *org.ChangedEvent:
			wm.Name = evt.Name
		case *org.DeactivatedEvent:
			wm.State = OrgStateInactive
		case *org.ReactivatedEvent:
			wm.State = OrgStateActive
		case *org.RemovedEvent:
			wm.State = OrgStateRemoved
		}
	}
	return wm.WriteModel.Reduce()
}
