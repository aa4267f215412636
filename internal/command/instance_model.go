package command

import (
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/instance"
)

// InstanceState is the tagged enum for the instance aggregate: UNSPECIFIED
// → ADDED (instance.added) → REMOVED (instance.removed). Unlike org the
// instance never deactivates; it exists or it has been torn down.
type InstanceState int

const (
	InstanceStateUnspecified InstanceState = iota
	InstanceStateAdded
	InstanceStateRemoved
)

// InstanceWriteModel folds an instance aggregate's event stream, used by
// RemoveInstance to check the precondition before emitting
// instance.removed.
type InstanceWriteModel struct {
	WriteModel

	Name  string
	State InstanceState
}

func NewInstanceWriteModel(instanceID string) *InstanceWriteModel {
	return &InstanceWriteModel{
		WriteModel: WriteModel{AggregateID: instanceID, InstanceID: instanceID},
	}
}

func (wm *InstanceWriteModel) Query() *eventstore.SearchQueryBuilder {
	return NewQuery(wm.InstanceID, instance.AggregateType, wm.AggregateID)
}

func (wm *InstanceWriteModel) Reduce() error {
	for _, e := range wm.Events {
		switch evt := e.(type) {
		case *instance.AddedEvent:
			wm.Name = evt.Name
			wm.State = InstanceStateAdded
		case *instance.RemovedEvent:
			wm.State = InstanceStateRemoved
		}
	}
	return wm.WriteModel.Reduce()
}
