package command

import (
	"time"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/user"
)

// MachineKeyState is the key sub-entity's lifecycle tag:
// UNSPECIFIED → ACTIVE → REMOVED.
type MachineKeyState int

const (
	MachineKeyStateUnspecified MachineKeyState = iota
	MachineKeyStateActive
	MachineKeyStateRemoved
)

// MachineKeyWriteModel folds one machine key out of the user aggregate's
// event stream: events for other keys are discarded by payload id while the
// embedded WriteModel still advances Sequence.
type MachineKeyWriteModel struct {
	WriteModel

	KeyID          string
	ExpirationDate time.Time
	UserIsMachine  bool
	UserState      UserState
	State          MachineKeyState
}

func NewMachineKeyWriteModel(instanceID, userID, keyID string) *MachineKeyWriteModel {
	return &MachineKeyWriteModel{
		WriteModel: WriteModel{AggregateID: userID, InstanceID: instanceID},
		KeyID:      keyID,
	}
}

func (wm *MachineKeyWriteModel) Query() *eventstore.SearchQueryBuilder {
	return NewQuery(wm.InstanceID, user.AggregateType, wm.AggregateID)
}

func (wm *MachineKeyWriteModel) Reduce() error {
	for _, e := range wm.Events {
		switch evt := e.(type) {
		case *user.MachineAddedEvent:
			wm.UserIsMachine = true
			wm.UserState = UserStateActive
		case *user.HumanAddedEvent:
			wm.UserState = UserStateActive
		case *user.DeactivatedEvent:
			wm.UserState = UserStateDeactivated
		case *user.ReactivatedEvent:
			wm.UserState = UserStateActive
		case *user.RemovedEvent:
			wm.UserState = UserStateRemoved
			wm.State = MachineKeyStateRemoved
		case *user.MachineKeyAddedEvent:
			if evt.KeyID != wm.KeyID {
				continue
			}
			wm.ExpirationDate = evt.ExpirationDate
			wm.State = MachineKeyStateActive
		case *user.MachineKeyRemovedEvent:
			if evt.KeyID != wm.KeyID {
				continue
			}
			wm.State = MachineKeyStateRemoved
		}
	}
	return wm.WriteModel.Reduce()
}
