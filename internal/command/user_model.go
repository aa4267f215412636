package command

import (
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/user"
)

// UserState is the tagged enum for the user aggregate's lifecycle:
// UNSPECIFIED→ACTIVE→(DEACTIVATED|LOCKED)→REMOVED.
type UserState int

const (
	UserStateUnspecified UserState = iota
	UserStateActive
	UserStateDeactivated
	UserStateLocked
	UserStateRemoved
)

// UserWriteModel folds a user aggregate's event stream.
type UserWriteModel struct {
	WriteModel

	Username  string
	FirstName string
	LastName  string
	Email     string
	IsMachine bool
	State     UserState
}

func NewUserWriteModel(instanceID, userID string) *UserWriteModel {
	return &UserWriteModel{WriteModel: WriteModel{AggregateID: userID, InstanceID: instanceID}}
}

func (wm *UserWriteModel) Query() *eventstore.SearchQueryBuilder {
	return NewQuery(wm.InstanceID, user.AggregateType, wm.AggregateID)
}

func (wm *UserWriteModel) Reduce() error {
	for _, e := range wm.Events {
		switch evt := e.(type) {
		case *user.HumanAddedEvent:
			wm.Username = evt.Username
			wm.FirstName = evt.FirstName
			wm.LastName = evt.LastName
			wm.Email = evt.Email
			wm.State = UserStateActive
		case *user.MachineAddedEvent:
			wm.Username = evt.Username
			wm.IsMachine = true
			wm.State = UserStateActive
		case *user.DeactivatedEvent:
			wm.State = UserStateDeactivated
		case *user.ReactivatedEvent:
			wm.State = UserStateActive
		case *user.LockedEvent:
			wm.State = UserStateLocked
		case *user.UnlockedEvent:
			wm.State = UserStateActive
		case *user.RemovedEvent:
			wm.State = UserStateRemoved
		}
	}
	return wm.WriteModel.Reduce()
}
