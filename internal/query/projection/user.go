package projection

import (
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/user"
)

// UsersTable is the read-model table the user projection owns.
const UsersTable = "projections.users"

const (
	userStateActive      int32 = 1
	userStateDeactivated int32 = 2
	userStateLocked      int32 = 3
)

const (
	userTypeHuman   int32 = 1
	userTypeMachine int32 = 2
)

// NewUserProjection builds the Handler that keeps projections.users in
// sync with the user aggregate's event stream.
func NewUserProjection(instanceID string) *Handler {
	return NewHandler("users", instanceID, []AggregateReducer{
		{
			Aggregate: user.AggregateType,
			EventReducers: []EventReducer{
				{Event: user.HumanAddedEventType, Reduce: reduceUserHumanAdded},
				{Event: user.MachineAddedEventType, Reduce: reduceUserMachineAdded},
				{Event: user.DeactivatedEventType, Reduce: reduceUserState(userStateDeactivated)},
				{Event: user.ReactivatedEventType, Reduce: reduceUserState(userStateActive)},
				{Event: user.LockedEventType, Reduce: reduceUserState(userStateLocked)},
				{Event: user.UnlockedEventType, Reduce: reduceUserState(userStateActive)},
				{Event: user.RemovedEventType, Reduce: reduceUserRemoved},
			},
		},
	}, []string{UsersTable})
}

func reduceUserHumanAdded(e eventstore.Event) (*Statement, error) {
	evt := e.(*user.HumanAddedEvent)
	agg := evt.Aggregate()
	return NewUpsertStatement(e, UsersTable,
		[]Column{NewCol("instance_id", agg.InstanceID), NewCol("id", agg.ID)},
		[]Column{
			NewCol("instance_id", agg.InstanceID),
			NewCol("id", agg.ID),
			NewCol("resource_owner", agg.ResourceOwner),
			NewCol("username", evt.Username),
			NewCol("first_name", evt.FirstName),
			NewCol("last_name", evt.LastName),
			NewCol("email", evt.Email),
			NewCol("type", userTypeHuman),
			NewCol("state", userStateActive),
			NewCol("sequence", evt.Sequence()),
			OnlySetValueOnInsert("creation_date", evt.CreatedAt()),
			NewCol("change_date", evt.CreatedAt()),
		},
	), nil
}

func reduceUserMachineAdded(e eventstore.Event) (*Statement, error) {
	evt := e.(*user.MachineAddedEvent)
	agg := evt.Aggregate()
	return NewUpsertStatement(e, UsersTable,
		[]Column{NewCol("instance_id", agg.InstanceID), NewCol("id", agg.ID)},
		[]Column{
			NewCol("instance_id", agg.InstanceID),
			NewCol("id", agg.ID),
			NewCol("resource_owner", agg.ResourceOwner),
			NewCol("username", evt.Username),
			NewCol("name", evt.Name),
			NewCol("description", evt.Description),
			NewCol("type", userTypeMachine),
			NewCol("state", userStateActive),
			NewCol("sequence", evt.Sequence()),
			OnlySetValueOnInsert("creation_date", evt.CreatedAt()),
			NewCol("change_date", evt.CreatedAt()),
		},
	), nil
}

func reduceUserState(state int32) func(eventstore.Event) (*Statement, error) {
	return func(e eventstore.Event) (*Statement, error) {
		agg := e.Aggregate()
		return NewUpdateStatement(e, UsersTable,
			[]Column{
				NewCol("state", state),
				NewCol("sequence", e.Sequence()),
				NewCol("change_date", e.CreatedAt()),
			},
			[]Condition{NewCond("instance_id", agg.InstanceID), NewCond("id", agg.ID)},
		), nil
	}
}

func reduceUserRemoved(e eventstore.Event) (*Statement, error) {
	agg := e.Aggregate()
	return NewDeleteStatement(e, UsersTable,
		[]Condition{NewCond("instance_id", agg.InstanceID), NewCond("id", agg.ID)},
	), nil
}
