package projection

import (
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/authrequest"
)

// AuthRequestsTable is the read-model table the auth-request projection
// owns: one row per in-flight (or concluded) login.
const AuthRequestsTable = "projections.auth_requests"

const (
	authRequestStateAdded           int32 = 1
	authRequestStateUserSelected    int32 = 2
	authRequestStatePasswordChecked int32 = 3
	authRequestStateSucceeded       int32 = 4
	authRequestStateFailed          int32 = 5
)

// NewAuthRequestProjection builds the Handler that keeps
// projections.auth_requests in sync with the auth_request aggregate's
// event stream.
func NewAuthRequestProjection(instanceID string) *Handler {
	return NewHandler("auth_requests", instanceID, []AggregateReducer{
		{
			Aggregate: authrequest.AggregateType,
			EventReducers: []EventReducer{
				{Event: authrequest.AddedEventType, Reduce: reduceAuthRequestAdded},
				{Event: authrequest.UserSelectedEventType, Reduce: reduceAuthRequestUserSelected},
				{Event: authrequest.PasswordCheckedEventType, Reduce: reduceAuthRequestState(authRequestStatePasswordChecked)},
				{Event: authrequest.PasswordFailedEventType, Reduce: reduceAuthRequestTouch},
				{Event: authrequest.SucceededEventType, Reduce: reduceAuthRequestState(authRequestStateSucceeded)},
				{Event: authrequest.FailedEventType, Reduce: reduceAuthRequestState(authRequestStateFailed)},
			},
		},
	}, []string{AuthRequestsTable})
}

func reduceAuthRequestAdded(e eventstore.Event) (*Statement, error) {
	evt := e.(*authrequest.AddedEvent)
	agg := evt.Aggregate()
	return NewUpsertStatement(e, AuthRequestsTable,
		[]Column{NewCol("instance_id", agg.InstanceID), NewCol("id", agg.ID)},
		[]Column{
			NewCol("instance_id", agg.InstanceID),
			NewCol("id", agg.ID),
			NewCol("client_id", evt.ClientID),
			NewCol("redirect_uri", evt.RedirectURI),
			NewCol("response_type", evt.ResponseType),
			NewCol("state", authRequestStateAdded),
			NewCol("sequence", evt.Sequence()),
			OnlySetValueOnInsert("creation_date", evt.CreatedAt()),
			NewCol("change_date", evt.CreatedAt()),
		},
	), nil
}

func reduceAuthRequestUserSelected(e eventstore.Event) (*Statement, error) {
	evt := e.(*authrequest.UserSelectedEvent)
	agg := evt.Aggregate()
	return NewUpdateStatement(e, AuthRequestsTable,
		[]Column{
			NewCol("user_id", evt.UserID),
			NewCol("state", authRequestStateUserSelected),
			NewCol("sequence", evt.Sequence()),
			NewCol("change_date", evt.CreatedAt()),
		},
		[]Condition{NewCond("instance_id", agg.InstanceID), NewCond("id", agg.ID)},
	), nil
}

func reduceAuthRequestState(state int32) func(eventstore.Event) (*Statement, error) {
	return func(e eventstore.Event) (*Statement, error) {
		agg := e.Aggregate()
		return NewUpdateStatement(e, AuthRequestsTable,
			[]Column{
				NewCol("state", state),
				NewCol("sequence", e.Sequence()),
				NewCol("change_date", e.CreatedAt()),
			},
			[]Condition{NewCond("instance_id", agg.InstanceID), NewCond("id", agg.ID)},
		), nil
	}
}

// reduceAuthRequestTouch advances sequence/change_date without moving
// state, mirroring AuthRequestWriteModel.Reduce's handling of
// PasswordFailedEvent.
func reduceAuthRequestTouch(e eventstore.Event) (*Statement, error) {
	agg := e.Aggregate()
	return NewUpdateStatement(e, AuthRequestsTable,
		[]Column{
			NewCol("sequence", e.Sequence()),
			NewCol("change_date", e.CreatedAt()),
		},
		[]Condition{NewCond("instance_id", agg.InstanceID), NewCond("id", agg.ID)},
	), nil
}
