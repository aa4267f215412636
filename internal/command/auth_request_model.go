package command

import (
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/authrequest"
)

// AuthRequestState is the auth-request lifecycle tag: UNSPECIFIED → ADDED
// → USER_SELECTED → PASSWORD_CHECKED (or FAILED) → (optional MFA) →
// SUCCEEDED | FAILED.
type AuthRequestState int

const (
	AuthRequestStateUnspecified AuthRequestState = iota
	AuthRequestStateAdded
	AuthRequestStateUserSelected
	AuthRequestStatePasswordChecked
	AuthRequestStateSucceeded
	AuthRequestStateFailed
)

// AuthRequestWriteModel folds an auth-request aggregate's event stream.
type AuthRequestWriteModel struct {
	WriteModel

	ClientID     string
	RedirectURI  string
	ResponseType string
	UserID       string
	State        AuthRequestState
}

func NewAuthRequestWriteModel(instanceID, id string) *AuthRequestWriteModel {
	return &AuthRequestWriteModel{WriteModel: WriteModel{AggregateID: id, InstanceID: instanceID}}
}

func (wm *AuthRequestWriteModel) Query() *eventstore.SearchQueryBuilder {
	return NewQuery(wm.InstanceID, authrequest.AggregateType, wm.AggregateID)
}

func (wm *AuthRequestWriteModel) Reduce() error {
	for _, e := range wm.Events {
		switch evt := e.(type) {
		case *authrequest.AddedEvent:
			wm.ClientID = evt.ClientID
			wm.RedirectURI = evt.RedirectURI
			wm.ResponseType = evt.ResponseType
			wm.State = AuthRequestStateAdded
		case *authrequest.UserSelectedEvent:
			wm.UserID = evt.UserID
			wm.State = AuthRequestStateUserSelected
		case *authrequest.PasswordCheckedEvent:
			wm.State = AuthRequestStatePasswordChecked
		case *authrequest.PasswordFailedEvent:
			// State intentionally does not advance: a failed password
			// check leaves the request where it was.
		case *authrequest.SucceededEvent:
			wm.State = AuthRequestStateSucceeded
		case *authrequest.FailedEvent:
			wm.State = AuthRequestStateFailed
		}
	}
	return wm.WriteModel.Reduce()
}
