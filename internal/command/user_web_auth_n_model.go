package command

import (
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/user"
)

// WebAuthNState is the token sub-entity's lifecycle tag:
// UNSPECIFIED → NOT_READY (added, carries challenge) → READY (verified,
// carries key id + public key) → REMOVED.
type WebAuthNState int

const (
	WebAuthNStateUnspecified WebAuthNState = iota
	WebAuthNStateNotReady
	WebAuthNStateReady
	WebAuthNStateRemoved
)

// WebAuthNWriteModel folds one WebAuthn token out of the user aggregate's
// event stream, discarding events for other tokens by payload id.
type WebAuthNWriteModel struct {
	WriteModel

	WebAuthNTokenID string
	Challenge       string
	KeyID           []byte
	PublicKey       []byte
	UserState       UserState
	State           WebAuthNState
}

func NewWebAuthNWriteModel(instanceID, userID, tokenID string) *WebAuthNWriteModel {
	return &WebAuthNWriteModel{
		WriteModel:      WriteModel{AggregateID: userID, InstanceID: instanceID},
		WebAuthNTokenID: tokenID,
	}
}

func (wm *WebAuthNWriteModel) Query() *eventstore.SearchQueryBuilder {
	return NewQuery(wm.InstanceID, user.AggregateType, wm.AggregateID)
}

func (wm *WebAuthNWriteModel) Reduce() error {
	for _, e := range wm.Events {
		switch evt := e.(type) {
		case *user.HumanAddedEvent:
			wm.UserState = UserStateActive
		case *user.DeactivatedEvent:
			wm.UserState = UserStateDeactivated
		case *user.ReactivatedEvent:
			wm.UserState = UserStateActive
		case *user.RemovedEvent:
			wm.UserState = UserStateRemoved
			wm.State = WebAuthNStateRemoved
		case *user.HumanWebAuthNAddedEvent:
			if evt.WebAuthNTokenID != wm.WebAuthNTokenID {
				continue
			}
			wm.Challenge = evt.Challenge
			wm.State = WebAuthNStateNotReady
		case *user.HumanWebAuthNVerifiedEvent:
			if evt.WebAuthNTokenID != wm.WebAuthNTokenID {
				continue
			}
			wm.KeyID = evt.KeyID
			wm.PublicKey = evt.PublicKey
			wm.Challenge = ""
			wm.State = WebAuthNStateReady
		case *user.HumanWebAuthNRemovedEvent:
			if evt.WebAuthNTokenID != wm.WebAuthNTokenID {
				continue
			}
			wm.State = WebAuthNStateRemoved
		}
	}
	return wm.WriteModel.Reduce()
}
