package command

import (
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/org"
)

// OrgLoginPolicyWriteModel folds an org's login-policy override. IsDefault
// starts true (the org inherits the instance default); an org-specific added
// event flips it to false; removed flips it back.
type OrgLoginPolicyWriteModel struct {
	WriteModel

	AllowUsernamePassword bool
	AllowRegister         bool
	ForceMFA              bool
	IsDefault             bool
	OrgState              OrgState
}

func NewOrgLoginPolicyWriteModel(instanceID, orgID string) *OrgLoginPolicyWriteModel {
	return &OrgLoginPolicyWriteModel{
		WriteModel: WriteModel{AggregateID: orgID, InstanceID: instanceID},
		IsDefault:  true,
	}
}

func (wm *OrgLoginPolicyWriteModel) Query() *eventstore.SearchQueryBuilder {
	return NewQuery(wm.InstanceID, org.AggregateType, wm.AggregateID)
}

func (wm *OrgLoginPolicyWriteModel) Reduce() error {
	for _, e := range wm.Events {
		switch evt := e.(type) {
		case *org.AddedEvent:
			wm.OrgState = OrgStateActive
		case *org.DeactivatedEvent:
			wm.OrgState = OrgStateInactive
		case *org.ReactivatedEvent:
			wm.OrgState = OrgStateActive
		case *org.RemovedEvent:
			wm.OrgState = OrgStateRemoved
			wm.IsDefault = true
		case *org.LoginPolicyAddedEvent:
			wm.AllowUsernamePassword = evt.AllowUsernamePassword
			wm.AllowRegister = evt.AllowRegister
			wm.ForceMFA = evt.ForceMFA
			wm.IsDefault = false
		case *org.LoginPolicyChangedEvent:
			wm.AllowUsernamePassword = evt.AllowUsernamePassword
			wm.AllowRegister = evt.AllowRegister
			wm.ForceMFA = evt.ForceMFA
		case *org.LoginPolicyRemovedEvent:
			wm.IsDefault = true
		}
	}
	return wm.WriteModel.Reduce()
}
