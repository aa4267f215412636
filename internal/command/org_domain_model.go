package command

import (
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/org"
)

// OrgDomainState is the domain sub-entity's lifecycle tag.
type OrgDomainState int

const (
	OrgDomainStateUnspecified OrgDomainState = iota
	OrgDomainStateActive
	OrgDomainStateRemoved
)

// OrgDomainWriteModel folds one domain out of the org aggregate's event
// stream, discarding events for other domains by payload value.
type OrgDomainWriteModel struct {
	WriteModel

	Domain   string
	Verified bool
	Primary  bool
	OrgState OrgState
	State    OrgDomainState
}

func NewOrgDomainWriteModel(instanceID, orgID, domain string) *OrgDomainWriteModel {
	return &OrgDomainWriteModel{
		WriteModel: WriteModel{AggregateID: orgID, InstanceID: instanceID},
		Domain:     domain,
	}
}

func (wm *OrgDomainWriteModel) Query() *eventstore.SearchQueryBuilder {
	return NewQuery(wm.InstanceID, org.AggregateType, wm.AggregateID)
}

func (wm *OrgDomainWriteModel) Reduce() error {
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
			wm.State = OrgDomainStateRemoved
		case *org.DomainAddedEvent:
			if evt.Domain != wm.Domain {
				continue
			}
			wm.State = OrgDomainStateActive
		case *org.DomainVerifiedEvent:
			if evt.Domain != wm.Domain {
				continue
			}
			wm.Verified = true
		case *org.DomainPrimarySetEvent:
			// A primary.set for another domain demotes this one.
			wm.Primary = evt.Domain == wm.Domain
		case *org.DomainRemovedEvent:
			if evt.Domain != wm.Domain {
				continue
			}
			wm.State = OrgDomainStateRemoved
			wm.Verified = false
			wm.Primary = false
		}
	}
	return wm.WriteModel.Reduce()
}
