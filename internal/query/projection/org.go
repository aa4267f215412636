package projection

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/org"
)

// OrgsTable and OrgDomainsTable are the read-model tables the org
// projection owns; a domain is a child row of its org.
const (
	OrgsTable       = "projections.orgs"
	OrgDomainsTable = "projections.org_domains"
)

// NewOrgProjection builds the Handler that keeps projections.orgs in sync
// with the org aggregate's event stream, one row per org keyed by
// (instance_id, id).
func NewOrgProjection(instanceID string) *Handler {
	return NewHandler("orgs", instanceID, []AggregateReducer{
		{
			Aggregate: org.AggregateType,
			EventReducers: []EventReducer{
				{Event: org.AddedEventType, Reduce: reduceOrgAdded},
				{Event: org.ChangedEventType, Reduce: reduceOrgChanged},
				{Event: org.DeactivatedEventType, Reduce: reduceOrgState(2)},
				{Event: org.ReactivatedEventType, Reduce: reduceOrgState(1)},
				{Event: org.RemovedEventType, Reduce: reduceOrgRemoved},
				{Event: org.DomainAddedEventType, Reduce: reduceOrgDomainAdded},
				{Event: org.DomainVerifiedEventType, Reduce: reduceOrgDomainVerified},
				{Event: org.DomainPrimarySetEventType, Reduce: reduceOrgDomainPrimarySet},
				{Event: org.DomainRemovedEventType, Reduce: reduceOrgDomainRemoved},
			},
		},
	}, []string{OrgsTable, OrgDomainsTable})
}

func reduceOrgAdded(e eventstore.Event) (*Statement, error) {
	evt := e.(*org.AddedEvent)
	agg := evt.Aggregate()
	return NewUpsertStatement(e, OrgsTable,
		[]Column{NewCol("instance_id", agg.InstanceID), NewCol("id", agg.ID)},
		[]Column{
			NewCol("instance_id", agg.InstanceID),
			NewCol("id", agg.ID),
			NewCol("resource_owner", agg.ResourceOwner),
			NewCol("name", evt.Name),
			NewCol("state", int32(1)),
			NewCol("sequence", evt.Sequence()),
			OnlySetValueOnInsert("creation_date", evt.CreatedAt()),
			NewCol("change_date", evt.CreatedAt()),
		},
	), nil
}

func reduceOrgChanged(e eventstore.Event) (*Statement, error) {
	evt := e.(*org.ChangedEvent)
	agg := evt.Aggregate()
	return NewUpdateStatement(e, OrgsTable,
		[]Column{
			NewCol("name", evt.Name),
			NewCol("sequence", evt.Sequence()),
			NewCol("change_date", evt.CreatedAt()),
		},
		[]Condition{NewCond("instance_id", agg.InstanceID), NewCond("id", agg.ID)},
	), nil
}

// reduceOrgState returns a Reduce function that only flips the state
// column, shared by deactivated (state=2) and reactivated (state=1) since
// both events carry no payload of their own.
func reduceOrgState(state int32) func(eventstore.Event) (*Statement, error) {
	return func(e eventstore.Event) (*Statement, error) {
		agg := e.Aggregate()
		return NewUpdateStatement(e, OrgsTable,
			[]Column{
				NewCol("state", state),
				NewCol("sequence", e.Sequence()),
				NewCol("change_date", e.CreatedAt()),
			},
			[]Condition{NewCond("instance_id", agg.InstanceID), NewCond("id", agg.ID)},
		), nil
	}
}

func reduceOrgRemoved(e eventstore.Event) (*Statement, error) {
	agg := e.Aggregate()
	return NewDeleteStatement(e, OrgsTable,
		[]Condition{NewCond("instance_id", agg.InstanceID), NewCond("id", agg.ID)},
	), nil
}

func reduceOrgDomainAdded(e eventstore.Event) (*Statement, error) {
	evt := e.(*org.DomainAddedEvent)
	agg := evt.Aggregate()
	return NewUpsertStatement(e, OrgDomainsTable,
		[]Column{NewCol("instance_id", agg.InstanceID), NewCol("org_id", agg.ID), NewCol("domain", evt.Domain)},
		[]Column{
			NewCol("instance_id", agg.InstanceID),
			NewCol("org_id", agg.ID),
			NewCol("domain", evt.Domain),
			NewCol("is_verified", false),
			NewCol("is_primary", false),
			NewCol("sequence", evt.Sequence()),
			OnlySetValueOnInsert("creation_date", evt.CreatedAt()),
			NewCol("change_date", evt.CreatedAt()),
		},
	), nil
}

func reduceOrgDomainVerified(e eventstore.Event) (*Statement, error) {
	evt := e.(*org.DomainVerifiedEvent)
	agg := evt.Aggregate()
	return NewUpdateStatement(e, OrgDomainsTable,
		[]Column{
			NewCol("is_verified", true),
			NewCol("sequence", evt.Sequence()),
			NewCol("change_date", evt.CreatedAt()),
		},
		[]Condition{NewCond("instance_id", agg.InstanceID), NewCond("org_id", agg.ID), NewCond("domain", evt.Domain)},
	), nil
}

// reduceOrgDomainPrimarySet updates every domain row of the org in one
// statement: is_primary becomes true for the named domain and false for all
// siblings, so a replay is a no-op.
func reduceOrgDomainPrimarySet(e eventstore.Event) (*Statement, error) {
	evt := e.(*org.DomainPrimarySetEvent)
	agg := evt.Aggregate()
	return NewUpdateStatement(e, OrgDomainsTable,
		[]Column{
			NewCol("is_primary", sq.Expr("domain = ?", evt.Domain)),
			NewCol("sequence", evt.Sequence()),
			NewCol("change_date", evt.CreatedAt()),
		},
		[]Condition{NewCond("instance_id", agg.InstanceID), NewCond("org_id", agg.ID)},
	), nil
}

func reduceOrgDomainRemoved(e eventstore.Event) (*Statement, error) {
	evt := e.(*org.DomainRemovedEvent)
	agg := evt.Aggregate()
	return NewDeleteStatement(e, OrgDomainsTable,
		[]Condition{NewCond("instance_id", agg.InstanceID), NewCond("org_id", agg.ID), NewCond("domain", evt.Domain)},
	), nil
}
