package project

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

const (
	GrantAddedEventType   eventstore.EventType = "project.grant.added"
	GrantRemovedEventType eventstore.EventType = "project.grant.removed"
)

// UniqueGrantType is the constraint_type reserving a (project, granted org)
// pair per instance.
const UniqueGrantType = "project_grant"

func NewAddProjectGrantUniqueConstraint(projectID, grantedOrgID string) *eventstore.UniqueConstraint {
	return eventstore.NewAddUniqueConstraint(UniqueGrantType, projectID+":"+grantedOrgID, "Errors.Project.Grant.AlreadyExists")
}

func NewRemoveProjectGrantUniqueConstraint(projectID, grantedOrgID string) *eventstore.UniqueConstraint {
	return eventstore.NewRemoveUniqueConstraint(UniqueGrantType, projectID+":"+grantedOrgID)
}

// GrantAddedEvent is project.grant.added: the project becomes usable by
// another org, restricted to the listed role keys.
type GrantAddedEvent struct {
	eventstore.BaseEvent `json:"-"`

	GrantID      string   `json:"grantId"`
	GrantedOrgID string   `json:"grantedOrgId"`
	RoleKeys     []string `json:"roleKeys,omitempty"`
}

func NewGrantAddedEvent(ctx context.Context, aggregate *eventstore.Aggregate, grantID, grantedOrgID string, roleKeys []string) *GrantAddedEvent {
	return &GrantAddedEvent{
		BaseEvent:    *eventstore.NewBaseEventForPush(ctx, aggregate, GrantAddedEventType),
		GrantID:      grantID,
		GrantedOrgID: grantedOrgID,
		RoleKeys:     roleKeys,
	}
}
func (e *GrantAddedEvent) Payload() any { return e }
func (e *GrantAddedEvent) UniqueConstraints() []*eventstore.UniqueConstraint {
	return []*eventstore.UniqueConstraint{NewAddProjectGrantUniqueConstraint(e.Agg.ID, e.GrantedOrgID)}
}
func GrantAddedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &GrantAddedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "PROJECT-1g5sc", "unable to unmarshal event")
	}
	return e, nil
}

// GrantRemovedEvent carries the granted org so the pair constraint can be
// released without a lookup.
type GrantRemovedEvent struct {
	eventstore.BaseEvent `json:"-"`

	GrantID      string `json:"grantId"`
	GrantedOrgID string `json:"grantedOrgId"`
}

func NewGrantRemovedEvent(ctx context.Context, aggregate *eventstore.Aggregate, grantID, grantedOrgID string) *GrantRemovedEvent {
	return &GrantRemovedEvent{
		BaseEvent:    *eventstore.NewBaseEventForPush(ctx, aggregate, GrantRemovedEventType),
		GrantID:      grantID,
		GrantedOrgID: grantedOrgID,
	}
}
func (e *GrantRemovedEvent) Payload() any { return e }
func (e *GrantRemovedEvent) UniqueConstraints() []*eventstore.UniqueConstraint {
	return []*eventstore.UniqueConstraint{NewRemoveProjectGrantUniqueConstraint(e.Agg.ID, e.GrantedOrgID)}
}
func GrantRemovedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &GrantRemovedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "PROJECT-2g6sd", "unable to unmarshal event")
	}
	return e, nil
}
