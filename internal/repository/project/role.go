package project

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

const (
	RoleAddedEventType   eventstore.EventType = "project.role.added"
	RoleRemovedEventType eventstore.EventType = "project.role.removed"
)

// UniqueRoleType is the constraint_type reserving a role key within one
// project; the value is scoped by
// prefixing the project id.
const UniqueRoleType = "project_role"

func NewAddProjectRoleUniqueConstraint(projectID, roleKey string) *eventstore.UniqueConstraint {
	return eventstore.NewAddUniqueConstraint(UniqueRoleType, projectID+":"+roleKey, "Errors.Project.Role.AlreadyExists")
}

func NewRemoveProjectRoleUniqueConstraint(projectID, roleKey string) *eventstore.UniqueConstraint {
	return eventstore.NewRemoveUniqueConstraint(UniqueRoleType, projectID+":"+roleKey)
}

type RoleAddedEvent struct {
	eventstore.BaseEvent `json:"-"`

	Key         string `json:"key"`
	DisplayName string `json:"displayName,omitempty"`
	Group       string `json:"group,omitempty"`
}

func NewRoleAddedEvent(ctx context.Context, aggregate *eventstore.Aggregate, key, displayName, group string) *RoleAddedEvent {
	return &RoleAddedEvent{
		BaseEvent:   *eventstore.NewBaseEventForPush(ctx, aggregate, RoleAddedEventType),
		Key:         key,
		DisplayName: displayName,
		Group:       group,
	}
}
func (e *RoleAddedEvent) Payload() any { return e }
func (e *RoleAddedEvent) UniqueConstraints() []*eventstore.UniqueConstraint {
	return []*eventstore.UniqueConstraint{NewAddProjectRoleUniqueConstraint(e.Agg.ID, e.Key)}
}
func RoleAddedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &RoleAddedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "PROJECT-8r3sa", "unable to unmarshal event")
	}
	return e, nil
}

type RoleRemovedEvent struct {
	eventstore.BaseEvent `json:"-"`

	Key string `json:"key"`
}

func NewRoleRemovedEvent(ctx context.Context, aggregate *eventstore.Aggregate, key string) *RoleRemovedEvent {
	return &RoleRemovedEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, RoleRemovedEventType),
		Key:       key,
	}
}
func (e *RoleRemovedEvent) Payload() any { return e }
func (e *RoleRemovedEvent) UniqueConstraints() []*eventstore.UniqueConstraint {
	return []*eventstore.UniqueConstraint{NewRemoveProjectRoleUniqueConstraint(e.Agg.ID, e.Key)}
}
func RoleRemovedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &RoleRemovedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "PROJECT-9r4sb", "unable to unmarshal event")
	}
	return e, nil
}
