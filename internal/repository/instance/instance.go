// Package instance holds the events of the instance aggregate: the tenant
// root every org, user, and project is scoped under.
package instance

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

const AggregateType eventstore.AggregateType = "instance"

const (
	AddedEventType   eventstore.EventType = "instance.added"
	RemovedEventType eventstore.EventType = "instance.removed"
)

// AddedEvent is instance.added: the tenant's creation, carrying its name.
// Every org/user/project aggregate created afterward carries this
// instance's id as its InstanceID.
type AddedEvent struct {
	eventstore.BaseEvent `json:"-"`

	Name string `json:"name"`
}

func NewAddedEvent(ctx context.Context, aggregate *eventstore.Aggregate, name string) *AddedEvent {
	return &AddedEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, AddedEventType),
		Name:      name,
	}
}
func (e *AddedEvent) Payload() any                                      { return e }
func (e *AddedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func AddedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &AddedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "INSTANCE-2n9sa", "unable to unmarshal event")
	}
	return e, nil
}

// RemovedEvent is instance.removed: the cleanup trigger every participating
// projection's Handler.DeleteInstance responds to by deleting every row it
// owns for the instance.
type RemovedEvent struct {
	eventstore.BaseEvent `json:"-"`

	Name string `json:"name"`
}

func NewRemovedEvent(ctx context.Context, aggregate *eventstore.Aggregate, name string) *RemovedEvent {
	return &RemovedEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, RemovedEventType),
		Name:      name,
	}
}
func (e *RemovedEvent) Payload() any                                      { return e }
func (e *RemovedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func RemovedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &RemovedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "INSTANCE-3n8sb", "unable to unmarshal event")
	}
	return e, nil
}

func RegisterMappers(es *eventstore.Eventstore) {
	es.RegisterMapper(AggregateType, AddedEventType, AddedEventMapper)
	es.RegisterMapper(AggregateType, RemovedEventType, RemovedEventMapper)
}
