// Package org holds the events of the org aggregate: the OrgState machine
// (UNSPECIFIED → ACTIVE → INACTIVE ↔ ACTIVE → REMOVED), modeled as one
// struct per event, embedding eventstore.BaseEvent, with a matching
// *Mapper function.
package org

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

const AggregateType eventstore.AggregateType = "org"

const (
	AddedEventType       eventstore.EventType = "org.added"
	ChangedEventType     eventstore.EventType = "org.changed"
	DeactivatedEventType eventstore.EventType = "org.deactivated"
	ReactivatedEventType eventstore.EventType = "org.reactivated"
	RemovedEventType     eventstore.EventType = "org.removed"
)

// UniqueNameType is the constraint_type used to reserve an org's name
// globally across instances.
const UniqueNameType = "org_name"

func NewAddNameUniqueConstraint(name string) *eventstore.UniqueConstraint {
	return eventstore.NewAddUniqueConstraint(UniqueNameType, name, "Errors.Org.AlreadyExists")
}

func NewRemoveNameUniqueConstraint(name string) *eventstore.UniqueConstraint {
	c := eventstore.NewRemoveUniqueConstraint(UniqueNameType, name)
	c.IsGlobal = true
	return c
}

// AddedEvent is org.added: the org's creation, carrying its initial name.
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

func (e *AddedEvent) Payload() any { return e }

func (e *AddedEvent) UniqueConstraints() []*eventstore.UniqueConstraint {
	c := NewAddNameUniqueConstraint(e.Name)
	c.IsGlobal = true
	return []*eventstore.UniqueConstraint{c}
}

func AddedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &AddedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "ORG-2n9sc", "unable to unmarshal event")
	}
	return e, nil
}

// ChangedEvent is org.changed: a rename. It carries only the new name and
// declares no unique-constraint intents, so pushing it neither releases the
// old name's reservation nor reserves the new name.
type ChangedEvent struct {
	eventstore.BaseEvent `json:"-"`

	Name string `json:"name"`
}

func NewChangedEvent(ctx context.Context, aggregate *eventstore.Aggregate, newName string) *ChangedEvent {
	return &ChangedEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, ChangedEventType),
		Name:      newName,
	}
}

func (e *ChangedEvent) Payload() any { return e }

func (e *ChangedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }

func ChangedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &ChangedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "ORG-3n8sd", "unable to unmarshal event")
	}
	return e, nil
}

type DeactivatedEvent struct {
	eventstore.BaseEvent `json:"-"`
}

func NewDeactivatedEvent(ctx context.Context, aggregate *eventstore.Aggregate) *DeactivatedEvent {
	return &DeactivatedEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, DeactivatedEventType),
	}
}

func (e *DeactivatedEvent) Payload() any                                      { return nil }
func (e *DeactivatedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }

func DeactivatedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	return &DeactivatedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}, nil
}

type ReactivatedEvent struct {
	eventstore.BaseEvent `json:"-"`
}

func NewReactivatedEvent(ctx context.Context, aggregate *eventstore.Aggregate) *ReactivatedEvent {
	return &ReactivatedEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, ReactivatedEventType),
	}
}

func (e *ReactivatedEvent) Payload() any                                      { return nil }
func (e *ReactivatedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }

func ReactivatedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	return &ReactivatedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}, nil
}

// RemovedEvent carries the org's name at time of removal so the command
// can release the name's unique constraint.
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

func (e *RemovedEvent) Payload() any { return e }

func (e *RemovedEvent) UniqueConstraints() []*eventstore.UniqueConstraint {
	return []*eventstore.UniqueConstraint{NewRemoveNameUniqueConstraint(e.Name)}
}

func RemovedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &RemovedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "ORG-5n1se", "unable to unmarshal event")
	}
	return e, nil
}

// RegisterMappers wires every org event type into an eventstore so Filter
// results for the org aggregate unmarshal into their concrete type.
func RegisterMappers(es *eventstore.Eventstore) {
	es.RegisterMapper(AggregateType, AddedEventType, AddedEventMapper)
	es.RegisterMapper(AggregateType, ChangedEventType, ChangedEventMapper)
	es.RegisterMapper(AggregateType, DeactivatedEventType, DeactivatedEventMapper)
	es.RegisterMapper(AggregateType, ReactivatedEventType, ReactivatedEventMapper)
	es.RegisterMapper(AggregateType, RemovedEventType, RemovedEventMapper)
	es.RegisterMapper(AggregateType, DomainAddedEventType, DomainAddedEventMapper)
	es.RegisterMapper(AggregateType, DomainVerifiedEventType, DomainVerifiedEventMapper)
	es.RegisterMapper(AggregateType, DomainPrimarySetEventType, DomainPrimarySetEventMapper)
	es.RegisterMapper(AggregateType, DomainRemovedEventType, DomainRemovedEventMapper)
	es.RegisterMapper(AggregateType, LoginPolicyAddedEventType, LoginPolicyAddedEventMapper)
	es.RegisterMapper(AggregateType, LoginPolicyChangedEventType, LoginPolicyChangedEventMapper)
	es.RegisterMapper(AggregateType, LoginPolicyRemovedEventType, LoginPolicyRemovedEventMapper)
}
