// Package user holds the events of the user aggregate: human user creation
// and the UNSPECIFIED→ACTIVE→(DEACTIVATED|LOCKED)→REMOVED state machine.
package user

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

const AggregateType eventstore.AggregateType = "user"

const (
	HumanAddedEventType  eventstore.EventType = "user.human.added"
	DeactivatedEventType eventstore.EventType = "user.deactivated"
	ReactivatedEventType eventstore.EventType = "user.reactivated"
	LockedEventType      eventstore.EventType = "user.locked"
	UnlockedEventType    eventstore.EventType = "user.unlocked"
	RemovedEventType     eventstore.EventType = "user.removed"
)

// UniqueUsernameType is the per-instance constraint_type username
// uniqueness uses.
const UniqueUsernameType = "username"

func NewAddUsernameUniqueConstraint(username string) *eventstore.UniqueConstraint {
	return eventstore.NewAddUniqueConstraint(UniqueUsernameType, username, "Errors.User.AlreadyExists")
}

func NewRemoveUsernameUniqueConstraint(username string) *eventstore.UniqueConstraint {
	return eventstore.NewRemoveUniqueConstraint(UniqueUsernameType, username)
}

// HumanAddedEvent is user.human.added: creation of a human user.
type HumanAddedEvent struct {
	eventstore.BaseEvent `json:"-"`

	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

func NewHumanAddedEvent(ctx context.Context, aggregate *eventstore.Aggregate, username, firstName, lastName, email string) *HumanAddedEvent {
	return &HumanAddedEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, HumanAddedEventType),
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
	}
}

func (e *HumanAddedEvent) Payload() any { return e }

func (e *HumanAddedEvent) UniqueConstraints() []*eventstore.UniqueConstraint {
	return []*eventstore.UniqueConstraint{NewAddUsernameUniqueConstraint(e.Username)}
}

func HumanAddedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &HumanAddedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "USER-2n8sc", "unable to unmarshal event")
	}
	return e, nil
}

type DeactivatedEvent struct {
	eventstore.BaseEvent `json:"-"`
}

func NewDeactivatedEvent(ctx context.Context, aggregate *eventstore.Aggregate) *DeactivatedEvent {
	return &DeactivatedEvent{BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, DeactivatedEventType)}
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
	return &ReactivatedEvent{BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, ReactivatedEventType)}
}
func (e *ReactivatedEvent) Payload() any                                      { return nil }
func (e *ReactivatedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func ReactivatedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	return &ReactivatedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}, nil
}

type LockedEvent struct {
	eventstore.BaseEvent `json:"-"`
}

func NewLockedEvent(ctx context.Context, aggregate *eventstore.Aggregate) *LockedEvent {
	return &LockedEvent{BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, LockedEventType)}
}
func (e *LockedEvent) Payload() any                                      { return nil }
func (e *LockedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func LockedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	return &LockedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}, nil
}

type UnlockedEvent struct {
	eventstore.BaseEvent `json:"-"`
}

func NewUnlockedEvent(ctx context.Context, aggregate *eventstore.Aggregate) *UnlockedEvent {
	return &UnlockedEvent{BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, UnlockedEventType)}
}
func (e *UnlockedEvent) Payload() any                                      { return nil }
func (e *UnlockedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func UnlockedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	return &UnlockedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}, nil
}

// RemovedEvent carries the username so the command can release the
// username unique constraint.
type RemovedEvent struct {
	eventstore.BaseEvent `json:"-"`

	Username string `json:"username"`
}

func NewRemovedEvent(ctx context.Context, aggregate *eventstore.Aggregate, username string) *RemovedEvent {
	return &RemovedEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, RemovedEventType),
		Username:  username,
	}
}
func (e *RemovedEvent) Payload() any { return e }
func (e *RemovedEvent) UniqueConstraints() []*eventstore.UniqueConstraint {
	return []*eventstore.UniqueConstraint{NewRemoveUsernameUniqueConstraint(e.Username)}
}
func RemovedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &RemovedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "USER-5n2sf", "unable to unmarshal event")
	}
	return e, nil
}

func RegisterMappers(es *eventstore.Eventstore) {
	es.RegisterMapper(AggregateType, HumanAddedEventType, HumanAddedEventMapper)
	es.RegisterMapper(AggregateType, DeactivatedEventType, DeactivatedEventMapper)
	es.RegisterMapper(AggregateType, ReactivatedEventType, ReactivatedEventMapper)
	es.RegisterMapper(AggregateType, LockedEventType, LockedEventMapper)
	es.RegisterMapper(AggregateType, UnlockedEventType, UnlockedEventMapper)
	es.RegisterMapper(AggregateType, RemovedEventType, RemovedEventMapper)
	es.RegisterMapper(AggregateType, MachineAddedEventType, MachineAddedEventMapper)
	es.RegisterMapper(AggregateType, MachineKeyAddedEventType, MachineKeyAddedEventMapper)
	es.RegisterMapper(AggregateType, MachineKeyRemovedEventType, MachineKeyRemovedEventMapper)
	es.RegisterMapper(AggregateType, HumanWebAuthNAddedEventType, HumanWebAuthNAddedEventMapper)
	es.RegisterMapper(AggregateType, HumanWebAuthNVerifiedEventType, HumanWebAuthNVerifiedEventMapper)
	es.RegisterMapper(AggregateType, HumanWebAuthNRemovedEventType, HumanWebAuthNRemovedEventMapper)
}
