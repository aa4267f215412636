// Package project holds the events of the project aggregate, including its
// OIDC application, role, and grant sub-entities.
package project

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

const AggregateType eventstore.AggregateType = "project"

const (
	AddedEventType          eventstore.EventType = "project.added"
	DeactivatedEventType    eventstore.EventType = "project.deactivated"
	ReactivatedEventType    eventstore.EventType = "project.reactivated"
	RemovedEventType        eventstore.EventType = "project.removed"
	OIDCAppAddedEventType   eventstore.EventType = "project.application.oidc.added"
	OIDCAppRemovedEventType eventstore.EventType = "project.application.oidc.removed"
)

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
		return nil, zerrors.ThrowInternal(err, "PROJECT-2n9sd", "unable to unmarshal event")
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

type RemovedEvent struct {
	eventstore.BaseEvent `json:"-"`
}

func NewRemovedEvent(ctx context.Context, aggregate *eventstore.Aggregate) *RemovedEvent {
	return &RemovedEvent{BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, RemovedEventType)}
}
func (e *RemovedEvent) Payload() any                                      { return nil }
func (e *RemovedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func RemovedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	return &RemovedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}, nil
}

// OIDCAppAddedEvent is project.application.oidc.added: an OIDC application
// added to a project.
type OIDCAppAddedEvent struct {
	eventstore.BaseEvent `json:"-"`

	AppID        string   `json:"appId"`
	Name         string   `json:"name"`
	RedirectURIs []string `json:"redirectURIs"`
}

func NewOIDCAppAddedEvent(ctx context.Context, aggregate *eventstore.Aggregate, appID, name string, redirectURIs []string) *OIDCAppAddedEvent {
	return &OIDCAppAddedEvent{
		BaseEvent:    *eventstore.NewBaseEventForPush(ctx, aggregate, OIDCAppAddedEventType),
		AppID:        appID,
		Name:         name,
		RedirectURIs: redirectURIs,
	}
}
func (e *OIDCAppAddedEvent) Payload() any                                      { return e }
func (e *OIDCAppAddedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func OIDCAppAddedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &OIDCAppAddedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "PROJECT-6n1sa", "unable to unmarshal event")
	}
	return e, nil
}

type OIDCAppRemovedEvent struct {
	eventstore.BaseEvent `json:"-"`

	AppID string `json:"appId"`
}

func NewOIDCAppRemovedEvent(ctx context.Context, aggregate *eventstore.Aggregate, appID string) *OIDCAppRemovedEvent {
	return &OIDCAppRemovedEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, OIDCAppRemovedEventType),
		AppID:     appID,
	}
}
func (e *OIDCAppRemovedEvent) Payload() any                                      { return e }
func (e *OIDCAppRemovedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func OIDCAppRemovedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &OIDCAppRemovedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "PROJECT-7n2sb", "unable to unmarshal event")
	}
	return e, nil
}

func RegisterMappers(es *eventstore.Eventstore) {
	es.RegisterMapper(AggregateType, AddedEventType, AddedEventMapper)
	es.RegisterMapper(AggregateType, DeactivatedEventType, DeactivatedEventMapper)
	es.RegisterMapper(AggregateType, ReactivatedEventType, ReactivatedEventMapper)
	es.RegisterMapper(AggregateType, RemovedEventType, RemovedEventMapper)
	es.RegisterMapper(AggregateType, OIDCAppAddedEventType, OIDCAppAddedEventMapper)
	es.RegisterMapper(AggregateType, OIDCAppRemovedEventType, OIDCAppRemovedEventMapper)
	es.RegisterMapper(AggregateType, RoleAddedEventType, RoleAddedEventMapper)
	es.RegisterMapper(AggregateType, RoleRemovedEventType, RoleRemovedEventMapper)
	es.RegisterMapper(AggregateType, GrantAddedEventType, GrantAddedEventMapper)
	es.RegisterMapper(AggregateType, GrantRemovedEventType, GrantRemovedEventMapper)
}
