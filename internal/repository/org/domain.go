package org

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

const (
	DomainAddedEventType      eventstore.EventType = "org.domain.added"
	DomainVerifiedEventType   eventstore.EventType = "org.domain.verified"
	DomainPrimarySetEventType eventstore.EventType = "org.domain.primary.set"
	DomainRemovedEventType    eventstore.EventType = "org.domain.removed"
)

// UniqueOrgDomainType is the per-instance constraint_type a verified domain
// reserves. The constraint is added on
// verification, not on add: unverified domains do not own the name yet.
const UniqueOrgDomainType = "org_domain"

func NewAddOrgDomainUniqueConstraint(domain string) *eventstore.UniqueConstraint {
	return eventstore.NewAddUniqueConstraint(UniqueOrgDomainType, domain, "Errors.Org.Domain.AlreadyExists")
}

func NewRemoveOrgDomainUniqueConstraint(domain string) *eventstore.UniqueConstraint {
	return eventstore.NewRemoveUniqueConstraint(UniqueOrgDomainType, domain)
}

type DomainAddedEvent struct {
	eventstore.BaseEvent `json:"-"`

	Domain string `json:"domain"`
}

func NewDomainAddedEvent(ctx context.Context, aggregate *eventstore.Aggregate, domain string) *DomainAddedEvent {
	return &DomainAddedEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, DomainAddedEventType),
		Domain:    domain,
	}
}
func (e *DomainAddedEvent) Payload() any                                      { return e }
func (e *DomainAddedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func DomainAddedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &DomainAddedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "ORG-6d1sa", "unable to unmarshal event")
	}
	return e, nil
}

type DomainVerifiedEvent struct {
	eventstore.BaseEvent `json:"-"`

	Domain string `json:"domain"`
}

func NewDomainVerifiedEvent(ctx context.Context, aggregate *eventstore.Aggregate, domain string) *DomainVerifiedEvent {
	return &DomainVerifiedEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, DomainVerifiedEventType),
		Domain:    domain,
	}
}
func (e *DomainVerifiedEvent) Payload() any { return e }
func (e *DomainVerifiedEvent) UniqueConstraints() []*eventstore.UniqueConstraint {
	return []*eventstore.UniqueConstraint{NewAddOrgDomainUniqueConstraint(e.Domain)}
}
func DomainVerifiedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &DomainVerifiedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "ORG-7d2sb", "unable to unmarshal event")
	}
	return e, nil
}

type DomainPrimarySetEvent struct {
	eventstore.BaseEvent `json:"-"`

	Domain string `json:"domain"`
}

func NewDomainPrimarySetEvent(ctx context.Context, aggregate *eventstore.Aggregate, domain string) *DomainPrimarySetEvent {
	return &DomainPrimarySetEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, DomainPrimarySetEventType),
		Domain:    domain,
	}
}
func (e *DomainPrimarySetEvent) Payload() any                                      { return e }
func (e *DomainPrimarySetEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func DomainPrimarySetEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &DomainPrimarySetEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "ORG-8d3sc", "unable to unmarshal event")
	}
	return e, nil
}

// DomainRemovedEvent carries WasVerified so the constraint release is
// explicit: only a verified domain ever owned the unique-constraint row, so
// only then is a remove-intent emitted.
type DomainRemovedEvent struct {
	eventstore.BaseEvent `json:"-"`

	Domain      string `json:"domain"`
	WasVerified bool   `json:"wasVerified"`
}

func NewDomainRemovedEvent(ctx context.Context, aggregate *eventstore.Aggregate, domain string, wasVerified bool) *DomainRemovedEvent {
	return &DomainRemovedEvent{
		BaseEvent:   *eventstore.NewBaseEventForPush(ctx, aggregate, DomainRemovedEventType),
		Domain:      domain,
		WasVerified: wasVerified,
	}
}
func (e *DomainRemovedEvent) Payload() any { return e }
func (e *DomainRemovedEvent) UniqueConstraints() []*eventstore.UniqueConstraint {
	if !e.WasVerified {
		return nil
	}
	return []*eventstore.UniqueConstraint{NewRemoveOrgDomainUniqueConstraint(e.Domain)}
}
func DomainRemovedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &DomainRemovedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "ORG-9d4sd", "unable to unmarshal event")
	}
	return e, nil
}
