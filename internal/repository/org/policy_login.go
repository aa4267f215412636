package org

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

const (
	LoginPolicyAddedEventType   eventstore.EventType = "org.policy.login.added"
	LoginPolicyChangedEventType eventstore.EventType = "org.policy.login.changed"
	LoginPolicyRemovedEventType eventstore.EventType = "org.policy.login.removed"
)

// LoginPolicyAddedEvent is org.policy.login.added: the org overrides the
// instance default login policy with its own settings.
type LoginPolicyAddedEvent struct {
	eventstore.BaseEvent `json:"-"`

	AllowUsernamePassword bool `json:"allowUsernamePassword"`
	AllowRegister         bool `json:"allowRegister"`
	ForceMFA              bool `json:"forceMFA"`
}

func NewLoginPolicyAddedEvent(ctx context.Context, aggregate *eventstore.Aggregate, allowUsernamePassword, allowRegister, forceMFA bool) *LoginPolicyAddedEvent {
	return &LoginPolicyAddedEvent{
		BaseEvent:             *eventstore.NewBaseEventForPush(ctx, aggregate, LoginPolicyAddedEventType),
		AllowUsernamePassword: allowUsernamePassword,
		AllowRegister:         allowRegister,
		ForceMFA:              forceMFA,
	}
}
func (e *LoginPolicyAddedEvent) Payload() any                                      { return e }
func (e *LoginPolicyAddedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func LoginPolicyAddedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &LoginPolicyAddedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "ORG-1p5sa", "unable to unmarshal event")
	}
	return e, nil
}

type LoginPolicyChangedEvent struct {
	eventstore.BaseEvent `json:"-"`

	AllowUsernamePassword bool `json:"allowUsernamePassword"`
	AllowRegister         bool `json:"allowRegister"`
	ForceMFA              bool `json:"forceMFA"`
}

func NewLoginPolicyChangedEvent(ctx context.Context, aggregate *eventstore.Aggregate, allowUsernamePassword, allowRegister, forceMFA bool) *LoginPolicyChangedEvent {
	return &LoginPolicyChangedEvent{
		BaseEvent:             *eventstore.NewBaseEventForPush(ctx, aggregate, LoginPolicyChangedEventType),
		AllowUsernamePassword: allowUsernamePassword,
		AllowRegister:         allowRegister,
		ForceMFA:              forceMFA,
	}
}
func (e *LoginPolicyChangedEvent) Payload() any                                      { return e }
func (e *LoginPolicyChangedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func LoginPolicyChangedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &LoginPolicyChangedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "ORG-2p6sb", "unable to unmarshal event")
	}
	return e, nil
}

// LoginPolicyRemovedEvent is org.policy.login.removed: the org falls back to
// inheriting the instance default.
type LoginPolicyRemovedEvent struct {
	eventstore.BaseEvent `json:"-"`
}

func NewLoginPolicyRemovedEvent(ctx context.Context, aggregate *eventstore.Aggregate) *LoginPolicyRemovedEvent {
	return &LoginPolicyRemovedEvent{BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, LoginPolicyRemovedEventType)}
}
func (e *LoginPolicyRemovedEvent) Payload() any                                      { return nil }
func (e *LoginPolicyRemovedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func LoginPolicyRemovedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	return &LoginPolicyRemovedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}, nil
}
