// Package authrequest holds the events of the auth-request aggregate and its
// state machine: UNSPECIFIED → ADDED → USER_SELECTED →
// PASSWORD_CHECKED (or FAILED) → (optional MFA) → SUCCEEDED | FAILED.
package authrequest

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

const AggregateType eventstore.AggregateType = "auth_request"

const (
	AddedEventType           eventstore.EventType = "auth_request.added"
	UserSelectedEventType    eventstore.EventType = "auth_request.user.selected"
	PasswordCheckedEventType eventstore.EventType = "auth_request.password.checked"
	PasswordFailedEventType  eventstore.EventType = "auth_request.password.failed"
	SucceededEventType       eventstore.EventType = "auth_request.succeeded"
	FailedEventType          eventstore.EventType = "auth_request.failed"
)

type AddedEvent struct {
	eventstore.BaseEvent `json:"-"`

	ClientID     string `json:"clientId"`
	RedirectURI  string `json:"redirectURI"`
	ResponseType string `json:"responseType"`
}

func NewAddedEvent(ctx context.Context, aggregate *eventstore.Aggregate, clientID, redirectURI, responseType string) *AddedEvent {
	return &AddedEvent{
		BaseEvent:    *eventstore.NewBaseEventForPush(ctx, aggregate, AddedEventType),
		ClientID:     clientID,
		RedirectURI:  redirectURI,
		ResponseType: responseType,
	}
}
func (e *AddedEvent) Payload() any                                      { return e }
func (e *AddedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func AddedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &AddedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "AUTHREQ-2n9sa", "unable to unmarshal event")
	}
	return e, nil
}

type UserSelectedEvent struct {
	eventstore.BaseEvent `json:"-"`

	UserID string `json:"userId"`
}

func NewUserSelectedEvent(ctx context.Context, aggregate *eventstore.Aggregate, userID string) *UserSelectedEvent {
	return &UserSelectedEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, UserSelectedEventType),
		UserID:    userID,
	}
}
func (e *UserSelectedEvent) Payload() any                                      { return e }
func (e *UserSelectedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func UserSelectedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &UserSelectedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "AUTHREQ-3n1sb", "unable to unmarshal event")
	}
	return e, nil
}

type PasswordCheckedEvent struct {
	eventstore.BaseEvent `json:"-"`
}

func NewPasswordCheckedEvent(ctx context.Context, aggregate *eventstore.Aggregate) *PasswordCheckedEvent {
	return &PasswordCheckedEvent{BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, PasswordCheckedEventType)}
}
func (e *PasswordCheckedEvent) Payload() any                                      { return nil }
func (e *PasswordCheckedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func PasswordCheckedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	return &PasswordCheckedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}, nil
}

type PasswordFailedEvent struct {
	eventstore.BaseEvent `json:"-"`
}

func NewPasswordFailedEvent(ctx context.Context, aggregate *eventstore.Aggregate) *PasswordFailedEvent {
	return &PasswordFailedEvent{BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, PasswordFailedEventType)}
}
func (e *PasswordFailedEvent) Payload() any                                      { return nil }
func (e *PasswordFailedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func PasswordFailedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	return &PasswordFailedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}, nil
}

// SucceededEvent carries the one-time auth code returned to the caller;
// the code is never readable again after this response.
type SucceededEvent struct {
	eventstore.BaseEvent `json:"-"`

	AuthCode string `json:"authCode"`
}

func NewSucceededEvent(ctx context.Context, aggregate *eventstore.Aggregate, authCode string) *SucceededEvent {
	return &SucceededEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, SucceededEventType),
		AuthCode:  authCode,
	}
}
func (e *SucceededEvent) Payload() any                                      { return e }
func (e *SucceededEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func SucceededEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &SucceededEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "AUTHREQ-6n4sd", "unable to unmarshal event")
	}
	return e, nil
}

type FailedEvent struct {
	eventstore.BaseEvent `json:"-"`

	Reason string `json:"reason,omitempty"`
}

func NewFailedEvent(ctx context.Context, aggregate *eventstore.Aggregate, reason string) *FailedEvent {
	return &FailedEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, FailedEventType),
		Reason:    reason,
	}
}
func (e *FailedEvent) Payload() any                                      { return e }
func (e *FailedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }
func FailedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &FailedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "AUTHREQ-7n5se", "unable to unmarshal event")
	}
	return e, nil
}

func RegisterMappers(es *eventstore.Eventstore) {
	es.RegisterMapper(AggregateType, AddedEventType, AddedEventMapper)
	es.RegisterMapper(AggregateType, UserSelectedEventType, UserSelectedEventMapper)
	es.RegisterMapper(AggregateType, PasswordCheckedEventType, PasswordCheckedEventMapper)
	es.RegisterMapper(AggregateType, PasswordFailedEventType, PasswordFailedEventMapper)
	es.RegisterMapper(AggregateType, SucceededEventType, SucceededEventMapper)
	es.RegisterMapper(AggregateType, FailedEventType, FailedEventMapper)
}
