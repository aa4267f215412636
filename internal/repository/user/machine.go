package user

import (
	"context"
	"time"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

const (
	MachineAddedEventType      eventstore.EventType = "user.machine.added"
	MachineKeyAddedEventType   eventstore.EventType = "user.machine.key.added"
	MachineKeyRemovedEventType eventstore.EventType = "user.machine.key.removed"
)

// MachineAddedEvent is user.machine.added: creation of a machine (service)
// user. Machine users share the per-instance username constraint with human
// users.
type MachineAddedEvent struct {
	eventstore.BaseEvent `json:"-"`

	Username    string `json:"username"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func NewMachineAddedEvent(ctx context.Context, aggregate *eventstore.Aggregate, username, name, description string) *MachineAddedEvent {
	return &MachineAddedEvent{
		BaseEvent:   *eventstore.NewBaseEventForPush(ctx, aggregate, MachineAddedEventType),
		Username:    username,
		Name:        name,
		Description: description,
	}
}

func (e *MachineAddedEvent) Payload() any { return e }

func (e *MachineAddedEvent) UniqueConstraints() []*eventstore.UniqueConstraint {
	return []*eventstore.UniqueConstraint{NewAddUsernameUniqueConstraint(e.Username)}
}

func MachineAddedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &MachineAddedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "USER-6k3sa", "unable to unmarshal event")
	}
	return e, nil
}

// MachineKeyAddedEvent is user.machine.key.added: one authentication key of
// a machine user, a sub-entity of the user aggregate keyed by KeyID.
type MachineKeyAddedEvent struct {
	eventstore.BaseEvent `json:"-"`

	KeyID          string    `json:"keyId"`
	ExpirationDate time.Time `json:"expirationDate"`
	PublicKey      []byte    `json:"publicKey,omitempty"`
}

func NewMachineKeyAddedEvent(ctx context.Context, aggregate *eventstore.Aggregate, keyID string, expirationDate time.Time, publicKey []byte) *MachineKeyAddedEvent {
	return &MachineKeyAddedEvent{
		BaseEvent:      *eventstore.NewBaseEventForPush(ctx, aggregate, MachineKeyAddedEventType),
		KeyID:          keyID,
		ExpirationDate: expirationDate,
		PublicKey:      publicKey,
	}
}

func (e *MachineKeyAddedEvent) Payload() any                                      { return e }
func (e *MachineKeyAddedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }

func MachineKeyAddedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &MachineKeyAddedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "USER-7j2sb", "unable to unmarshal event")
	}
	return e, nil
}

type MachineKeyRemovedEvent struct {
	eventstore.BaseEvent `json:"-"`

	KeyID string `json:"keyId"`
}

func NewMachineKeyRemovedEvent(ctx context.Context, aggregate *eventstore.Aggregate, keyID string) *MachineKeyRemovedEvent {
	return &MachineKeyRemovedEvent{
		BaseEvent: *eventstore.NewBaseEventForPush(ctx, aggregate, MachineKeyRemovedEventType),
		KeyID:     keyID,
	}
}

func (e *MachineKeyRemovedEvent) Payload() any                                      { return e }
func (e *MachineKeyRemovedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }

func MachineKeyRemovedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &MachineKeyRemovedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "USER-8h1sc", "unable to unmarshal event")
	}
	return e, nil
}
