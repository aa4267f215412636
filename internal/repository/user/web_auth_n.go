package user

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

const (
	HumanWebAuthNAddedEventType    eventstore.EventType = "user.human.webauthn.added"
	HumanWebAuthNVerifiedEventType eventstore.EventType = "user.human.webauthn.verified"
	HumanWebAuthNRemovedEventType  eventstore.EventType = "user.human.webauthn.removed"
)

// HumanWebAuthNAddedEvent is user.human.webauthn.added: registration of a
// WebAuthn token begins, carrying the challenge the authenticator must sign.
// The token is a sub-entity of the user aggregate keyed by WebAuthNTokenID.
type HumanWebAuthNAddedEvent struct {
	eventstore.BaseEvent `json:"-"`

	WebAuthNTokenID string `json:"webAuthNTokenId"`
	Challenge       string `json:"challenge"`
}

func NewHumanWebAuthNAddedEvent(ctx context.Context, aggregate *eventstore.Aggregate, tokenID, challenge string) *HumanWebAuthNAddedEvent {
	return &HumanWebAuthNAddedEvent{
		BaseEvent:       *eventstore.NewBaseEventForPush(ctx, aggregate, HumanWebAuthNAddedEventType),
		WebAuthNTokenID: tokenID,
		Challenge:       challenge,
	}
}

func (e *HumanWebAuthNAddedEvent) Payload() any                                      { return e }
func (e *HumanWebAuthNAddedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }

func HumanWebAuthNAddedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &HumanWebAuthNAddedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "USER-9g4sd", "unable to unmarshal event")
	}
	return e, nil
}

// HumanWebAuthNVerifiedEvent is user.human.webauthn.verified: the
// authenticator answered the challenge; the token becomes usable, carrying
// the credential key id and public key.
type HumanWebAuthNVerifiedEvent struct {
	eventstore.BaseEvent `json:"-"`

	WebAuthNTokenID   string `json:"webAuthNTokenId"`
	KeyID             []byte `json:"keyId"`
	PublicKey         []byte `json:"publicKey"`
	AttestationType   string `json:"attestationType,omitempty"`
	AuthenticatorName string `json:"authenticatorName,omitempty"`
	SignCount         uint32 `json:"signCount,omitempty"`
}

func NewHumanWebAuthNVerifiedEvent(ctx context.Context, aggregate *eventstore.Aggregate, tokenID, attestationType, authenticatorName string, keyID, publicKey []byte, signCount uint32) *HumanWebAuthNVerifiedEvent {
	return &HumanWebAuthNVerifiedEvent{
		BaseEvent:         *eventstore.NewBaseEventForPush(ctx, aggregate, HumanWebAuthNVerifiedEventType),
		WebAuthNTokenID:   tokenID,
		KeyID:             keyID,
		PublicKey:         publicKey,
		AttestationType:   attestationType,
		AuthenticatorName: authenticatorName,
		SignCount:         signCount,
	}
}

func (e *HumanWebAuthNVerifiedEvent) Payload() any                                      { return e }
func (e *HumanWebAuthNVerifiedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }

func HumanWebAuthNVerifiedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &HumanWebAuthNVerifiedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "USER-1f5se", "unable to unmarshal event")
	}
	return e, nil
}

type HumanWebAuthNRemovedEvent struct {
	eventstore.BaseEvent `json:"-"`

	WebAuthNTokenID string `json:"webAuthNTokenId"`
}

func NewHumanWebAuthNRemovedEvent(ctx context.Context, aggregate *eventstore.Aggregate, tokenID string) *HumanWebAuthNRemovedEvent {
	return &HumanWebAuthNRemovedEvent{
		BaseEvent:       *eventstore.NewBaseEventForPush(ctx, aggregate, HumanWebAuthNRemovedEventType),
		WebAuthNTokenID: tokenID,
	}
}

func (e *HumanWebAuthNRemovedEvent) Payload() any                                      { return e }
func (e *HumanWebAuthNRemovedEvent) UniqueConstraints() []*eventstore.UniqueConstraint { return nil }

func HumanWebAuthNRemovedEventMapper(event eventstore.Event) (eventstore.Event, error) {
	e := &HumanWebAuthNRemovedEvent{BaseEvent: *eventstore.BaseEventFromRepo(event)}
	if err := event.Unmarshal(e); err != nil {
		return nil, zerrors.ThrowInternal(err, "USER-2e6sf", "unable to unmarshal event")
	}
	return e, nil
}
