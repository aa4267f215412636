package command

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/user"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// AddHumanWebAuthN begins registration of a WebAuthn token on a human user.
// Returns the token id and the challenge the authenticator must sign; the
// challenge is a one-time secret: readable from the write model only until
// verification and never from the read side.
func (c *Commands) AddHumanWebAuthN(ctx context.Context, userID string) (*ObjectDetails, string, string, error) {
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "user", Action: "write", Scope: userID}); err != nil {
		return nil, "", "", err
	}

	tokenID := c.IDs.New()
	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewWebAuthNWriteModel(instanceID, userID, tokenID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, "", "", err
	}
	if wm.UserState == UserStateUnspecified || wm.UserState == UserStateRemoved {
		return nil, "", "", zerrors.ThrowNotFound(nil, "COMMAND-User20", "Errors.User.NotFound")
	}

	challenge, err := newChallenge()
	if err != nil {
		return nil, "", "", err
	}
	events, err := c.Eventstore.Push(ctx, user.NewHumanWebAuthNAddedEvent(ctx, webAuthNAggregate(wm), tokenID, challenge))
	if err != nil {
		return nil, "", "", err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, "", "", err
	}
	return detailsFromEvent(events[0]), tokenID, challenge, nil
}

// VerifyHumanWebAuthN completes registration: the caller has validated the
// attestation against the challenge (the cryptographic check is an external
// collaborator) and supplies the resulting credential key id and public key.
func (c *Commands) VerifyHumanWebAuthN(ctx context.Context, userID, tokenID, attestationType, authenticatorName string, keyID, publicKey []byte, signCount uint32) (*ObjectDetails, error) {
	if len(keyID) == 0 || len(publicKey) == 0 {
		return nil, zerrors.ThrowInvalidArgument(nil, "COMMAND-WebAuthN10", "Errors.User.WebAuthN.InvalidCredential")
	}
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "user", Action: "write", Scope: userID}); err != nil {
		return nil, err
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewWebAuthNWriteModel(instanceID, userID, tokenID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.State == WebAuthNStateUnspecified || wm.State == WebAuthNStateRemoved {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-WebAuthN20", "Errors.User.WebAuthN.NotFound")
	}
	if wm.State != WebAuthNStateNotReady {
		return nil, zerrors.ThrowPreconditionFailed(nil, "COMMAND-WebAuthN30", "Errors.User.WebAuthN.AlreadyReady")
	}

	event := user.NewHumanWebAuthNVerifiedEvent(ctx, webAuthNAggregate(wm), tokenID, attestationType, authenticatorName, keyID, publicKey, signCount)
	events, err := c.Eventstore.Push(ctx, event)
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}

// RemoveHumanWebAuthN removes a token in any post-UNSPECIFIED state.
func (c *Commands) RemoveHumanWebAuthN(ctx context.Context, userID, tokenID string) (*ObjectDetails, error) {
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "user", Action: "write", Scope: userID}); err != nil {
		return nil, err
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewWebAuthNWriteModel(instanceID, userID, tokenID)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.State == WebAuthNStateUnspecified || wm.State == WebAuthNStateRemoved {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-WebAuthN20", "Errors.User.WebAuthN.NotFound")
	}

	events, err := c.Eventstore.Push(ctx, user.NewHumanWebAuthNRemovedEvent(ctx, webAuthNAggregate(wm), tokenID))
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}

func webAuthNAggregate(wm *WebAuthNWriteModel) *eventstore.Aggregate {
	return &eventstore.Aggregate{
		ID:            wm.AggregateID,
		Type:          user.AggregateType,
		InstanceID:    wm.InstanceID,
		ResourceOwner: wm.ResourceOwner,
		Version:       wm.Sequence,
	}
}

func newChallenge() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", zerrors.ThrowInternal(err, "COMMAND-WebAuthN01", "Errors.Internal")
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
