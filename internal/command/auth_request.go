package command

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/authrequest"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// AddAuthRequest starts an auth request.
func (c *Commands) AddAuthRequest(ctx context.Context, clientID, redirectURI, responseType string) (*ObjectDetails, string, error) {
	if clientID == "" || redirectURI == "" {
		return nil, "", zerrors.ThrowInvalidArgument(nil, "COMMAND-Auth01", "Errors.AuthRequest.InvalidInput")
	}

	id := c.IDs.New()
	instanceID := authz.GetInstance(ctx).InstanceID()
	aggregate := &eventstore.Aggregate{
		ID:            id,
		Type:          authrequest.AggregateType,
		InstanceID:    instanceID,
		ResourceOwner: instanceID,
	}

	event := authrequest.NewAddedEvent(ctx, aggregate, clientID, redirectURI, responseType)
	events, err := c.Eventstore.Push(ctx, event)
	if err != nil {
		return nil, "", err
	}

	wm := NewAuthRequestWriteModel(instanceID, id)
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, "", err
	}
	return detailsFromEvent(events[0]), id, nil
}

// SelectUser binds a user to an ADDED auth request.
func (c *Commands) SelectUser(ctx context.Context, id, userID string) (*ObjectDetails, error) {
	wm, err := c.loadAuthRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if wm.State != AuthRequestStateAdded {
		return nil, zerrors.ThrowPreconditionFailed(nil, "COMMAND-Auth20", "Errors.AuthRequest.NotAdded")
	}
	return c.pushAuthRequestEvent(ctx, wm, authrequest.NewUserSelectedEvent(ctx, authRequestAggregate(wm), userID))
}

// CheckPassword validates candidate against the injected PasswordHasher.
// A failed check emits
// password.failed and still returns success details to the caller; the
// request's state simply does not advance to PASSWORD_CHECKED.
func (c *Commands) CheckPassword(ctx context.Context, id, candidate string) (*ObjectDetails, error) {
	wm, err := c.loadAuthRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if wm.State != AuthRequestStateUserSelected {
		return nil, zerrors.ThrowPreconditionFailed(nil, "COMMAND-Auth21", "Errors.AuthRequest.NoUserSelected")
	}

	ok, err := c.Passwords.Verify(candidate)
	if err != nil {
		return nil, zerrors.ThrowInternal(err, "COMMAND-Auth22", "Errors.AuthRequest.PasswordCheckFailed")
	}

	var event eventstore.Command
	if ok {
		event = authrequest.NewPasswordCheckedEvent(ctx, authRequestAggregate(wm))
	} else {
		event = authrequest.NewPasswordFailedEvent(ctx, authRequestAggregate(wm))
	}
	return c.pushAuthRequestEvent(ctx, wm, event)
}

// SucceedAuthRequest completes the flow and returns the one-time auth
// code. A second call on an already-SUCCEEDED request fails with the
// literal COMMAND-Auth41.
func (c *Commands) SucceedAuthRequest(ctx context.Context, id string) (*ObjectDetails, string, error) {
	wm, err := c.loadAuthRequest(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if wm.State == AuthRequestStateSucceeded {
		return nil, "", zerrors.ThrowPreconditionFailed(nil, "COMMAND-Auth41", "Errors.AuthRequest.AlreadySucceeded")
	}
	if wm.State != AuthRequestStatePasswordChecked {
		return nil, "", zerrors.ThrowPreconditionFailed(nil, "COMMAND-Auth40", "Errors.AuthRequest.NotPasswordChecked")
	}

	authCode := c.IDs.New()
	details, err := c.pushAuthRequestEvent(ctx, wm, authrequest.NewSucceededEvent(ctx, authRequestAggregate(wm), authCode))
	if err != nil {
		return nil, "", err
	}
	return details, authCode, nil
}

func (c *Commands) loadAuthRequest(ctx context.Context, id string) (*AuthRequestWriteModel, error) {
	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewAuthRequestWriteModel(instanceID, id)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.State == AuthRequestStateUnspecified {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Auth10", "Errors.AuthRequest.NotFound")
	}
	return wm, nil
}

func authRequestAggregate(wm *AuthRequestWriteModel) *eventstore.Aggregate {
	return &eventstore.Aggregate{
		ID:            wm.AggregateID,
		Type:          authrequest.AggregateType,
		InstanceID:    wm.InstanceID,
		ResourceOwner: wm.ResourceOwner,
		Version:       wm.Sequence,
	}
}

func (c *Commands) pushAuthRequestEvent(ctx context.Context, wm *AuthRequestWriteModel, command eventstore.Command) (*ObjectDetails, error) {
	events, err := c.Eventstore.Push(ctx, command)
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}
