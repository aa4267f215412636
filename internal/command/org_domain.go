package command

import (
	"context"
	"strings"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/org"
	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// AddOrgDomain registers a domain on an org. The domain does not reserve the
// per-instance unique constraint until it is verified.
func (c *Commands) AddOrgDomain(ctx context.Context, orgID, domain string) (*ObjectDetails, error) {
	if domain = strings.TrimSpace(strings.ToLower(domain)); domain == "" || !strings.Contains(domain, ".") {
		return nil, zerrors.ThrowInvalidArgument(nil, "COMMAND-Dom10", "Errors.Org.Domain.Invalid")
	}
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "org", Action: "write", Scope: orgID}); err != nil {
		return nil, err
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewOrgDomainWriteModel(instanceID, orgID, domain)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.OrgState != OrgStateActive {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Dom11", "Errors.Org.NotFound")
	}
	if wm.State == OrgDomainStateActive {
		return nil, zerrors.ThrowAlreadyExists(nil, "COMMAND-Dom12", "Errors.Org.Domain.AlreadyExists")
	}

	events, err := c.Eventstore.Push(ctx, org.NewDomainAddedEvent(ctx, orgDomainAggregate(wm), domain))
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}

// VerifyOrgDomain marks a domain verified, reserving it per-instance. The
// ownership proof (DNS/HTTP challenge) is an external collaborator; this
// command records its outcome.
func (c *Commands) VerifyOrgDomain(ctx context.Context, orgID, domain string) (*ObjectDetails, error) {
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "org", Action: "write", Scope: orgID}); err != nil {
		return nil, err
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewOrgDomainWriteModel(instanceID, orgID, domain)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.State != OrgDomainStateActive {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Dom20", "Errors.Org.Domain.NotFound")
	}
	if wm.Verified {
		return nil, zerrors.ThrowPreconditionFailed(nil, "COMMAND-Dom21", "Errors.Org.Domain.AlreadyVerified")
	}

	events, err := c.Eventstore.Push(ctx, org.NewDomainVerifiedEvent(ctx, orgDomainAggregate(wm), domain))
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}

// SetPrimaryOrgDomain promotes a verified domain to primary, demoting any
// previous primary.
func (c *Commands) SetPrimaryOrgDomain(ctx context.Context, orgID, domain string) (*ObjectDetails, error) {
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "org", Action: "write", Scope: orgID}); err != nil {
		return nil, err
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewOrgDomainWriteModel(instanceID, orgID, domain)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.State != OrgDomainStateActive {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Dom20", "Errors.Org.Domain.NotFound")
	}
	if !wm.Verified {
		return nil, zerrors.ThrowPreconditionFailed(nil, "COMMAND-Dom30", "Errors.Org.Domain.NotVerified")
	}

	events, err := c.Eventstore.Push(ctx, org.NewDomainPrimarySetEvent(ctx, orgDomainAggregate(wm), domain))
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}

// RemoveOrgDomain removes a non-primary domain, releasing its unique
// constraint when it was verified. The primary domain cannot be removed.
func (c *Commands) RemoveOrgDomain(ctx context.Context, orgID, domain string) (*ObjectDetails, error) {
	if err := c.Permission.CheckPermission(ctx, authz.Permission{Resource: "org", Action: "write", Scope: orgID}); err != nil {
		return nil, err
	}

	instanceID := authz.GetInstance(ctx).InstanceID()
	wm := NewOrgDomainWriteModel(instanceID, orgID, domain)
	if err := load(ctx, c.Eventstore, wm); err != nil {
		return nil, err
	}
	if wm.State != OrgDomainStateActive {
		return nil, zerrors.ThrowNotFound(nil, "COMMAND-Dom20", "Errors.Org.Domain.NotFound")
	}
	if wm.Primary {
		return nil, zerrors.ThrowPreconditionFailed(nil, "COMMAND-Dom31", "Errors.Org.Domain.PrimaryNotRemovable")
	}

	events, err := c.Eventstore.Push(ctx, org.NewDomainRemovedEvent(ctx, orgDomainAggregate(wm), domain, wm.Verified))
	if err != nil {
		return nil, err
	}
	if err := appendAndReduce(wm, events...); err != nil {
		return nil, err
	}
	return detailsFromEvent(events[0]), nil
}

func orgDomainAggregate(wm *OrgDomainWriteModel) *eventstore.Aggregate {
	return &eventstore.Aggregate{
		ID:            wm.AggregateID,
		Type:          org.AggregateType,
		InstanceID:    wm.InstanceID,
		ResourceOwner: wm.ResourceOwner,
		Version:       wm.Sequence,
	}
}
