// Package authz carries instance (tenant) scope and the actor on a
// context.Context, and performs the RBAC check of the command pipeline.
package authz

import (
	"context"

	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

type ctxKey int

const instanceCtxKey ctxKey = 1

// Instance is the tenant bound to the current request.
type Instance interface {
	InstanceID() string
}

type instance struct {
	id string
}

func (i *instance) InstanceID() string { return i.id }

// WithInstanceID returns a context carrying the given tenant id.
func WithInstanceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, instanceCtxKey, &instance{id: id})
}

// GetInstance returns the instance bound to ctx, or a zero-value instance
// (empty id) if none was set. Never returns nil so call sites can chain
// .InstanceID() unconditionally.
func GetInstance(ctx context.Context) Instance {
	inst, ok := ctx.Value(instanceCtxKey).(Instance)
	if !ok {
		return &instance{}
	}
	return inst
}

// CtxData carries the actor performing the current command, as distinct
// from the tenant scope.
type CtxData struct {
	UserID   string
	OrgID    string
	Username string
}

type ctxDataKey int

const dataCtxKey ctxDataKey = 1

func WithCtxData(ctx context.Context, data CtxData) context.Context {
	return context.WithValue(ctx, dataCtxKey, data)
}

// GetCtxData returns the calling actor, defaulting to the "system" creator
// recorded for commands issued without an authenticated user.
func GetCtxData(ctx context.Context) CtxData {
	data, ok := ctx.Value(dataCtxKey).(CtxData)
	if !ok {
		return CtxData{UserID: "system"}
	}
	if data.UserID == "" {
		data.UserID = "system"
	}
	return data
}

// Permission is a (resource, action, scope) tuple checked before a command
// mutates state.
type Permission struct {
	Resource string
	Action   string
	Scope    string
}

// Checker is the RBAC collaborator; commands depend on this interface so
// the concrete authorization backend (roles, grants, system membership)
// stays an external concern.
type Checker interface {
	CheckPermission(ctx context.Context, perm Permission) error
}

// AllowAll is a permissive Checker used by tests and by single-tenant
// bootstrap flows (e.g. instance setup) that run before any role exists.
type AllowAll struct{}

func (AllowAll) CheckPermission(context.Context, Permission) error { return nil }

// RoleChecker enforces a simple static resource/action allowlist, the
// minimal shape needed to exercise the permission step of the command
// pipeline without depending on a full role/grant read model.
type RoleChecker struct {
	// Allowed maps a role name to the permissions it grants. A CtxData
	// without a recognized role (see Roles) is denied.
	Allowed map[string][]Permission
	Roles   func(ctx context.Context) []string
}

func (c *RoleChecker) CheckPermission(ctx context.Context, perm Permission) error {
	if c.Roles == nil {
		return zerrors.ThrowPermissionDenied(nil, "AUTHZ-ho3rT", "Errors.PermissionDenied")
	}
	for _, role := range c.Roles(ctx) {
		for _, p := range c.Allowed[role] {
			if p == perm {
				return nil
			}
		}
	}
	return zerrors.ThrowPermissionDenied(nil, "AUTHZ-ho3rT", "Errors.PermissionDenied")
}
