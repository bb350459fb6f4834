package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const authContextKey contextKey = "auth_context"

// Context is the per-request identity derived from verified identity
// provider claims. It reflects what the token says; the membership
// store remains the source of truth for what the user is entitled to,
// and the two are reconciled by the tenant-switch operation.
type Context struct {
	UserID           uuid.UUID `json:"user_id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Role             string    `json:"role"`
	ActiveTenantID   uuid.UUID `json:"active_tenant_id,omitempty"`
	ActiveTenantName string    `json:"active_tenant_name,omitempty"`
}

func (a *Context) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

func (a *Context) HasActiveTenant() bool {
	return a.ActiveTenantID != uuid.Nil
}

// WithContext stores the authenticated identity in the request context.
func WithContext(ctx context.Context, actor *Context) context.Context {
	return context.WithValue(ctx, authContextKey, actor)
}

// FromContext extracts the authenticated identity from the request
// context. The second return is false when no identity was attached.
func FromContext(ctx context.Context) (*Context, bool) {
	actor, ok := ctx.Value(authContextKey).(*Context)
	return actor, ok && actor != nil
}
