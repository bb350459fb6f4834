package auth

import (
	"log"

	"boxtenant/internal/common"

	"github.com/google/uuid"
)

// Gate rules, applied in order:
//  1. no identity -> Unauthorized
//  2. super_admin -> always authorized, including across tenants
//  3. insufficient role -> Forbidden
//  4. target tenant supplied and not the actor's active tenant -> Forbidden
//
// Every decision is logged for audit; logging is a platform concern and
// never affects the decision itself.

// RequireRole authorizes actor against required with no tenant scoping.
func RequireRole(actor *Context, required string) (*Context, error) {
	return RequireRoleInTenant(actor, required, uuid.Nil)
}

// RequireRoleInTenant authorizes actor against required. When tenantID
// is non-nil, the actor's active tenant must match it unless the actor
// is a super admin.
func RequireRoleInTenant(actor *Context, required string, tenantID uuid.UUID) (*Context, error) {
	if actor == nil {
		logDecision(nil, required, tenantID, "denied", "no authentication")
		return nil, common.NewUnauthorized("authentication required")
	}
	if actor.IsSuperAdmin() {
		logDecision(actor, required, tenantID, "granted", "")
		return actor, nil
	}
	if !HasRole(actor.Role, required) {
		logDecision(actor, required, tenantID, "denied", "insufficient role")
		return nil, common.NewForbidden("insufficient role")
	}
	if tenantID != uuid.Nil && actor.ActiveTenantID != tenantID {
		logDecision(actor, required, tenantID, "denied", "cross-tenant access")
		return nil, common.NewForbidden("cross-tenant access")
	}
	logDecision(actor, required, tenantID, "granted", "")
	return actor, nil
}

// RequireSuperAdmin authorizes only global administrators.
func RequireSuperAdmin(actor *Context) (*Context, error) {
	return RequireRole(actor, RoleSuperAdmin)
}

// RequireTenantAdmin authorizes tenant administrators, optionally
// scoped to a specific tenant.
func RequireTenantAdmin(actor *Context, tenantID uuid.UUID) (*Context, error) {
	return RequireRoleInTenant(actor, RoleTenantAdmin, tenantID)
}

// RequireStaff authorizes any authenticated member.
func RequireStaff(actor *Context) (*Context, error) {
	return RequireRole(actor, RoleStaff)
}

func logDecision(actor *Context, required string, tenantID uuid.UUID, outcome, reason string) {
	actorID, actorRole := "anonymous", ""
	if actor != nil {
		actorID = actor.UserID.String()
		actorRole = actor.Role
	}
	target := ""
	if tenantID != uuid.Nil {
		target = tenantID.String()
	}
	if reason != "" {
		log.Printf("authz decision=%s actor=%s role=%s required=%s tenant=%s reason=%q", outcome, actorID, actorRole, required, target, reason)
		return
	}
	log.Printf("authz decision=%s actor=%s role=%s required=%s tenant=%s", outcome, actorID, actorRole, required, target)
}
