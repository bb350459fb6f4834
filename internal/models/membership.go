package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MembershipStatusActive   = "active"
	MembershipStatusDisabled = "disabled"
)

// Membership binds one user to one tenant with a tenant-scoped role.
// The (user_id, tenant_id) pair is the primary key; a user may hold
// memberships in any number of tenants, each with an independent role.
type Membership struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Role      string    `json:"role" db:"role"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserTenancy is a membership joined with its tenant, returned by the
// "my tenancies" view. TenantStatus lets clients grey out memberships
// under suspended or deleted tenants; such memberships are inert but
// kept stored.
type UserTenancy struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	TenantName   string    `json:"tenant_name"`
	TenantSlug   string    `json:"tenant_slug"`
	TenantStatus string    `json:"tenant_status"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
