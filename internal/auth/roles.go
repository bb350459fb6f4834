package auth

// Platform roles. super_admin is global; tenant_admin and staff are
// tenant-scoped through memberships.
const (
	RoleSuperAdmin  = "super_admin"
	RoleTenantAdmin = "tenant_admin"
	RoleStaff       = "staff"
)

// roleLevels is the single source of truth for privilege comparison.
// Client-side copies of this table are UX hints only; every enforcement
// decision goes through HasRole.
var roleLevels = map[string]int{
	RoleSuperAdmin:  3,
	RoleTenantAdmin: 2,
	RoleStaff:       1,
}

// RoleLevel returns the privilege level of a role. Unknown roles map
// to 0 and therefore never satisfy any requirement.
func RoleLevel(role string) int {
	return roleLevels[role]
}

// HasRole reports whether actual carries at least the privilege of
// required.
func HasRole(actual, required string) bool {
	return RoleLevel(actual) >= RoleLevel(required)
}

// IsTenantRole reports whether role is grantable through a membership.
func IsTenantRole(role string) bool {
	return role == RoleTenantAdmin || role == RoleStaff
}
