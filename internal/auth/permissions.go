package auth

import "slices"

// Role is an authorisation tier.
type Role string

const (
	// RoleViewer can read instance state.
	RoleViewer Role = "viewer"

	// RoleOperator can also change instance state.
	RoleOperator Role = "operator"
)

// IsValidRole reports whether r is a known role.
func IsValidRole(r Role) bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permission represents a named capability.
type Permission string

// Permission constants.
const (
	PermStatusRead      Permission = "status:read"
	PermAuditRead       Permission = "audit:read"
	PermInstanceControl Permission = "instance:control"
)

// rolePermissions maps each role to its granted permissions.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermStatusRead,
		PermAuditRead,
	},
	RoleOperator: {
		PermStatusRead,
		PermAuditRead,
		PermInstanceControl,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	return slices.Contains(rolePermissions[role], perm)
}

// PermissionsForRole returns all permissions granted to a role.
// Returns nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	return slices.Clone(rolePermissions[role])
}
