package domain

import "slices"

// Role is the closed set of authorization roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleUser}

// ParseRole returns the Role named s, or false if s is not a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, slices.Contains(Roles, r)
}

// In reports whether r is one of allowed.
func (r Role) In(allowed ...Role) bool {
	return slices.Contains(allowed, r)
}

func (r Role) String() string { return string(r) }
