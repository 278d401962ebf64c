// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
//
// The catalog search service has exactly two roles: a standard user who can
// search and browse, and an admin who can additionally manage the user/token
// store (see internal/auth).
type UserRole string

const (
	// RoleAdmin grants unrestricted access, including user management.
	RoleAdmin UserRole = "admin"

	// RoleUser is the default role for authenticated, non-admin accounts.
	RoleUser UserRole = "user"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {
	switch r {
	case RoleAdmin:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}
