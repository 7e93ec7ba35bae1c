// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "ADMIN"

	// Can moderate other users' content
	RoleModerator UserRole = "MODERATOR"

	// Default role for standard registered users
	RoleUser UserRole = "USER"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
// Admin capabilities are a superset of moderator capabilities.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-30) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 30
	case RoleModerator:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}
