// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/taskora/internal/platform/sec"
)

/*
TestUserRole_AtLeast exercises the role hierarchy comparisons.
*/
func TestUserRole_AtLeast(t *testing.T) {
	tests := []struct {
		name     string
		role     sec.UserRole
		target   sec.UserRole
		expected bool
	}{
		{"admin_meets_admin", sec.RoleAdmin, sec.RoleAdmin, true},
		{"admin_meets_moderator", sec.RoleAdmin, sec.RoleModerator, true},
		{"admin_meets_user", sec.RoleAdmin, sec.RoleUser, true},
		{"moderator_meets_moderator", sec.RoleModerator, sec.RoleModerator, true},
		{"moderator_fails_admin", sec.RoleModerator, sec.RoleAdmin, false},
		{"user_meets_user", sec.RoleUser, sec.RoleUser, true},
		{"user_fails_moderator", sec.RoleUser, sec.RoleModerator, false},
		{"user_fails_admin", sec.RoleUser, sec.RoleAdmin, false},
		{"unknown_fails_user", sec.UserRole("GUEST"), sec.RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.AtLeast(tt.target))
		})
	}
}
