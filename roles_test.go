package auth_test

import (
	"testing"

	"github.com/reviewcat/auth"
	"github.com/stretchr/testify/assert"
)

func TestUserRole_IsValid(t *testing.T) {
	tests := []struct {
		role     auth.UserRole
		expected bool
	}{
		{auth.RoleUser, true},
		{auth.RoleModerator, true},
		{auth.RoleAdmin, true},
		{auth.UserRole("owner"), false},
		{auth.UserRole(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.IsValid())
		})
	}
}

func TestUserRole_IsAtLeast(t *testing.T) {
	assert.True(t, auth.RoleAdmin.IsAtLeast(auth.RoleUser))
	assert.True(t, auth.RoleAdmin.IsAtLeast(auth.RoleModerator))
	assert.True(t, auth.RoleModerator.IsAtLeast(auth.RoleUser))
	assert.True(t, auth.RoleUser.IsAtLeast(auth.RoleUser))

	assert.False(t, auth.RoleUser.IsAtLeast(auth.RoleModerator))
	assert.False(t, auth.RoleModerator.IsAtLeast(auth.RoleAdmin))
	assert.False(t, auth.UserRole("owner").IsAtLeast(auth.RoleUser))
	assert.False(t, auth.RoleAdmin.IsAtLeast(auth.UserRole("owner")))
}

func TestParseRole(t *testing.T) {
	role, ok := auth.ParseRole("moderator")
	assert.True(t, ok)
	assert.Equal(t, auth.RoleModerator, role)

	_, ok = auth.ParseRole("superhero")
	assert.False(t, ok)
}

func TestGetAllRoles(t *testing.T) {
	roles := auth.GetAllRoles()
	assert.Equal(t, []auth.UserRole{auth.RoleUser, auth.RoleModerator, auth.RoleAdmin}, roles)
	for _, role := range roles {
		assert.True(t, role.IsValid())
	}
}
