package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"USER", "STUDENT", "ADMIN", "SUPERVISOR"} {
		role, err := ParseRole(s)
		require.NoError(t, err)
		assert.Equal(t, Role(s), role)
	}

	for _, s := range []string{"", "admin", "ROOT", "Supervisor"} {
		_, err := ParseRole(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestRoleIsBypass(t *testing.T) {
	assert.False(t, RoleUser.IsBypass())
	assert.False(t, RoleStudent.IsBypass())
	assert.True(t, RoleAdmin.IsBypass())
	assert.True(t, RoleSuperVisor.IsBypass())
}
