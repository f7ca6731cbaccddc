package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"Team Leader", RoleTeamLeader},
		{"team-leader", RoleTeamLeader},
		{" AGENT ", RoleAgent},
		{"Operations Manager", RoleOperationsManager},
		{"agent_manager", RoleAgentManager},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseRole("superuser")
	assert.Error(t, err)
}

func TestCan(t *testing.T) {
	assert.True(t, Can(RoleAdmin, PermUsersManage))
	assert.True(t, Can(RoleOperationsManager, PermUsersManage))
	assert.False(t, Can(RoleOperations, PermUsersManage))
	assert.True(t, Can(RoleAgent, PermLeadsRefer))
	assert.False(t, Can(RoleAgent, PermLeadsDelete))
	assert.False(t, Can(RoleAgent, PermLeadsImport))
	assert.True(t, Can(RoleAgentManager, PermLeadsImport))
	assert.True(t, Can(RoleAccountant, PermReportsExport))
	assert.False(t, Can(RoleAccountant, PermLeadsView))
	assert.False(t, Can(Role("ghost"), PermLeadsView))
}

func TestEveryRoleHasPermissions(t *testing.T) {
	for _, r := range AllRoles {
		assert.NotEmpty(t, Permissions(r), r)
	}
	perms := Permissions(RoleAgent)
	for i := 1; i < len(perms); i++ {
		assert.Less(t, string(perms[i-1]), string(perms[i]))
	}
}

func TestScopeOf(t *testing.T) {
	assert.Equal(t, ScopeOwn, ScopeOf(RoleAgent))
	assert.Equal(t, ScopeTeam, ScopeOf(RoleTeamLeader))
	assert.Equal(t, ScopeAll, ScopeOf(RoleAgentManager))
	assert.Equal(t, ScopeAll, ScopeOf(RoleAccountant))
}

func TestManagementAndReferralTargets(t *testing.T) {
	assert.True(t, IsManagement(RoleAgentManager))
	assert.False(t, IsManagement(RoleTeamLeader))
	assert.True(t, CanReceiveReferrals(RoleTeamLeader))
	assert.False(t, CanReceiveReferrals(RoleAccountant))
	assert.True(t, RoleAgent.Valid())
	assert.False(t, Role("Agent").Valid())
}
