package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pid(id int64) *int64 {
	return &id
}

func TestEvaluateEmptyRequirementAllowsEveryone(t *testing.T) {
	assert.True(t, Evaluate(nil, Requirement{}))
	assert.True(t, Evaluate([]Assignment{{Role: RoleMember}}, Requirement{}))
}

func TestEvaluateNoAssignmentsDenied(t *testing.T) {
	req := Requirement{Permissions: []Permission{PermProjectsView}}
	assert.False(t, Evaluate(nil, req))
	assert.False(t, Evaluate([]Assignment{}, req))
}

func TestEvaluateGlobalAssignmentPassesAnyScope(t *testing.T) {
	assignments := []Assignment{{Role: RoleAdmin}}

	assert.True(t, Evaluate(assignments, Requirement{Permissions: []Permission{PermUsersManage}}))
	assert.True(t, Evaluate(assignments, Requirement{Permissions: []Permission{PermTasksManage}, ProjectID: pid(7)}))
	assert.True(t, Evaluate(assignments, Requirement{Roles: []Role{RoleAdmin}, ProjectID: pid(99)}))
}

func TestEvaluateScopedAssignmentOnlyItsOwnProject(t *testing.T) {
	assignments := []Assignment{{Role: RoleProjectLeader, ProjectID: pid(7)}}

	assert.True(t, Evaluate(assignments, Requirement{Permissions: []Permission{PermTasksManage}, ProjectID: pid(7)}))
	assert.False(t, Evaluate(assignments, Requirement{Permissions: []Permission{PermTasksManage}, ProjectID: pid(8)}))
}

func TestEvaluateScopedAssignmentFailsUnscopedRequirement(t *testing.T) {
	assignments := []Assignment{{Role: RoleProjectLeader, ProjectID: pid(7)}}

	assert.False(t, Evaluate(assignments, Requirement{Permissions: []Permission{PermTasksManage}}))
	assert.False(t, Evaluate(assignments, Requirement{Roles: []Role{RoleProjectLeader}}))
}

func TestEvaluateAnyOfSemantics(t *testing.T) {
	assignments := []Assignment{{Role: RoleMember}}

	// Member has tasks.view but not tasks.manage; any-of passes.
	req := Requirement{Permissions: []Permission{PermTasksManage, PermTasksView}}
	assert.True(t, Evaluate(assignments, req))

	// Role list is alternative to the permission list.
	req = Requirement{Roles: []Role{RoleAdmin}, Permissions: []Permission{PermTasksView}}
	assert.True(t, Evaluate(assignments, req))
}

func TestEvaluateRequireAllIsConjunctionAcrossRolesAndPermissions(t *testing.T) {
	assignments := []Assignment{{Role: RoleProjectLeader}}

	req := Requirement{
		Roles:       []Role{RoleProjectLeader},
		Permissions: []Permission{PermProjectsManage, PermTasksManage},
		RequireAll:  true,
	}
	assert.True(t, Evaluate(assignments, req))

	// One missing permission fails the whole requirement.
	req.Permissions = append(req.Permissions, PermUsersManage)
	assert.False(t, Evaluate(assignments, req))

	// One missing role fails even when all permissions hold.
	req = Requirement{
		Roles:       []Role{RoleAdmin},
		Permissions: []Permission{PermProjectsView},
		RequireAll:  true,
	}
	assert.False(t, Evaluate(assignments, req))
}

func TestEvaluateUnionsPermissionsAcrossAssignments(t *testing.T) {
	assignments := []Assignment{
		{Role: RoleMember},
		{Role: RoleProjectLeader, ProjectID: pid(3)},
	}
	req := Requirement{
		Permissions: []Permission{PermProjectsView, PermTasksManage},
		ProjectID:   pid(3),
		RequireAll:  true,
	}
	assert.True(t, Evaluate(assignments, req))

	// Outside project 3 only the member grant applies.
	req.ProjectID = pid(4)
	assert.False(t, Evaluate(assignments, req))
}

func TestNormalizeAssignments(t *testing.T) {
	in := []Assignment{
		{Role: RoleMember},
		{Role: RoleMember},
		{Role: RoleMember, ProjectID: pid(1)},
		{Role: RoleMember, ProjectID: pid(1)},
		{Role: Role("superuser")},
		{Role: RoleAdmin, ProjectID: pid(2)},
	}
	out := NormalizeAssignments(in)
	require.Len(t, out, 3)
	assert.Equal(t, RoleMember, out[0].Role)
	assert.Nil(t, out[0].ProjectID)
	assert.Equal(t, RoleMember, out[1].Role)
	require.NotNil(t, out[1].ProjectID)
	assert.EqualValues(t, 1, *out[1].ProjectID)
	assert.Equal(t, RoleAdmin, out[2].Role)
}

func TestRolePermissionsTable(t *testing.T) {
	assert.Contains(t, RoleAdmin.Permissions(), PermUsersManage)
	assert.Contains(t, RoleProjectLeader.Permissions(), PermTasksManage)
	assert.NotContains(t, RoleProjectLeader.Permissions(), PermUsersManage)
	assert.NotContains(t, RoleMember.Permissions(), PermProjectsManage)
	assert.False(t, Role("superuser").Valid())
}
