package access

// Role is a named bundle of permissions. The set is closed.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleProjectLeader Role = "project_leader"
	RoleMember        Role = "member"
)

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permission is an atomic capability, namespaced as resource.action.
type Permission string

const (
	PermProjectsView   Permission = "projects.view"
	PermProjectsManage Permission = "projects.manage"
	PermTasksView      Permission = "tasks.view"
	PermTasksManage    Permission = "tasks.manage"
	PermTeamsView      Permission = "teams.view"
	PermTeamsManage    Permission = "teams.manage"
	PermUsersView      Permission = "users.view"
	PermUsersManage    Permission = "users.manage"
	PermReportsView    Permission = "reports.view"
)

// rolePermissions is the static role to permission table. Reference data,
// never mutated at runtime.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermProjectsView, PermProjectsManage,
		PermTasksView, PermTasksManage,
		PermTeamsView, PermTeamsManage,
		PermUsersView, PermUsersManage,
		PermReportsView,
	},
	RoleProjectLeader: {
		PermProjectsView, PermProjectsManage,
		PermTasksView, PermTasksManage,
		PermTeamsView,
		PermReportsView,
	},
	RoleMember: {
		PermProjectsView,
		PermTasksView,
		PermTeamsView,
	},
}

// Permissions returns the static permission set granted by the role.
func (r Role) Permissions() []Permission {
	perms := rolePermissions[r]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// Assignment grants a role to a user, optionally scoped to one project.
// A nil ProjectID means the role applies globally.
type Assignment struct {
	Role      Role   `json:"role"`
	ProjectID *int64 `json:"project_id,omitempty"`
}

// Global reports whether the assignment applies to every project scope.
func (a Assignment) Global() bool {
	return a.ProjectID == nil
}

// NormalizeAssignments drops assignments with unknown roles and duplicate
// (role, project) pairs, preserving first-seen order.
func NormalizeAssignments(assignments []Assignment) []Assignment {
	type pair struct {
		role    Role
		project int64
		global  bool
	}
	seen := make(map[pair]struct{}, len(assignments))
	out := make([]Assignment, 0, len(assignments))
	for _, a := range assignments {
		if !a.Role.Valid() {
			continue
		}
		p := pair{role: a.Role, global: a.ProjectID == nil}
		if a.ProjectID != nil {
			p.project = *a.ProjectID
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, a)
	}
	return out
}

// User is the authenticated session identity consulted by gating.
type User struct {
	ID          int64        `json:"id"`
	Email       string       `json:"email"`
	Name        string       `json:"name"`
	Assignments []Assignment `json:"assignments"`
}
