package access

// Requirement describes the roles and permissions a caller must hold.
// An empty requirement (no roles, no permissions) allows everyone.
type Requirement struct {
	Roles       []Role
	Permissions []Permission
	ProjectID   *int64
	RequireAll  bool
}

// Empty reports whether the requirement imposes no restriction.
func (req Requirement) Empty() bool {
	return len(req.Roles) == 0 && len(req.Permissions) == 0
}

// Evaluate reports whether the assignments satisfy the requirement.
//
// An assignment is in scope when it is global or its project matches the
// requirement's project. Global assignments pass project-scoped checks for
// every project; scoped assignments never pass a check for a different
// project, nor an unscoped check. Permissions are resolved by unioning the
// permission sets of every in-scope assignment's role.
//
// With RequireAll unset, at least one listed role or permission must hold.
// With RequireAll set, every listed role and every listed permission must
// hold independently.
//
// Pure function of its inputs; safe to call on every request.
func Evaluate(assignments []Assignment, req Requirement) bool {
	if req.Empty() {
		return true
	}

	heldRoles := make(map[Role]struct{})
	heldPerms := make(map[Permission]struct{})
	for _, a := range assignments {
		if !inScope(a, req.ProjectID) {
			continue
		}
		heldRoles[a.Role] = struct{}{}
		for _, p := range rolePermissions[a.Role] {
			heldPerms[p] = struct{}{}
		}
	}

	if req.RequireAll {
		for _, r := range req.Roles {
			if _, ok := heldRoles[r]; !ok {
				return false
			}
		}
		for _, p := range req.Permissions {
			if _, ok := heldPerms[p]; !ok {
				return false
			}
		}
		return true
	}

	for _, r := range req.Roles {
		if _, ok := heldRoles[r]; ok {
			return true
		}
	}
	for _, p := range req.Permissions {
		if _, ok := heldPerms[p]; ok {
			return true
		}
	}
	return false
}

func inScope(a Assignment, projectID *int64) bool {
	if a.ProjectID == nil {
		return true
	}
	return projectID != nil && *a.ProjectID == *projectID
}
