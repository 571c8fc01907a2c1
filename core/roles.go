package core

import "strings"

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminPrincipal = "admin:principal"

	// Teacher
	RoleTeacher = "teacher:"

	// Student
	RoleStudent = "student:"
)

var AllRoles = []string{RoleAdmin, RoleAdminOwner, RoleAdminPrincipal, RoleTeacher, RoleStudent}

// HasRolePrefix reports whether any of roles starts with prefix.
func HasRolePrefix(roles []string, prefix string) bool {
	for _, role := range roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}
