package model

import "strings"

// Role is a user's authorization level.
type Role string

const (
	RolePublic Role = "public"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// Roles lists the assignable roles in ascending order of privilege.
var Roles = []Role{RolePublic, RoleEditor, RoleAdmin}

// ParseRole normalizes s to a known role. Unknown values map to RolePublic.
func ParseRole(s string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleEditor, RoleAdmin:
		return r
	}
	return RolePublic
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePublic, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

// CanEdit reports whether u may upload and delete images and manage albums
// and collections.
func CanEdit(u *User) bool {
	if u == nil {
		return false
	}
	return u.Role == RoleEditor || u.Role == RoleAdmin
}

// CanAdmin reports whether u may change site settings and manage users.
func CanAdmin(u *User) bool {
	return u != nil && u.Role == RoleAdmin
}

// CanInteract reports whether u may like and comment.
func CanInteract(u *User) bool {
	return u != nil
}
