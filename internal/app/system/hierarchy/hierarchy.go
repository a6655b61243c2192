// Package hierarchy encodes the four-level role ladder:
//
//	main_admin → super_admin → admin → user
//
// Every rule about who may create, manage, or allocate to whom lives
// here. The ladder is strict: an actor creates accounts exactly one
// level below itself, and allocates data one level below (or to itself,
// for the main admin).
package hierarchy

import "strings"

const (
	RoleMainAdmin  = "main_admin"
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleUser       = "user"
)

// rank maps roles to their depth in the tree; lower is more powerful.
var rank = map[string]int{
	RoleMainAdmin:  0,
	RoleSuperAdmin: 1,
	RoleAdmin:      2,
	RoleUser:       3,
}

// IsValid reports whether role is one of the four ladder roles.
func IsValid(role string) bool {
	_, ok := rank[Canonical(role)]
	return ok
}

// Canonical lowercases and trims a role string.
func Canonical(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// ChildRole returns the role one level below the given role, or "" if
// the role is "user" (the leaf) or unknown.
func ChildRole(role string) string {
	switch Canonical(role) {
	case RoleMainAdmin:
		return RoleSuperAdmin
	case RoleSuperAdmin:
		return RoleAdmin
	case RoleAdmin:
		return RoleUser
	default:
		return ""
	}
}

// CanCreate reports whether an actor role may create an account with the
// target role. Creation is allowed exactly one level down.
func CanCreate(actorRole, targetRole string) bool {
	return ChildRole(actorRole) != "" && ChildRole(actorRole) == Canonical(targetRole)
}

// CanAllocateTo reports whether an actor may grant allocations to a
// grantee role: one level below, or to itself for the main admin.
func CanAllocateTo(actorRole, granteeRole string) bool {
	a, g := Canonical(actorRole), Canonical(granteeRole)
	if a == RoleMainAdmin && g == RoleMainAdmin {
		return true
	}
	return CanCreate(a, g)
}

// Manages reports whether actorRole sits strictly above role in the
// ladder. It says nothing about tree ancestry; callers combine this with
// a parent-chain check when scoping to a subtree.
func Manages(actorRole, role string) bool {
	ar, ok1 := rank[Canonical(actorRole)]
	tr, ok2 := rank[Canonical(role)]
	return ok1 && ok2 && ar < tr
}

// Admins returns the roles allowed to operate the dashboard at all.
func Admins() []string {
	return []string{RoleMainAdmin, RoleSuperAdmin, RoleAdmin}
}
