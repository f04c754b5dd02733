package model

import "fmt"

// Role is the closed set of caller roles supplied by the identity provider.
type Role string

const (
	RoleUser       Role = "USER"
	RoleStudent    Role = "STUDENT"
	RoleAdmin      Role = "ADMIN"
	RoleSuperVisor Role = "SUPERVISOR"
)

// IsBypass reports whether the role skips progression gating.
// Bypass roles still produce progress records when they complete assessments.
func (r Role) IsBypass() bool {
	return r == RoleAdmin || r == RoleSuperVisor
}

// ParseRole validates a role string from an identity token.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleStudent, RoleAdmin, RoleSuperVisor:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Identity is the authenticated caller on every engine operation.
// The engine never authenticates; it only authorizes with the supplied role.
type Identity struct {
	UserID int  `json:"user_id"`
	Role   Role `json:"role"`
}
