// Package types provides type definitions for structured data used throughout the interview-coordinator system.
package types

import "github.com/google/uuid"

// Role identifies the authorization role of an actor.
type Role string

// Role constants define the roles recognized by the authorization layer.
const (
	// RoleAdmin has full access to all requests and transitions.
	RoleAdmin Role = "admin"
	// RoleMaintainer has the same request access as admin.
	RoleMaintainer Role = "maintainer"
	// RoleInterviewer sees only approved requests in its assigned field.
	RoleInterviewer Role = "interviewer"
	// RoleUser is a candidate; sees only requests it authored.
	RoleUser Role = "user"
)

// ParseRole converts a string to a Role. Returns false for unknown values.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleMaintainer, RoleInterviewer, RoleUser:
		return Role(s), true
	default:
		return "", false
	}
}

// IsStaff reports whether the role has unrestricted request access.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleMaintainer
}

// Actor is the authenticated identity performing an operation.
// It is supplied per request by the auth layer and never persisted here.
type Actor struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          Role      `json:"role"`
	AssignedField string    `json:"assigned_field,omitempty"`
}
