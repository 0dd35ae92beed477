package model

import (
	"github.com/google/uuid"
)

// Role is the closed set of identities the policy engine distinguishes.
// Adding a role here must be matched by a new arm in every exhaustive
// switch in internal/policy.
type Role string

const (
	RoleAdmin            Role = "admin"
	RoleOfficeManager    Role = "office_manager"
	RoleLawyer           Role = "lawyer"
	RolePsychologist     Role = "psychologist"
	RoleReceptionist     Role = "receptionist"
	RoleEventCoordinator Role = "event_coordinator"
	RoleClient           Role = "client"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOfficeManager, RoleLawyer, RolePsychologist,
		RoleReceptionist, RoleEventCoordinator, RoleClient:
		return true
	}
	return false
}

// IsManagement reports whether r is a management-tier role.
func (r Role) IsManagement() bool {
	return r == RoleAdmin || r == RoleOfficeManager
}

// IsStaff reports whether r is a department-scoped staff role.
func (r Role) IsStaff() bool {
	switch r {
	case RoleLawyer, RolePsychologist, RoleReceptionist, RoleEventCoordinator:
		return true
	}
	return false
}

// Identity is the request-scoped authorization context derived once from a
// verified credential. It is immutable for the lifetime of a request and
// passed by value; nothing here is ever read from process-wide state.
type Identity struct {
	UserID     uuid.UUID    `json:"user_id"`
	Role       Role         `json:"role"`
	OfficeID   uuid.UUID    `json:"office_id"`
	Department CaseCategory `json:"department,omitempty"`
}

// HasDepartment reports whether the identity carries a department alignment.
func (i Identity) HasDepartment() bool {
	return i.Department != ""
}
