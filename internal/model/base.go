package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all persisted models
type Base struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// ResourceKind identifies the resource class an authorization decision applies to.
type ResourceKind string

const (
	ResourceCase        ResourceKind = "case"
	ResourceAppointment ResourceKind = "appointment"
	ResourceTask        ResourceKind = "task"
)

// ResourceMeta carries the attributes of a single resource that scoping
// decisions are made against. Appointments and tasks inherit OfficeID and
// Category from their parent case.
type ResourceMeta struct {
	OfficeID         uuid.UUID
	Category         CaseCategory
	PrimaryStaffID   uuid.UUID
	AssignedStaffIDs []uuid.UUID
	ClientID         uuid.UUID
	AssignedToID     uuid.UUID
}

// IsAssignedTo reports whether userID is the primary staff, the direct
// assignee, or a member of the assigned-staff set.
func (m ResourceMeta) IsAssignedTo(userID uuid.UUID) bool {
	if m.PrimaryStaffID == userID || m.AssignedToID == userID {
		return true
	}
	for _, id := range m.AssignedStaffIDs {
		if id == userID {
			return true
		}
	}
	return false
}
