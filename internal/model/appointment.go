package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment belongs to exactly one case and inherits the case's office
// and category for scoping purposes.
type Appointment struct {
	Base
	CaseID          uuid.UUID         `db:"case_id" json:"case_id"`
	AssignedStaffID uuid.UUID         `db:"assigned_staff_id" json:"assigned_staff_id"`
	Status          AppointmentStatus `db:"status" json:"status"`
	StartTime       time.Time         `db:"start_time" json:"start_time"`
	EndTime         time.Time         `db:"end_time" json:"end_time"`
	Notes           string            `db:"notes" json:"notes,omitempty"`
	CancelReason    *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

type CreateAppointmentRequest struct {
	CaseID          uuid.UUID `json:"case_id" binding:"required"`
	AssignedStaffID uuid.UUID `json:"assigned_staff_id" binding:"required"`
	StartTime       time.Time `json:"start_time" binding:"required"`
	EndTime         time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
	Notes           string    `json:"notes" binding:"max=1000"`
}

type UpdateAppointmentRequest struct {
	StartTime    *time.Time         `json:"start_time"`
	EndTime      *time.Time         `json:"end_time"`
	Status       *AppointmentStatus `json:"status"`
	Notes        *string            `json:"notes"`
	CancelReason *string            `json:"cancel_reason"`
}

type AppointmentFilters struct {
	CaseID          uuid.UUID         `form:"case_id"`
	AssignedStaffID uuid.UUID         `form:"assigned_staff_id"`
	Status          AppointmentStatus `form:"status"`
	StartDate       time.Time         `form:"start_date"`
	EndDate         time.Time         `form:"end_date"`
	Pagination
}
