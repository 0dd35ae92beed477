package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Open reports whether the status counts against deletion of the parent case.
func (s TaskStatus) Open() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress
}

// Task belongs to exactly one case and inherits the case's office and
// category for scoping purposes.
type Task struct {
	Base
	CaseID       uuid.UUID  `db:"case_id" json:"case_id"`
	AssignedToID uuid.UUID  `db:"assigned_to_id" json:"assigned_to_id"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description,omitempty"`
	Status       TaskStatus `db:"status" json:"status"`
	DueDate      *time.Time `db:"due_date" json:"due_date,omitempty"`
}

type CreateTaskRequest struct {
	CaseID       uuid.UUID  `json:"case_id" binding:"required"`
	AssignedToID uuid.UUID  `json:"assigned_to_id" binding:"required"`
	Title        string     `json:"title" binding:"required,max=255"`
	Description  string     `json:"description" binding:"max=4000"`
	DueDate      *time.Time `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title        *string     `json:"title"`
	Description  *string     `json:"description"`
	Status       *TaskStatus `json:"status"`
	AssignedToID *uuid.UUID  `json:"assigned_to_id"`
	DueDate      *time.Time  `json:"due_date"`
}

// CompletionOnly reports whether the update touches nothing but the status,
// and moves it to completed. Task assignees without management rights are
// limited to exactly this mutation.
func (r UpdateTaskRequest) CompletionOnly() bool {
	if r.Status == nil || *r.Status != TaskStatusCompleted {
		return false
	}
	return r.Title == nil && r.Description == nil && r.AssignedToID == nil && r.DueDate == nil
}

type TaskFilters struct {
	CaseID       uuid.UUID  `form:"case_id"`
	AssignedToID uuid.UUID  `form:"assigned_to_id"`
	Status       TaskStatus `form:"status"`
	Pagination
}
