package model

import (
	"time"

	"github.com/google/uuid"
)

type CaseStatus string

const (
	CaseStatusOpen      CaseStatus = "open"
	CaseStatusActive    CaseStatus = "active"
	CaseStatusPending   CaseStatus = "pending"
	CaseStatusCompleted CaseStatus = "completed"
	CaseStatusArchived  CaseStatus = "archived"
	CaseStatusDeleted   CaseStatus = "deleted"
)

// CaseCategory determines which department a case belongs to and which
// stage set its workflow moves through. Staff departments use the same
// closed set of values.
type CaseCategory string

const (
	CategoryFamiliar   CaseCategory = "familiar"
	CategoryCivil      CaseCategory = "civil"
	CategoryPsicologia CaseCategory = "psicologia"
	CategoryRecursos   CaseCategory = "recursos"
)

// categoryStages maps each category to its ordered workflow stages.
var categoryStages = map[CaseCategory][]string{
	CategoryFamiliar:   {"etapa_inicial", "notificacion", "audiencia_preliminar", "audiencia_juicio", "sentencia"},
	CategoryCivil:      {"etapa_inicial", "notificacion", "audiencia", "sentencia"},
	CategoryPsicologia: {"evaluacion_inicial", "sesiones", "seguimiento", "cierre"},
	CategoryRecursos:   {"revision_expediente", "apelacion", "resolucion"},
}

// Valid reports whether c is a known category.
func (c CaseCategory) Valid() bool {
	_, ok := categoryStages[c]
	return ok
}

// Stages returns the ordered stage list for the category.
func (c CaseCategory) Stages() []string {
	return categoryStages[c]
}

// HasStage reports whether stage belongs to the category's stage set.
func (c CaseCategory) HasStage(stage string) bool {
	for _, s := range categoryStages[c] {
		if s == stage {
			return true
		}
	}
	return false
}

// Case is the aggregate the lifecycle manager operates on. A case belongs to
// exactly one office; its stage must always be a member of Category.Stages().
type Case struct {
	Base
	OfficeID         uuid.UUID    `db:"office_id" json:"office_id"`
	Category         CaseCategory `db:"category" json:"category"`
	Status           CaseStatus   `db:"status" json:"status"`
	Stage            string       `db:"stage" json:"stage"`
	Title            string       `db:"title" json:"title"`
	Description      string       `db:"description" json:"description,omitempty"`
	PrimaryStaffID   uuid.UUID    `db:"primary_staff_id" json:"primary_staff_id"`
	AssignedStaffIDs []uuid.UUID  `db:"-" json:"assigned_staff_ids"`
	ClientID         uuid.UUID    `db:"client_id" json:"client_id"`
	Fee              float64      `db:"fee" json:"fee"`
	CompletedAt      *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
	ArchivedAt       *time.Time   `db:"archived_at" json:"archived_at,omitempty"`
}

// Meta projects the case into the attribute set scoping decisions use.
func (c *Case) Meta() ResourceMeta {
	return ResourceMeta{
		OfficeID:         c.OfficeID,
		Category:         c.Category,
		PrimaryStaffID:   c.PrimaryStaffID,
		AssignedStaffIDs: c.AssignedStaffIDs,
		ClientID:         c.ClientID,
	}
}

type CreateCaseRequest struct {
	OfficeID       uuid.UUID    `json:"office_id" binding:"required"`
	Category       CaseCategory `json:"category" binding:"required"`
	Title          string       `json:"title" binding:"required,max=255"`
	Description    string       `json:"description" binding:"max=4000"`
	ClientID       uuid.UUID    `json:"client_id" binding:"required"`
	PrimaryStaffID uuid.UUID    `json:"primary_staff_id" binding:"required"`
	Fee            float64      `json:"fee" binding:"gte=0"`
}

type UpdateCaseRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Fee         *float64 `json:"fee"`
}

type CaseFilters struct {
	Status   CaseStatus   `form:"status"`
	Category CaseCategory `form:"category"`
	OfficeID uuid.UUID    `form:"office_id"`
	Pagination
}
