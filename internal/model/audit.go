package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CaseEvent is an append-only timeline entry on a case. The core only ever
// writes these; reading them back is a concern of the records UI.
type CaseEvent struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	CaseID    uuid.UUID       `db:"case_id" json:"case_id"`
	Type      string          `db:"type" json:"type"`
	ActorID   uuid.UUID       `db:"actor_id" json:"actor_id"`
	Payload   json.RawMessage `db:"payload" json:"payload,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Timeline event types recorded by the lifecycle manager.
const (
	EventStageUpdated  = "stage_updated"
	EventCaseCompleted = "case_completed"
	EventCaseDeleted   = "case_deleted"
	EventCaseArchived  = "case_archived"
	EventStaffAssigned = "staff_assigned"
)
