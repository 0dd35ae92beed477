// Package notifier builds the lifecycle notifications that are staged in the
// outbox alongside the transaction that produced them. Dispatch happens after
// commit from pkg/worker; delivery is best-effort and decoupled from the
// lifecycle operation's failure domain.
package notifier

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bryanpmx/caf-api/internal/model"
)

// Channel is the broker channel lifecycle events are published on.
const Channel = "caf.lifecycle"

// Event kinds.
const (
	KindStageUpdated  = "case.stage_updated"
	KindCaseCompleted = "case.completed"
	KindCaseDeleted   = "case.deleted"
	KindCaseArchived  = "case.archived"
	KindStaffAssigned = "case.staff_assigned"
)

// Event is the wire payload published for a lifecycle change.
type Event struct {
	Kind          string                 `json:"kind"`
	CaseID        uuid.UUID              `json:"case_id"`
	TargetUserIDs []uuid.UUID            `json:"target_user_ids"`
	Data          map[string]interface{} `json:"data,omitempty"`
	OccurredAt    time.Time              `json:"occurred_at"`
}

// NewOutboxEvent wraps a lifecycle event for staging in the outbox table.
func NewOutboxEvent(kind string, caseID uuid.UUID, targets []uuid.UUID, data map[string]interface{}) (*model.OutboxEvent, error) {
	payload, err := json.Marshal(Event{
		Kind:          kind,
		CaseID:        caseID,
		TargetUserIDs: targets,
		Data:          data,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}

	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: kind,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Targets collects the parties interested in a case's lifecycle events: the
// primary staff, every assigned staff member, and the client, deduplicated.
func Targets(c *model.Case) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(c.AssignedStaffIDs)+2)
	out := make([]uuid.UUID, 0, len(c.AssignedStaffIDs)+2)
	add := func(id uuid.UUID) {
		if id == uuid.Nil {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	add(c.PrimaryStaffID)
	for _, id := range c.AssignedStaffIDs {
		add(id)
	}
	add(c.ClientID)
	return out
}
