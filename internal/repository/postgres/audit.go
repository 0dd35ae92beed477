package postgres

import (
	"context"
	"fmt"

	"github.com/bryanpmx/caf-api/internal/model"
)

func (r *auditRepository) RecordEvent(ctx context.Context, event *model.CaseEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO case_events (id, case_id, type, actor_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.CaseID, event.Type, event.ActorID, event.Payload, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record case event: %w", err)
	}
	return nil
}
