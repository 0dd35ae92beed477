package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

func (r *assignmentRepository) IsAssigned(ctx context.Context, userID, caseOrTaskID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM cases
			WHERE id = $1 AND primary_staff_id = $2 AND deleted_at IS NULL
		) OR EXISTS (
			SELECT 1 FROM case_staff WHERE case_id = $1 AND staff_id = $2
		) OR EXISTS (
			SELECT 1 FROM tasks
			WHERE id = $1 AND assigned_to_id = $2 AND deleted_at IS NULL
		) OR EXISTS (
			SELECT 1 FROM appointments
			WHERE id = $1 AND assigned_staff_id = $2 AND deleted_at IS NULL
		)
	`
	var assigned bool
	if err := r.db.GetContext(ctx, &assigned, query, caseOrTaskID, userID); err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return assigned, nil
}

func (r *assignmentRepository) IsPrimary(ctx context.Context, userID, caseID uuid.UUID) (bool, error) {
	var primary bool
	err := r.db.GetContext(ctx, &primary,
		`SELECT EXISTS (SELECT 1 FROM cases WHERE id = $1 AND primary_staff_id = $2 AND deleted_at IS NULL)`,
		caseID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check primary assignment: %w", err)
	}
	return primary, nil
}

func (r *assignmentRepository) AssignedStaffIDs(ctx context.Context, caseID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids,
		`SELECT staff_id FROM case_staff WHERE case_id = $1 ORDER BY staff_id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned staff: %w", err)
	}
	return ids, nil
}
