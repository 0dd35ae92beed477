package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/internal/policy"
	"github.com/bryanpmx/caf-api/pkg/apperror"
)

func (r *appointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, case_id, assigned_staff_id, status, start_time, end_time,
			notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.CaseID,
		a.AssignedStaffID,
		a.Status,
		a.StartTime,
		a.EndTime,
		a.Notes,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, case_id, assigned_staff_id, status, start_time, end_time,
			   notes, cancel_reason, created_at, updated_at, deleted_at
		FROM appointments
		WHERE id = $1 AND deleted_at IS NULL
	`
	var a model.Appointment
	err := r.db.GetContext(ctx, &a, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("appointment")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &a, nil
}

func (r *appointmentRepository) Update(ctx context.Context, a *model.Appointment) error {
	query := `
		UPDATE appointments
		SET status = $1, start_time = $2, end_time = $3, notes = $4,
			cancel_reason = $5, updated_at = $6
		WHERE id = $7 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		a.Status, a.StartTime, a.EndTime, a.Notes, a.CancelReason, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("appointment")
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, scope policy.Predicate, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	args := []interface{}{}
	query := `
		SELECT id, case_id, assigned_staff_id, status, start_time, end_time,
			   notes, cancel_reason, created_at, updated_at, deleted_at
		FROM appointments
		WHERE deleted_at IS NULL
		AND ` + childScopeClause(scope, "assigned_staff_id", &args)

	if filters != nil {
		if filters.CaseID != uuid.Nil {
			query += fmt.Sprintf(" AND case_id = %s", arg(&args, filters.CaseID))
		}
		if filters.AssignedStaffID != uuid.Nil {
			query += fmt.Sprintf(" AND assigned_staff_id = %s", arg(&args, filters.AssignedStaffID))
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = %s", arg(&args, filters.Status))
		}
		if !filters.StartDate.IsZero() {
			query += fmt.Sprintf(" AND start_time >= %s", arg(&args, filters.StartDate))
		}
		if !filters.EndDate.IsZero() {
			query += fmt.Sprintf(" AND start_time < %s", arg(&args, filters.EndDate))
		}
	}

	query += " ORDER BY start_time"
	if filters != nil {
		query = appendPagination(query, filters.Pagination, &args)
	}

	var out []*model.Appointment
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return out, nil
}
