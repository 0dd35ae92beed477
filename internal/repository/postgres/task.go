package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/internal/policy"
	"github.com/bryanpmx/caf-api/pkg/apperror"
)

func (r *taskRepository) Create(ctx context.Context, t *model.Task) error {
	query := `
		INSERT INTO tasks (
			id, case_id, assigned_to_id, title, description, status,
			due_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.CaseID,
		t.AssignedToID,
		t.Title,
		t.Description,
		t.Status,
		t.DueDate,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *taskRepository) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	query := `
		SELECT id, case_id, assigned_to_id, title, description, status,
			   due_date, created_at, updated_at, deleted_at
		FROM tasks
		WHERE id = $1 AND deleted_at IS NULL
	`
	var t model.Task
	err := r.db.GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("task")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

func (r *taskRepository) Update(ctx context.Context, t *model.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, assigned_to_id = $4,
			due_date = $5, updated_at = $6
		WHERE id = $7 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		t.Title, t.Description, t.Status, t.AssignedToID, t.DueDate, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("task")
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("task")
	}
	return nil
}

func (r *taskRepository) List(ctx context.Context, scope policy.Predicate, filters *model.TaskFilters) ([]*model.Task, error) {
	args := []interface{}{}
	query := `
		SELECT id, case_id, assigned_to_id, title, description, status,
			   due_date, created_at, updated_at, deleted_at
		FROM tasks
		WHERE deleted_at IS NULL
		AND ` + childScopeClause(scope, "assigned_to_id", &args)

	if filters != nil {
		if filters.CaseID != uuid.Nil {
			query += fmt.Sprintf(" AND case_id = %s", arg(&args, filters.CaseID))
		}
		if filters.AssignedToID != uuid.Nil {
			query += fmt.Sprintf(" AND assigned_to_id = %s", arg(&args, filters.AssignedToID))
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = %s", arg(&args, filters.Status))
		}
	}

	query += " ORDER BY created_at DESC"
	if filters != nil {
		query = appendPagination(query, filters.Pagination, &args)
	}

	var out []*model.Task
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return out, nil
}
