package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/internal/policy"
	"github.com/bryanpmx/caf-api/internal/repository"
	"github.com/bryanpmx/caf-api/pkg/apperror"
)

func (r *caseRepository) Create(ctx context.Context, c *model.Case) error {
	query := `
		INSERT INTO cases (
			id, office_id, category, status, stage, title, description,
			primary_staff_id, client_id, fee, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.OfficeID,
		c.Category,
		c.Status,
		c.Stage,
		c.Title,
		c.Description,
		c.PrimaryStaffID,
		c.ClientID,
		c.Fee,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

func (r *caseRepository) Get(ctx context.Context, id uuid.UUID) (*model.Case, error) {
	query := `
		SELECT id, office_id, category, status, stage, title, description,
			   primary_staff_id, client_id, fee, completed_at, archived_at,
			   created_at, updated_at, deleted_at
		FROM cases
		WHERE id = $1 AND deleted_at IS NULL
	`
	var c model.Case
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("case")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}

	if err := r.loadAssignedStaff(ctx, []*model.Case{&c}); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepository) Update(ctx context.Context, c *model.Case) error {
	query := `
		UPDATE cases
		SET title = $1, description = $2, fee = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, c.Title, c.Description, c.Fee, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("case")
	}
	return nil
}

func (r *caseRepository) List(ctx context.Context, scope policy.Predicate, filters *model.CaseFilters) ([]*model.Case, error) {
	args := []interface{}{}
	query := `
		SELECT id, office_id, category, status, stage, title, description,
			   primary_staff_id, client_id, fee, completed_at, archived_at,
			   created_at, updated_at, deleted_at
		FROM cases
		WHERE deleted_at IS NULL AND status != 'archived'
		AND ` + caseScopeClause(scope, &args)

	query = appendCaseFilters(query, filters, &args)
	query += " ORDER BY created_at DESC"
	query = appendPagination(query, filters.Pagination, &args)

	var out []*model.Case
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	if err := r.loadAssignedStaff(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *caseRepository) ListArchived(ctx context.Context, scope policy.Predicate, filters *model.CaseFilters) ([]*model.Case, error) {
	args := []interface{}{}
	query := `
		SELECT id, office_id, category, status, stage, title, description,
			   primary_staff_id, client_id, fee, completed_at, archived_at,
			   created_at, updated_at, deleted_at
		FROM cases
		WHERE deleted_at IS NULL AND status = 'archived'
		AND ` + caseScopeClause(scope, &args)

	query = appendCaseFilters(query, filters, &args)
	query += " ORDER BY archived_at DESC"
	query = appendPagination(query, filters.Pagination, &args)

	var out []*model.Case
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list archived cases: %w", err)
	}

	if err := r.loadAssignedStaff(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func appendCaseFilters(query string, filters *model.CaseFilters, args *[]interface{}) string {
	if filters == nil {
		return query
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = %s", arg(args, filters.Status))
	}
	if filters.Category != "" {
		query += fmt.Sprintf(" AND category = %s", arg(args, filters.Category))
	}
	if filters.OfficeID != uuid.Nil {
		query += fmt.Sprintf(" AND office_id = %s", arg(args, filters.OfficeID))
	}
	return query
}

func appendPagination(query string, p model.Pagination, args *[]interface{}) string {
	if p.PageSize <= 0 {
		return query
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	query += fmt.Sprintf(" LIMIT %s OFFSET %s",
		arg(args, p.PageSize), arg(args, (page-1)*p.PageSize))
	return query
}

// loadAssignedStaff fills AssignedStaffIDs for the given cases in one query.
func (r *caseRepository) loadAssignedStaff(ctx context.Context, cs []*model.Case) error {
	if len(cs) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(cs))
	byID := make(map[uuid.UUID]*model.Case, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
		byID[c.ID] = c
		c.AssignedStaffIDs = []uuid.UUID{}
	}

	query, args, err := sqlx.In("SELECT case_id, staff_id FROM case_staff WHERE case_id IN (?)", ids)
	if err != nil {
		return fmt.Errorf("failed to build case_staff query: %w", err)
	}
	query = r.db.Rebind(query)

	rows := []struct {
		CaseID  uuid.UUID `db:"case_id"`
		StaffID uuid.UUID `db:"staff_id"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("failed to load assigned staff: %w", err)
	}

	for _, row := range rows {
		if c, ok := byID[row.CaseID]; ok {
			c.AssignedStaffIDs = append(c.AssignedStaffIDs, row.StaffID)
		}
	}
	return nil
}

func (r *caseRepository) CountScheduledAppointments(ctx context.Context, caseID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM appointments WHERE case_id = $1 AND status = 'scheduled'`, caseID)
	if err != nil {
		return 0, fmt.Errorf("failed to count scheduled appointments: %w", err)
	}
	return count, nil
}

func (r *caseRepository) CountOpenTasks(ctx context.Context, caseID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM tasks WHERE case_id = $1 AND status IN ('pending', 'in_progress')`, caseID)
	if err != nil {
		return 0, fmt.Errorf("failed to count open tasks: %w", err)
	}
	return count, nil
}

// InTx executes fn within a single committed transaction.
func (r *caseRepository) InTx(ctx context.Context, fn func(tx repository.CaseTx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&caseTx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

type caseTx struct {
	tx *sqlx.Tx
}

func (t *caseTx) UpdateStage(ctx context.Context, caseID uuid.UUID, stage string) error {
	return t.exec(ctx,
		`UPDATE cases SET stage = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`,
		stage, time.Now().UTC(), caseID)
}

func (t *caseTx) MarkCompleted(ctx context.Context, caseID uuid.UUID, at time.Time) error {
	return t.exec(ctx,
		`UPDATE cases SET status = 'completed', completed_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		at, caseID)
}

func (t *caseTx) Archive(ctx context.Context, caseID uuid.UUID, at time.Time) error {
	return t.exec(ctx,
		`UPDATE cases SET status = 'archived', archived_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		at, caseID)
}

func (t *caseTx) SoftDelete(ctx context.Context, caseID uuid.UUID, at time.Time) error {
	return t.exec(ctx,
		`UPDATE cases SET status = 'deleted', deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		at, caseID)
}

func (t *caseTx) CancelScheduledAppointments(ctx context.Context, caseID uuid.UUID) (int, error) {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE appointments SET status = 'cancelled', updated_at = $1 WHERE case_id = $2 AND status = 'scheduled'`,
		time.Now().UTC(), caseID)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel appointments: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

func (t *caseTx) CancelOpenTasks(ctx context.Context, caseID uuid.UUID) (int, error) {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE tasks SET status = 'cancelled', updated_at = $1 WHERE case_id = $2 AND status IN ('pending', 'in_progress')`,
		time.Now().UTC(), caseID)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel tasks: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

func (t *caseTx) SetPrimaryStaff(ctx context.Context, caseID, staffID uuid.UUID) error {
	return t.exec(ctx,
		`UPDATE cases SET primary_staff_id = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`,
		staffID, time.Now().UTC(), caseID)
}

func (t *caseTx) AddAssignedStaff(ctx context.Context, caseID, staffID uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO case_staff (case_id, staff_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		caseID, staffID)
	if err != nil {
		return fmt.Errorf("failed to add assigned staff: %w", err)
	}
	return nil
}

func (t *caseTx) EnqueueOutbox(ctx context.Context, event *model.OutboxEvent) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO outbox_events (id, event_type, payload, status, retry_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.EventType, event.Payload, event.Status, event.RetryCount, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox event: %w", err)
	}
	return nil
}

func (t *caseTx) RecordEvent(ctx context.Context, event *model.CaseEvent) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO case_events (id, case_id, type, actor_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.CaseID, event.Type, event.ActorID, event.Payload, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record case event: %w", err)
	}
	return nil
}

func (t *caseTx) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("case")
	}
	return nil
}
