package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/pkg/apperror"
)

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, role,
			   office_id, department, active, created_at, updated_at, deleted_at
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`
	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, role,
			   office_id, department, active, created_at, updated_at, deleted_at
		FROM users
		WHERE email = $1 AND deleted_at IS NULL
	`
	var u model.User
	err := r.db.GetContext(ctx, &u, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

func (r *userRepository) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	args := []interface{}{}
	query := `
		SELECT id, email, password_hash, first_name, last_name, role,
			   office_id, department, active, created_at, updated_at, deleted_at
		FROM users
		WHERE deleted_at IS NULL
	`
	if filters != nil {
		if filters.Role != "" {
			query += fmt.Sprintf(" AND role = %s", arg(&args, filters.Role))
		}
		if filters.OfficeID != uuid.Nil {
			query += fmt.Sprintf(" AND office_id = %s", arg(&args, filters.OfficeID))
		}
		if filters.Category != "" {
			query += fmt.Sprintf(" AND department = %s", arg(&args, filters.Category))
		}
	}

	query += " ORDER BY last_name, first_name"
	if filters != nil {
		query = appendPagination(query, filters.Pagination, &args)
	}

	var out []*model.User
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return out, nil
}

func (r *officeRepository) Get(ctx context.Context, id uuid.UUID) (*model.Office, error) {
	query := `
		SELECT id, name, address, phone, created_at, updated_at, deleted_at
		FROM offices
		WHERE id = $1 AND deleted_at IS NULL
	`
	var o model.Office
	err := r.db.GetContext(ctx, &o, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("office")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get office: %w", err)
	}
	return &o, nil
}

func (r *officeRepository) List(ctx context.Context) ([]*model.Office, error) {
	var out []*model.Office
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, name, address, phone, created_at, updated_at, deleted_at
		 FROM offices WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list offices: %w", err)
	}
	return out, nil
}
