// Package cases implements policy-gated CRUD over cases. Lifecycle
// transitions (stage, completion, archival, deletion) live in
// internal/lifecycle; everything here is plain resource access.
package cases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/internal/policy"
	"github.com/bryanpmx/caf-api/internal/repository"
	"github.com/bryanpmx/caf-api/internal/service/audit"
	"github.com/bryanpmx/caf-api/pkg/apperror"
	"github.com/bryanpmx/caf-api/pkg/validator"
)

type Service struct {
	repo     repository.CaseRepository
	users    repository.UserRepository
	engine   *policy.Engine
	auditor  *audit.Service
	validate *validator.Validator
}

func NewService(repo repository.CaseRepository, users repository.UserRepository, engine *policy.Engine, auditor *audit.Service) *Service {
	return &Service{repo: repo, users: users, engine: engine, auditor: auditor, validate: validator.New()}
}

// CreateCase opens a new case. Creation requires a department match for
// staff roles; the assignment override never applies here. Denials surface
// as Forbidden since no record existence can leak on creation.
func (s *Service) CreateCase(ctx context.Context, id model.Identity, req *model.CreateCaseRequest) (*model.Case, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if !req.Category.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("unknown category %q", req.Category))
	}

	meta := model.ResourceMeta{OfficeID: req.OfficeID, Category: req.Category}
	if d := s.engine.Decide(id, model.ResourceCase, policy.ActionCreate, &meta); !d.Allowed {
		return nil, apperror.Forbidden(d.Reason)
	}

	primary, err := s.users.Get(ctx, req.PrimaryStaffID)
	if err != nil {
		return nil, apperror.Validation("primary staff member not found")
	}
	if primary.OfficeID != req.OfficeID {
		return nil, apperror.Validation("primary staff member belongs to a different office than the case")
	}

	now := time.Now().UTC()
	c := &model.Case{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OfficeID:       req.OfficeID,
		Category:       req.Category,
		Status:         model.CaseStatusOpen,
		Stage:          req.Category.Stages()[0],
		Title:          req.Title,
		Description:    req.Description,
		PrimaryStaffID: req.PrimaryStaffID,
		ClientID:       req.ClientID,
		Fee:            req.Fee,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to create case: %w", err))
	}

	s.auditor.RecordEvent(ctx, c.ID, "case_created", id.UserID, map[string]interface{}{
		"category": c.Category,
		"office":   c.OfficeID,
	})
	return c, nil
}

// GetCase fetches a single case. A case that exists but is outside the
// caller's scope is reported as NotFound so its existence never leaks.
func (s *Service) GetCase(ctx context.Context, id model.Identity, caseID uuid.UUID) (*model.Case, error) {
	c, err := s.repo.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	meta := c.Meta()
	if d := s.engine.Decide(id, model.ResourceCase, policy.ActionRead, &meta); !d.Allowed {
		return nil, apperror.NotFound("case")
	}
	return c, nil
}

// UpdateCase edits the mutable descriptive fields of a case.
func (s *Service) UpdateCase(ctx context.Context, id model.Identity, caseID uuid.UUID, req *model.UpdateCaseRequest) (*model.Case, error) {
	c, err := s.repo.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	meta := c.Meta()
	if d := s.engine.Decide(id, model.ResourceCase, policy.ActionUpdate, &meta); !d.Allowed {
		return nil, apperror.NotFound("case")
	}

	if c.Status == model.CaseStatusArchived {
		return nil, apperror.Validation("archived cases are read-only")
	}

	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Fee != nil {
		if *req.Fee < 0 {
			return nil, apperror.Validation("fee cannot be negative")
		}
		c.Fee = *req.Fee
	}
	c.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to update case: %w", err))
	}

	s.auditor.RecordEvent(ctx, c.ID, "case_updated", id.UserID, nil)
	return c, nil
}

// ListCases returns the subset of cases the identity's scope admits.
// Deleted cases never appear; archived cases appear only in ListArchived.
func (s *Service) ListCases(ctx context.Context, id model.Identity, filters *model.CaseFilters) ([]*model.Case, error) {
	if id.Role == model.RoleClient {
		return nil, apperror.Forbidden("client accounts use the client portal")
	}
	scope := s.engine.Filter(id, model.ResourceCase)
	out, err := s.repo.List(ctx, scope, filters)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to list cases: %w", err))
	}
	return out, nil
}

// ListArchived serves the read-only records view of archived cases.
func (s *Service) ListArchived(ctx context.Context, id model.Identity, filters *model.CaseFilters) ([]*model.Case, error) {
	if id.Role == model.RoleClient {
		return nil, apperror.Forbidden("client accounts use the client portal")
	}
	scope := s.engine.Filter(id, model.ResourceCase)
	out, err := s.repo.ListArchived(ctx, scope, filters)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to list archived cases: %w", err))
	}
	return out, nil
}

// ListOwn serves the client portal: the caller's own cases, nothing else.
func (s *Service) ListOwn(ctx context.Context, id model.Identity, filters *model.CaseFilters) ([]*model.Case, error) {
	clientID := id.UserID
	scope := policy.Predicate{ClientID: &clientID}
	out, err := s.repo.List(ctx, scope, filters)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to list cases: %w", err))
	}
	return out, nil
}
