// Package tasks implements policy-gated CRUD over tasks. Tasks inherit their
// parent case's office and category for scoping; a task's assignee may mark
// it complete without management rights, and nothing more.
package tasks

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
	repo     repository.TaskRepository
	cases    repository.CaseRepository
	engine   *policy.Engine
	auditor  *audit.Service
	validate *validator.Validator
}

func NewService(repo repository.TaskRepository, cases repository.CaseRepository, engine *policy.Engine, auditor *audit.Service) *Service {
	return &Service{repo: repo, cases: cases, engine: engine, auditor: auditor, validate: validator.New()}
}

func (s *Service) meta(ctx context.Context, t *model.Task) (*model.ResourceMeta, error) {
	c, err := s.cases.Get(ctx, t.CaseID)
	if err != nil {
		return nil, err
	}
	m := c.Meta()
	m.AssignedToID = t.AssignedToID
	return &m, nil
}

func (s *Service) CreateTask(ctx context.Context, id model.Identity, req *model.CreateTaskRequest) (*model.Task, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	c, err := s.cases.Get(ctx, req.CaseID)
	if err != nil {
		return nil, err
	}
	if c.Status == model.CaseStatusCompleted || c.Status == model.CaseStatusArchived {
		return nil, apperror.Validation(fmt.Sprintf("cannot add tasks to a %s case", c.Status))
	}

	meta := c.Meta()
	if d := s.engine.Decide(id, model.ResourceTask, policy.ActionCreate, &meta); !d.Allowed {
		return nil, apperror.Forbidden(d.Reason)
	}

	now := time.Now().UTC()
	t := &model.Task{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CaseID:       req.CaseID,
		AssignedToID: req.AssignedToID,
		Title:        req.Title,
		Description:  req.Description,
		Status:       model.TaskStatusPending,
		DueDate:      req.DueDate,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to create task: %w", err))
	}

	s.auditor.RecordEvent(ctx, t.CaseID, "task_created", id.UserID, map[string]interface{}{
		"task_id": t.ID,
	})
	return t, nil
}

func (s *Service) GetTask(ctx context.Context, id model.Identity, taskID uuid.UUID) (*model.Task, error) {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	meta, err := s.meta(ctx, t)
	if err != nil {
		return nil, err
	}
	if d := s.engine.Decide(id, model.ResourceTask, policy.ActionRead, meta); !d.Allowed {
		return nil, apperror.NotFound("task")
	}
	return t, nil
}

// UpdateTask edits a task. Management-tier identities may change anything;
// the task's assignee may only move it to completed. Reassigning, renaming
// or rescheduling stays a management action.
func (s *Service) UpdateTask(ctx context.Context, id model.Identity, taskID uuid.UUID, req *model.UpdateTaskRequest) (*model.Task, error) {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	meta, err := s.meta(ctx, t)
	if err != nil {
		return nil, err
	}
	if d := s.engine.Decide(id, model.ResourceTask, policy.ActionUpdate, meta); !d.Allowed {
		return nil, apperror.NotFound("task")
	}

	if !id.Role.IsManagement() && !req.CompletionOnly() {
		return nil, apperror.Forbidden("assignees may only mark their tasks complete")
	}

	if t.Status == model.TaskStatusCancelled {
		return nil, apperror.Validation("cancelled tasks cannot be edited")
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.AssignedToID != nil {
		t.AssignedToID = *req.AssignedToID
	}
	if req.DueDate != nil {
		t.DueDate = req.DueDate
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to update task: %w", err))
	}

	if req.Status != nil && *req.Status == model.TaskStatusCompleted {
		s.auditor.RecordEvent(ctx, t.CaseID, "task_completed", id.UserID, map[string]interface{}{
			"task_id": t.ID,
		})
	}
	return t, nil
}

// DeleteTask removes a task. Management tier only; the policy engine denies
// every staff role here.
func (s *Service) DeleteTask(ctx context.Context, id model.Identity, taskID uuid.UUID) error {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return err
	}
	meta, err := s.meta(ctx, t)
	if err != nil {
		return err
	}
	if d := s.engine.Decide(id, model.ResourceTask, policy.ActionDelete, meta); !d.Allowed {
		return apperror.NotFound("task")
	}

	if err := s.repo.Delete(ctx, taskID); err != nil {
		return apperror.Internal(fmt.Errorf("failed to delete task: %w", err))
	}

	s.auditor.RecordEvent(ctx, t.CaseID, "task_deleted", id.UserID, map[string]interface{}{
		"task_id": t.ID,
	})
	return nil
}

func (s *Service) ListTasks(ctx context.Context, id model.Identity, filters *model.TaskFilters) ([]*model.Task, error) {
	if id.Role == model.RoleClient {
		return nil, apperror.Forbidden("client accounts use the client portal")
	}
	scope := s.engine.Filter(id, model.ResourceTask)
	out, err := s.repo.List(ctx, scope, filters)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to list tasks: %w", err))
	}
	return out, nil
}

// ListOwn serves the client portal: tasks on the caller's own cases.
func (s *Service) ListOwn(ctx context.Context, id model.Identity, filters *model.TaskFilters) ([]*model.Task, error) {
	clientID := id.UserID
	scope := policy.Predicate{ClientID: &clientID}
	out, err := s.repo.List(ctx, scope, filters)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to list tasks: %w", err))
	}
	return out, nil
}
