// Package lifecycle is the state machine governing case stage transitions,
// completion, archival and deletion. Every operation performs its own
// authorization check, narrower than generic CRUD authorization, and executes
// its cascade as a single committed transaction. Notifications are staged in
// the outbox inside that transaction and dispatched after commit.
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/internal/notifier"
	"github.com/bryanpmx/caf-api/internal/policy"
	"github.com/bryanpmx/caf-api/internal/registry"
	"github.com/bryanpmx/caf-api/internal/repository"
	"github.com/bryanpmx/caf-api/pkg/apperror"
	"github.com/bryanpmx/caf-api/pkg/logger"
	"github.com/bryanpmx/caf-api/pkg/metrics"
)

type Service struct {
	cases       repository.CaseRepository
	users       repository.UserRepository
	engine      *policy.Engine
	assignments *registry.Registry
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

func NewService(cases repository.CaseRepository, users repository.UserRepository, engine *policy.Engine, assignments *registry.Registry, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		cases:       cases,
		users:       users,
		engine:      engine,
		assignments: assignments,
		metrics:     m,
		logger:      log,
	}
}

// loadVisible fetches the case and resolves scoping. A case that exists but
// is outside the caller's scope is reported as NotFound, never Forbidden.
func (s *Service) loadVisible(ctx context.Context, caseID uuid.UUID, id model.Identity) (*model.Case, error) {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	meta := c.Meta()
	if d := s.engine.Decide(id, model.ResourceCase, policy.ActionRead, &meta); !d.Allowed {
		return nil, apperror.NotFound("case")
	}
	return c, nil
}

// canManage reports whether the identity holds management rights over the
// case: admin anywhere, office manager within their office.
func canManage(c *model.Case, id model.Identity) bool {
	switch id.Role {
	case model.RoleAdmin:
		return true
	case model.RoleOfficeManager:
		return c.OfficeID == id.OfficeID
	}
	return false
}

// UpdateStage moves a case to targetStage within its category's stage set.
// Allowed to management roles or the case's primary staff.
func (s *Service) UpdateStage(ctx context.Context, caseID uuid.UUID, targetStage string, id model.Identity) (*model.Case, error) {
	c, err := s.loadVisible(ctx, caseID, id)
	if err != nil {
		s.observe("update_stage", "denied")
		return nil, err
	}

	if !canManage(c, id) && c.PrimaryStaffID != id.UserID {
		s.observe("update_stage", "denied")
		return nil, apperror.Forbidden("stage updates require management rights or primary assignment")
	}

	if c.Status == model.CaseStatusCompleted || c.Status == model.CaseStatusArchived {
		s.observe("update_stage", "rejected")
		return nil, apperror.Validation(fmt.Sprintf("cannot change stage of a %s case", c.Status))
	}

	if !c.Category.HasStage(targetStage) {
		s.observe("update_stage", "rejected")
		return nil, apperror.Validation(fmt.Sprintf(
			"stage %q is not valid for category %q (valid stages: %s)",
			targetStage, c.Category, strings.Join(c.Category.Stages(), ", "),
		))
	}

	previous := c.Stage
	err = s.cases.InTx(ctx, func(tx repository.CaseTx) error {
		if err := tx.UpdateStage(ctx, c.ID, targetStage); err != nil {
			return err
		}
		if err := s.recordEvent(ctx, tx, c.ID, model.EventStageUpdated, id.UserID, map[string]interface{}{
			"from": previous,
			"to":   targetStage,
		}); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, notifier.KindStageUpdated, c, map[string]interface{}{
			"stage": targetStage,
		})
	})
	if err != nil {
		s.observe("update_stage", "error")
		return nil, apperror.Internal(err)
	}

	s.observe("update_stage", "ok")
	c.Stage = targetStage
	return c, nil
}

// CompleteCase marks the case completed and cancels every scheduled
// appointment and open task for it in one atomic unit. Calling it on an
// already-completed case is a no-op returning the same success result.
// Management roles only.
func (s *Service) CompleteCase(ctx context.Context, caseID uuid.UUID, id model.Identity) (*model.Case, error) {
	c, err := s.loadVisible(ctx, caseID, id)
	if err != nil {
		s.observe("complete", "denied")
		return nil, err
	}

	if !canManage(c, id) {
		s.observe("complete", "denied")
		return nil, apperror.Forbidden("case completion requires management rights")
	}

	if c.Status == model.CaseStatusCompleted {
		s.observe("complete", "noop")
		return c, nil
	}
	if c.Status == model.CaseStatusArchived {
		s.observe("complete", "rejected")
		return nil, apperror.Validation("archived cases are read-only")
	}

	now := time.Now().UTC()
	var cancelledAppointments, cancelledTasks int
	err = s.cases.InTx(ctx, func(tx repository.CaseTx) error {
		if err := tx.MarkCompleted(ctx, c.ID, now); err != nil {
			return err
		}
		var err error
		if cancelledAppointments, err = tx.CancelScheduledAppointments(ctx, c.ID); err != nil {
			return err
		}
		if cancelledTasks, err = tx.CancelOpenTasks(ctx, c.ID); err != nil {
			return err
		}
		if err := s.recordEvent(ctx, tx, c.ID, model.EventCaseCompleted, id.UserID, map[string]interface{}{
			"cancelled_appointments": cancelledAppointments,
			"cancelled_tasks":        cancelledTasks,
		}); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, notifier.KindCaseCompleted, c, nil)
	})
	if err != nil {
		s.observe("complete", "error")
		return nil, apperror.Internal(err)
	}

	s.observe("complete", "ok")
	s.observeCascade(cancelledAppointments, cancelledTasks)
	c.Status = model.CaseStatusCompleted
	c.CompletedAt = &now
	return c, nil
}

// DeleteCase soft-deletes a case. With force false it refuses when scheduled
// appointments or open tasks remain, returning their exact counts without
// mutating anything. With force true it cancels them, records the supplied
// reason on the timeline, and proceeds. Rows are never physically removed
// through this path. Management roles or primary staff.
func (s *Service) DeleteCase(ctx context.Context, caseID uuid.UUID, id model.Identity, force bool, reason string) error {
	c, err := s.loadVisible(ctx, caseID, id)
	if err != nil {
		s.observe("delete", "denied")
		return err
	}

	if !canManage(c, id) && c.PrimaryStaffID != id.UserID {
		s.observe("delete", "denied")
		return apperror.Forbidden("case deletion requires management rights or primary assignment")
	}

	activeAppointments, err := s.cases.CountScheduledAppointments(ctx, c.ID)
	if err != nil {
		s.observe("delete", "error")
		return apperror.Internal(err)
	}
	pendingTasks, err := s.cases.CountOpenTasks(ctx, c.ID)
	if err != nil {
		s.observe("delete", "error")
		return apperror.Internal(err)
	}

	if !force && (activeAppointments > 0 || pendingTasks > 0) {
		s.observe("delete", "conflict")
		return apperror.ConflictRequiresConfirmation(activeAppointments, pendingTasks)
	}

	now := time.Now().UTC()
	var cancelledAppointments, cancelledTasks int
	err = s.cases.InTx(ctx, func(tx repository.CaseTx) error {
		var err error
		if cancelledAppointments, err = tx.CancelScheduledAppointments(ctx, c.ID); err != nil {
			return err
		}
		if cancelledTasks, err = tx.CancelOpenTasks(ctx, c.ID); err != nil {
			return err
		}
		if err := tx.SoftDelete(ctx, c.ID, now); err != nil {
			return err
		}
		if err := s.recordEvent(ctx, tx, c.ID, model.EventCaseDeleted, id.UserID, map[string]interface{}{
			"force":                  force,
			"reason":                 reason,
			"cancelled_appointments": cancelledAppointments,
			"cancelled_tasks":        cancelledTasks,
		}); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, notifier.KindCaseDeleted, c, map[string]interface{}{
			"reason": reason,
		})
	})
	if err != nil {
		s.observe("delete", "error")
		return apperror.Internal(err)
	}

	s.observe("delete", "ok")
	s.observeCascade(cancelledAppointments, cancelledTasks)
	return nil
}

// ArchiveCase moves a completed case into the read-only records view.
// Management roles only.
func (s *Service) ArchiveCase(ctx context.Context, caseID uuid.UUID, id model.Identity) (*model.Case, error) {
	c, err := s.loadVisible(ctx, caseID, id)
	if err != nil {
		s.observe("archive", "denied")
		return nil, err
	}

	if !canManage(c, id) {
		s.observe("archive", "denied")
		return nil, apperror.Forbidden("archival requires management rights")
	}

	if c.Status == model.CaseStatusArchived {
		s.observe("archive", "noop")
		return c, nil
	}
	if c.Status != model.CaseStatusCompleted {
		s.observe("archive", "rejected")
		return nil, apperror.Validation("only completed cases can be archived")
	}

	now := time.Now().UTC()
	err = s.cases.InTx(ctx, func(tx repository.CaseTx) error {
		if err := tx.Archive(ctx, c.ID, now); err != nil {
			return err
		}
		if err := s.recordEvent(ctx, tx, c.ID, model.EventCaseArchived, id.UserID, nil); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, notifier.KindCaseArchived, c, nil)
	})
	if err != nil {
		s.observe("archive", "error")
		return nil, apperror.Internal(err)
	}

	s.observe("archive", "ok")
	c.Status = model.CaseStatusArchived
	c.ArchivedAt = &now
	return c, nil
}

// AssignStaff adds a staff member to the case's assigned set, or replaces the
// primary staff when asPrimary is set. The target must belong to the case's
// office. Management roles only.
func (s *Service) AssignStaff(ctx context.Context, caseID, staffID uuid.UUID, asPrimary bool, id model.Identity) error {
	c, err := s.loadVisible(ctx, caseID, id)
	if err != nil {
		s.observe("assign_staff", "denied")
		return err
	}

	if !canManage(c, id) {
		s.observe("assign_staff", "denied")
		return apperror.Forbidden("staff assignment requires management rights")
	}

	staff, err := s.users.Get(ctx, staffID)
	if err != nil {
		s.observe("assign_staff", "rejected")
		return apperror.Validation("staff member not found")
	}
	if !staff.Role.IsStaff() && !staff.Role.IsManagement() {
		s.observe("assign_staff", "rejected")
		return apperror.Validation(fmt.Sprintf("user with role %q cannot be assigned to a case", staff.Role))
	}
	if staff.OfficeID != c.OfficeID {
		s.observe("assign_staff", "rejected")
		return apperror.Validation("staff member belongs to a different office than the case")
	}

	err = s.cases.InTx(ctx, func(tx repository.CaseTx) error {
		if asPrimary {
			if err := tx.SetPrimaryStaff(ctx, c.ID, staffID); err != nil {
				return err
			}
		} else {
			if err := tx.AddAssignedStaff(ctx, c.ID, staffID); err != nil {
				return err
			}
		}
		if err := s.recordEvent(ctx, tx, c.ID, model.EventStaffAssigned, id.UserID, map[string]interface{}{
			"staff_id":   staffID,
			"as_primary": asPrimary,
		}); err != nil {
			return err
		}
		event, err := notifier.NewOutboxEvent(notifier.KindStaffAssigned, c.ID, []uuid.UUID{staffID}, nil)
		if err != nil {
			return err
		}
		return tx.EnqueueOutbox(ctx, event)
	})
	if err != nil {
		s.observe("assign_staff", "error")
		return apperror.Internal(err)
	}

	if s.assignments != nil {
		s.assignments.Invalidate(staffID, c.ID)
	}

	s.observe("assign_staff", "ok")
	return nil
}

func (s *Service) recordEvent(ctx context.Context, tx repository.CaseTx, caseID uuid.UUID, eventType string, actorID uuid.UUID, payload map[string]interface{}) error {
	event := &model.CaseEvent{
		ID:        uuid.New(),
		CaseID:    caseID,
		Type:      eventType,
		ActorID:   actorID,
		CreatedAt: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		event.Payload = raw
	}
	return tx.RecordEvent(ctx, event)
}

func (s *Service) enqueue(ctx context.Context, tx repository.CaseTx, kind string, c *model.Case, data map[string]interface{}) error {
	event, err := notifier.NewOutboxEvent(kind, c.ID, notifier.Targets(c), data)
	if err != nil {
		return err
	}
	return tx.EnqueueOutbox(ctx, event)
}

func (s *Service) observe(transition, outcome string) {
	if s.metrics != nil {
		s.metrics.LifecycleTransitions.WithLabelValues(transition, outcome).Inc()
	}
}

func (s *Service) observeCascade(appointments, tasks int) {
	if s.metrics == nil {
		return
	}
	s.metrics.CascadeCancellations.WithLabelValues("appointment").Add(float64(appointments))
	s.metrics.CascadeCancellations.WithLabelValues("task").Add(float64(tasks))
}
