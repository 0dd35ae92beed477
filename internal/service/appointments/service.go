// Package appointments implements policy-gated CRUD over appointments.
// Appointments inherit their parent case's office and category for scoping.
package appointments

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
	repo     repository.AppointmentRepository
	cases    repository.CaseRepository
	engine   *policy.Engine
	auditor  *audit.Service
	validate *validator.Validator
}

func NewService(repo repository.AppointmentRepository, cases repository.CaseRepository, engine *policy.Engine, auditor *audit.Service) *Service {
	return &Service{repo: repo, cases: cases, engine: engine, auditor: auditor, validate: validator.New()}
}

// meta resolves the scoping attributes of an appointment from its parent
// case, with the appointment's own assignee layered on top.
func (s *Service) meta(ctx context.Context, a *model.Appointment) (*model.ResourceMeta, error) {
	c, err := s.cases.Get(ctx, a.CaseID)
	if err != nil {
		return nil, err
	}
	m := c.Meta()
	m.AssignedToID = a.AssignedStaffID
	return &m, nil
}

// CreateAppointment schedules an appointment on a case. Creation requires a
// department match for staff roles, against the parent case's category.
func (s *Service) CreateAppointment(ctx context.Context, id model.Identity, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	c, err := s.cases.Get(ctx, req.CaseID)
	if err != nil {
		return nil, err
	}
	if c.Status == model.CaseStatusCompleted || c.Status == model.CaseStatusArchived {
		return nil, apperror.Validation(fmt.Sprintf("cannot schedule appointments on a %s case", c.Status))
	}

	meta := c.Meta()
	if d := s.engine.Decide(id, model.ResourceAppointment, policy.ActionCreate, &meta); !d.Allowed {
		return nil, apperror.Forbidden(d.Reason)
	}

	if !req.EndTime.After(req.StartTime) {
		return nil, apperror.Validation("appointment end time must be after start time")
	}

	now := time.Now().UTC()
	a := &model.Appointment{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CaseID:          req.CaseID,
		AssignedStaffID: req.AssignedStaffID,
		Status:          model.AppointmentStatusScheduled,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Notes:           req.Notes,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to create appointment: %w", err))
	}

	s.auditor.RecordEvent(ctx, a.CaseID, "appointment_scheduled", id.UserID, map[string]interface{}{
		"appointment_id": a.ID,
		"start_time":     a.StartTime,
	})
	return a, nil
}

func (s *Service) GetAppointment(ctx context.Context, id model.Identity, appointmentID uuid.UUID) (*model.Appointment, error) {
	a, err := s.repo.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	meta, err := s.meta(ctx, a)
	if err != nil {
		return nil, err
	}
	if d := s.engine.Decide(id, model.ResourceAppointment, policy.ActionRead, meta); !d.Allowed {
		return nil, apperror.NotFound("appointment")
	}
	return a, nil
}

func (s *Service) UpdateAppointment(ctx context.Context, id model.Identity, appointmentID uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	a, err := s.repo.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	meta, err := s.meta(ctx, a)
	if err != nil {
		return nil, err
	}
	if d := s.engine.Decide(id, model.ResourceAppointment, policy.ActionUpdate, meta); !d.Allowed {
		return nil, apperror.NotFound("appointment")
	}

	if a.Status == model.AppointmentStatusCancelled {
		return nil, apperror.Validation("cancelled appointments cannot be edited")
	}

	if req.StartTime != nil {
		a.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		a.EndTime = *req.EndTime
	}
	if !a.EndTime.After(a.StartTime) {
		return nil, apperror.Validation("appointment end time must be after start time")
	}
	if req.Status != nil {
		a.Status = *req.Status
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}
	if req.CancelReason != nil {
		a.CancelReason = req.CancelReason
	}
	a.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to update appointment: %w", err))
	}
	return a, nil
}

// CancelAppointment cancels a scheduled appointment with a reason.
func (s *Service) CancelAppointment(ctx context.Context, id model.Identity, appointmentID uuid.UUID, reason string) (*model.Appointment, error) {
	a, err := s.repo.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	meta, err := s.meta(ctx, a)
	if err != nil {
		return nil, err
	}
	if d := s.engine.Decide(id, model.ResourceAppointment, policy.ActionDelete, meta); !d.Allowed {
		return nil, apperror.NotFound("appointment")
	}

	if a.Status == model.AppointmentStatusCancelled {
		return a, nil
	}
	if a.Status == model.AppointmentStatusCompleted {
		return nil, apperror.Validation("completed appointments cannot be cancelled")
	}

	a.Status = model.AppointmentStatusCancelled
	a.CancelReason = &reason
	a.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to cancel appointment: %w", err))
	}

	s.auditor.RecordEvent(ctx, a.CaseID, "appointment_cancelled", id.UserID, map[string]interface{}{
		"appointment_id": a.ID,
		"reason":         reason,
	})
	return a, nil
}

func (s *Service) ListAppointments(ctx context.Context, id model.Identity, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if id.Role == model.RoleClient {
		return nil, apperror.Forbidden("client accounts use the client portal")
	}
	scope := s.engine.Filter(id, model.ResourceAppointment)
	out, err := s.repo.List(ctx, scope, filters)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to list appointments: %w", err))
	}
	return out, nil
}

// ListOwn serves the client portal: appointments on the caller's own cases.
func (s *Service) ListOwn(ctx context.Context, id model.Identity, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	clientID := id.UserID
	scope := policy.Predicate{ClientID: &clientID}
	out, err := s.repo.List(ctx, scope, filters)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to list appointments: %w", err))
	}
	return out, nil
}
