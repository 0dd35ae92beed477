package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/internal/policy"
)

// All repository interfaces in one file
type (
	// CaseRepository is the persistence collaborator for cases. Get and
	// List exclude soft-deleted rows; ListArchived serves the read-only
	// records view.
	CaseRepository interface {
		Create(ctx context.Context, c *model.Case) error
		Get(ctx context.Context, id uuid.UUID) (*model.Case, error)
		Update(ctx context.Context, c *model.Case) error
		List(ctx context.Context, scope policy.Predicate, filters *model.CaseFilters) ([]*model.Case, error)
		ListArchived(ctx context.Context, scope policy.Predicate, filters *model.CaseFilters) ([]*model.Case, error)

		CountScheduledAppointments(ctx context.Context, caseID uuid.UUID) (int, error)
		CountOpenTasks(ctx context.Context, caseID uuid.UUID) (int, error)

		// InTx runs fn inside one committed transaction; every mutation
		// made through the CaseTx is atomic with the rest.
		InTx(ctx context.Context, fn func(tx CaseTx) error) error
	}

	// CaseTx is the transactional slice of case persistence the lifecycle
	// manager cascades through.
	CaseTx interface {
		UpdateStage(ctx context.Context, caseID uuid.UUID, stage string) error
		MarkCompleted(ctx context.Context, caseID uuid.UUID, at time.Time) error
		Archive(ctx context.Context, caseID uuid.UUID, at time.Time) error
		SoftDelete(ctx context.Context, caseID uuid.UUID, at time.Time) error
		CancelScheduledAppointments(ctx context.Context, caseID uuid.UUID) (int, error)
		CancelOpenTasks(ctx context.Context, caseID uuid.UUID) (int, error)
		SetPrimaryStaff(ctx context.Context, caseID, staffID uuid.UUID) error
		AddAssignedStaff(ctx context.Context, caseID, staffID uuid.UUID) error
		EnqueueOutbox(ctx context.Context, event *model.OutboxEvent) error
		RecordEvent(ctx context.Context, event *model.CaseEvent) error
	}

	AppointmentRepository interface {
		Create(ctx context.Context, a *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, a *model.Appointment) error
		List(ctx context.Context, scope policy.Predicate, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	}

	TaskRepository interface {
		Create(ctx context.Context, t *model.Task) error
		Get(ctx context.Context, id uuid.UUID) (*model.Task, error)
		Update(ctx context.Context, t *model.Task) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, scope policy.Predicate, filters *model.TaskFilters) ([]*model.Task, error)
	}

	UserRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error)
	}

	OfficeRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Office, error)
		List(ctx context.Context) ([]*model.Office, error)
	}

	// AssignmentRepository backs the assignment registry; read-only.
	AssignmentRepository interface {
		IsAssigned(ctx context.Context, userID, caseOrTaskID uuid.UUID) (bool, error)
		IsPrimary(ctx context.Context, userID, caseID uuid.UUID) (bool, error)
		AssignedStaffIDs(ctx context.Context, caseID uuid.UUID) ([]uuid.UUID, error)
	}

	// AuditRepository is the append-only timeline recorder; never read by
	// this core.
	AuditRepository interface {
		RecordEvent(ctx context.Context, event *model.CaseEvent) error
	}

	OutboxRepository interface {
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
	}
)
