package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/bryanpmx/caf-api/internal/repository"
)

type caseRepository struct {
	db *sqlx.DB
}

type appointmentRepository struct {
	db *sqlx.DB
}

type taskRepository struct {
	db *sqlx.DB
}

type userRepository struct {
	db *sqlx.DB
}

type officeRepository struct {
	db *sqlx.DB
}

type assignmentRepository struct {
	db *sqlx.DB
}

type auditRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

func NewCaseRepository(db *sqlx.DB) repository.CaseRepository {
	return &caseRepository{db: db}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewTaskRepository(db *sqlx.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func NewOfficeRepository(db *sqlx.DB) repository.OfficeRepository {
	return &officeRepository{db: db}
}

func NewAssignmentRepository(db *sqlx.DB) repository.AssignmentRepository {
	return &assignmentRepository{db: db}
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}
