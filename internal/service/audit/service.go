// Package audit records append-only timeline events on cases. Events are
// written, never read, by this backend; the records UI consumes them.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/internal/repository"
	"github.com/bryanpmx/caf-api/pkg/logger"
)

type Service struct {
	repo   repository.AuditRepository
	logger *logger.Logger
}

func NewService(repo repository.AuditRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// RecordEvent appends a timeline event. Failures are logged and swallowed;
// an audit write must never fail the operation it describes.
func (s *Service) RecordEvent(ctx context.Context, caseID uuid.UUID, eventType string, actorID uuid.UUID, payload map[string]interface{}) {
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
			s.logger.Error(err, "failed to marshal audit payload", "case_id", caseID.String())
			return
		}
		event.Payload = raw
	}

	if err := s.repo.RecordEvent(ctx, event); err != nil {
		s.logger.Error(err, "failed to record timeline event",
			"case_id", caseID.String(), "type", eventType)
	}
}
