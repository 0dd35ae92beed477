// Package worker consumes lifecycle events off the broker and delivers
// best-effort email notifications. A failure here never affects the lifecycle
// operation that produced the event.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bryanpmx/caf-api/internal/notifier"
	"github.com/bryanpmx/caf-api/internal/repository"
	"github.com/bryanpmx/caf-api/pkg/email"
	"github.com/bryanpmx/caf-api/pkg/logger"
	"github.com/bryanpmx/caf-api/pkg/messaging"
)

var subjects = map[string]string{
	notifier.KindStageUpdated:  "Case stage updated",
	notifier.KindCaseCompleted: "Case completed",
	notifier.KindCaseDeleted:   "Case deleted",
	notifier.KindCaseArchived:  "Case archived",
	notifier.KindStaffAssigned: "Case assignment updated",
}

type NotificationWorker struct {
	broker messaging.Broker
	users  repository.UserRepository
	sender email.Sender
	logger *logger.Logger
}

func NewNotificationWorker(
	broker messaging.Broker,
	users repository.UserRepository,
	sender email.Sender,
	logger *logger.Logger,
) *NotificationWorker {
	return &NotificationWorker{
		broker: broker,
		users:  users,
		sender: sender,
		logger: logger,
	}
}

func (w *NotificationWorker) Start(ctx context.Context) error {
	msgs, err := w.broker.Subscribe(ctx, notifier.Channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to lifecycle channel: %w", err)
	}

	w.logger.Info("Starting notification worker", "channel", notifier.Channel)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Shutting down notification worker")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := w.handle(ctx, msg); err != nil {
				w.logger.Error(err, "Failed to handle lifecycle event")
			}
		}
	}
}

func (w *NotificationWorker) handle(ctx context.Context, msg []byte) error {
	var event notifier.Event
	if err := json.Unmarshal(msg, &event); err != nil {
		return fmt.Errorf("failed to unmarshal lifecycle event: %w", err)
	}

	recipients := w.resolveEmails(ctx, &event)
	if len(recipients) == 0 {
		return nil
	}

	subject, ok := subjects[event.Kind]
	if !ok {
		subject = "Case update"
	}

	body := fmt.Sprintf("Case %s: %s at %s.",
		event.CaseID, event.Kind, event.OccurredAt.Format("2006-01-02 15:04"))

	if err := w.sender.Send(recipients, subject, body); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	w.logger.Info("Notification delivered",
		"kind", event.Kind,
		"case_id", event.CaseID.String(),
		"recipients", len(recipients))
	return nil
}

func (w *NotificationWorker) resolveEmails(ctx context.Context, event *notifier.Event) []string {
	emails := make([]string, 0, len(event.TargetUserIDs))
	for _, userID := range event.TargetUserIDs {
		user, err := w.users.Get(ctx, userID)
		if err != nil {
			w.logger.Warn("Skipping unresolvable notification target",
				"user_id", userID.String())
			continue
		}
		if !user.Active || user.Email == "" {
			continue
		}
		emails = append(emails, user.Email)
	}
	return emails
}
