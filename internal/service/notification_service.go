package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/civifix-service/internal/config"
	"github.com/spec-kit/civifix-service/internal/events"
)

// NotificationService fans domain events out to delivery channels. Email and
// webhook delivery are stubs: they log the outgoing notification and succeed.
type NotificationService struct {
	cfg    config.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(cfg config.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{cfg: cfg, logger: logger}
}

// Notify routes a single event to the configured channels.
func (s *NotificationService) Notify(ctx context.Context, event events.Event) error {
	s.logger.Info("notification",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("issue_id", event.IssueID),
		zap.String("actor_user_id", event.ActorUserID),
	)
	if s.cfg.EmailFrom != "" {
		s.sendEmail(ctx, event)
	}
	if s.cfg.WebhookURL != "" {
		s.sendWebhook(ctx, event)
	}
	return nil
}

func (s *NotificationService) sendEmail(_ context.Context, event events.Event) {
	// TODO: wire an SMTP client once the mail relay is provisioned.
	s.logger.Debug("email notification queued",
		zap.String("from", s.cfg.EmailFrom),
		zap.String("event_type", string(event.Type)),
	)
}

func (s *NotificationService) sendWebhook(_ context.Context, event events.Event) {
	s.logger.Debug("webhook notification queued",
		zap.String("url", s.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)),
	)
}
