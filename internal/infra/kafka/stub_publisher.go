package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/samsoft00/gold-standard/internal/core/domain"
	"github.com/samsoft00/gold-standard/internal/core/port"
	"github.com/samsoft00/gold-standard/internal/infra/logger"
)

// StubPublisher satisfies port.EventPublisher without a broker. Events are
// written to the log with secrets masked, which is enough for local runs.
type StubPublisher struct {
	logger *zap.Logger
}

func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) record(eventType, adminID string, at time.Time, payload map[string]any) {
	if at.IsZero() {
		at = time.Now()
	}

	p.logger.Info("event logged instead of published",
		zap.String("event_type", eventType),
		zap.String("admin_id", adminID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

func (p *StubPublisher) PublishAdminInvited(_ context.Context, event domain.AdminInvitedEvent) error {
	p.record("auth.admin.invited", event.AdminID, event.InvitedAt, map[string]any{
		"email":        logger.MaskEmail(event.Email),
		"invite_token": logger.MaskString(event.InviteToken),
		"invited_at":   event.InvitedAt,
		"expires_at":   event.ExpiresAt,
	})
	return nil
}

func (p *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.record("auth.admin.password.reset_requested", event.AdminID, event.RequestedAt, map[string]any{
		"email":        logger.MaskEmail(event.Email),
		"request_id":   event.RequestID,
		"reset_token":  logger.MaskString(event.ResetToken),
		"requested_at": event.RequestedAt,
		"expires_at":   event.ExpiresAt,
	})
	return nil
}

func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.record("auth.admin.password.changed", event.AdminID, event.ChangedAt, map[string]any{
		"email":      logger.MaskEmail(event.Email),
		"changed_at": event.ChangedAt,
		"source":     event.Source,
	})
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
