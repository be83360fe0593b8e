package port

import (
	"context"

	"github.com/samsoft00/gold-standard/internal/core/domain"
)

// EventPublisher delivers auth lifecycle events to the outbound notification
// pipeline. The mail and SMS workers consuming these topics are external.
type EventPublisher interface {
	PublishAdminInvited(ctx context.Context, event domain.AdminInvitedEvent) error
	PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
}
