package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/samsoft00/gold-standard/internal/core/domain"
	"github.com/samsoft00/gold-standard/internal/core/port"
	"github.com/samsoft00/gold-standard/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	AdminID   string            `json:"admin_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// emit wraps the payload in the versioned envelope and queues it on the
// async producer. Messages are keyed by admin so one admin's events land on
// a single partition, in order.
func (p *EventPublisher) emit(ctx context.Context, env eventEnvelope) error {
	if env.EventID == "" {
		env.EventID = uuid.NewString()
	}
	if env.Timestamp.IsZero() {
		env.Timestamp = time.Now()
	}
	env.Timestamp = env.Timestamp.UTC()
	env.Version = schemaVersion
	env.Metadata = map[string]string{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(env.EventType),
		Value: sarama.ByteEncoder(body),
	}
	if env.AdminID != "" {
		msg.Key = sarama.StringEncoder(env.AdminID)
	}

	select {
	case p.producer.Producer().Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAdminInvited publishes auth.admin.invited events.
func (p *EventPublisher) PublishAdminInvited(ctx context.Context, event domain.AdminInvitedEvent) error {
	return p.emit(ctx, eventEnvelope{
		EventID:   event.EventID,
		EventType: "auth.admin.invited",
		AdminID:   event.AdminID,
		Timestamp: event.InvitedAt,
		Payload: struct {
			AdminID     string    `json:"admin_id"`
			Email       string    `json:"email"`
			InviteToken string    `json:"invite_token"`
			InvitedAt   time.Time `json:"invited_at"`
			ExpiresAt   time.Time `json:"expires_at"`
		}{
			AdminID:     event.AdminID,
			Email:       event.Email,
			InviteToken: event.InviteToken,
			InvitedAt:   event.InvitedAt.UTC(),
			ExpiresAt:   event.ExpiresAt.UTC(),
		},
	})
}

// PublishPasswordResetRequested publishes auth.admin.password.reset_requested events.
func (p *EventPublisher) PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error {
	return p.emit(ctx, eventEnvelope{
		EventID:   event.EventID,
		EventType: "auth.admin.password.reset_requested",
		AdminID:   event.AdminID,
		Timestamp: event.RequestedAt,
		Payload: struct {
			AdminID     string    `json:"admin_id"`
			Email       string    `json:"email"`
			RequestID   string    `json:"request_id"`
			ResetToken  string    `json:"reset_token"`
			RequestedAt time.Time `json:"requested_at"`
			ExpiresAt   time.Time `json:"expires_at"`
			IPAddress   *string   `json:"ip_address,omitempty"`
		}{
			AdminID:     event.AdminID,
			Email:       event.Email,
			RequestID:   event.RequestID,
			ResetToken:  event.ResetToken,
			RequestedAt: event.RequestedAt.UTC(),
			ExpiresAt:   event.ExpiresAt.UTC(),
			IPAddress:   event.IP,
		},
	})
}

// PublishPasswordChanged publishes auth.admin.password.changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	return p.emit(ctx, eventEnvelope{
		EventID:   event.EventID,
		EventType: "auth.admin.password.changed",
		AdminID:   event.AdminID,
		Timestamp: event.ChangedAt,
		Payload: struct {
			AdminID   string    `json:"admin_id"`
			Email     string    `json:"email"`
			ChangedAt time.Time `json:"changed_at"`
			Source    string    `json:"source"`
		}{
			AdminID:   event.AdminID,
			Email:     event.Email,
			ChangedAt: event.ChangedAt.UTC(),
			Source:    event.Source,
		},
	})
}

var _ port.EventPublisher = (*EventPublisher)(nil)
