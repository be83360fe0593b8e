package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/samsoft00/gold-standard/internal/core/domain"
	"github.com/samsoft00/gold-standard/internal/core/port"
	"github.com/samsoft00/gold-standard/internal/infra/config"
	"github.com/samsoft00/gold-standard/internal/infra/logger"
	"github.com/samsoft00/gold-standard/internal/infra/security"
	"github.com/samsoft00/gold-standard/internal/repository"
)

var (
	// ErrInvalidResetToken indicates the reset token is unknown or already consumed.
	ErrInvalidResetToken = errors.New("invalid reset token")
	// ErrExpiredResetToken indicates the reset token exists but its window lapsed.
	ErrExpiredResetToken = errors.New("reset token expired")
)

const resetTokenBytes = 32

// PasswordService owns password change and reset flows.
type PasswordService struct {
	cfg       *config.AppConfig
	admins    port.AdminRepository
	publisher port.EventPublisher
	validator *security.PasswordValidator
	logger    *zap.Logger
}

// NewPasswordService constructs a PasswordService instance.
func NewPasswordService(
	cfg *config.AppConfig,
	admins port.AdminRepository,
	publisher port.EventPublisher,
	validator *security.PasswordValidator,
	log *zap.Logger,
) (*PasswordService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if admins == nil {
		return nil, fmt.Errorf("admin repository is required")
	}
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &PasswordService{
		cfg:       cfg,
		admins:    admins,
		publisher: publisher,
		validator: validator,
		logger:    log,
	}, nil
}

// ChangePassword verifies the current password and replaces it with the new
// one after policy checks.
func (s *PasswordService) ChangePassword(ctx context.Context, adminID, currentPassword, newPassword string) error {
	if adminID == "" {
		return fmt.Errorf("admin id is required")
	}

	admin, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrIdentityNotFound
		}
		return fmt.Errorf("lookup admin: %w", err)
	}

	if admin.IsDisabled {
		return ErrAccountDisabled
	}

	ok, err := security.VerifyPassword(currentPassword, admin.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	if err := s.validateNewPassword(newPassword, currentPassword, admin.Email); err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	changedAt := time.Now().UTC()
	if err := s.admins.UpdatePassword(ctx, admin.ID, hash, changedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.publishPasswordChanged(ctx, *admin, changedAt, "change")

	s.logger.Info("admin password changed",
		zap.String("admin_id", admin.ID),
		zap.String("email", logger.MaskEmail(admin.Email)),
	)

	return nil
}

// RequestReset generates an opaque reset token, stores only its fingerprint,
// and hands the raw token to the notification pipeline. The caller decides
// whether unknown emails are surfaced; the HTTP layer deliberately does not.
func (s *PasswordService) RequestReset(ctx context.Context, email, ip string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("email is required")
	}

	admin, err := s.admins.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrIdentityNotFound
		}
		return "", fmt.Errorf("lookup admin: %w", err)
	}

	if admin.IsDisabled {
		return "", ErrAccountDisabled
	}

	token, err := security.GenerateSecureToken(resetTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.resetTTL())

	if err := s.admins.SetResetToken(ctx, admin.ID, security.Fingerprint(token), expiresAt); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	if s.publisher != nil {
		event := domain.PasswordResetRequestedEvent{
			EventID:     uuid.NewString(),
			AdminID:     admin.ID,
			Email:       admin.Email,
			RequestID:   uuid.NewString(),
			ResetToken:  token,
			RequestedAt: now,
			ExpiresAt:   expiresAt,
		}
		if ip != "" {
			event.IP = &ip
		}
		if err := s.publisher.PublishPasswordResetRequested(ctx, event); err != nil {
			s.logger.Error("failed to publish reset requested event",
				zap.String("admin_id", admin.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("password reset requested",
		zap.String("admin_id", admin.ID),
		zap.String("email", logger.MaskEmail(admin.Email)),
		zap.String("ip", logger.MaskIP(ip)),
	)

	return token, nil
}

// ValidateResetToken resolves a raw reset token to its admin, distinguishing
// unknown tokens from lapsed ones.
func (s *PasswordService) ValidateResetToken(ctx context.Context, token string) (domain.Admin, error) {
	if token == "" {
		return domain.Admin{}, ErrInvalidResetToken
	}

	admin, err := s.admins.GetByResetTokenHash(ctx, security.Fingerprint(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Admin{}, ErrInvalidResetToken
		}
		return domain.Admin{}, fmt.Errorf("lookup reset token: %w", err)
	}

	if admin.ResetExpires == nil || time.Now().UTC().After(*admin.ResetExpires) {
		return domain.Admin{}, ErrExpiredResetToken
	}

	if admin.IsDisabled {
		return domain.Admin{}, ErrAccountDisabled
	}

	return *admin, nil
}

// ResetPassword consumes a reset token and installs the new password. The
// token fingerprint is cleared in the same update, so a second attempt with
// the same link fails validation.
func (s *PasswordService) ResetPassword(ctx context.Context, token, newPassword string) error {
	admin, err := s.ValidateResetToken(ctx, token)
	if err != nil {
		return err
	}

	if err := s.validateNewPassword(newPassword, "", admin.Email); err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	changedAt := time.Now().UTC()
	if err := s.admins.ResetPassword(ctx, admin.ID, hash, changedAt); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	s.publishPasswordChanged(ctx, admin, changedAt, "reset")

	s.logger.Info("admin password reset",
		zap.String("admin_id", admin.ID),
		zap.String("email", logger.MaskEmail(admin.Email)),
	)

	return nil
}

func (s *PasswordService) validateNewPassword(newPassword, currentPassword, email string) error {
	rules := []security.PasswordRule{s.validator}
	if currentPassword != "" {
		rules = append(rules, security.RequireDifferentFrom(currentPassword))
	}
	if s.cfg.Password.MinStrengthScore > 0 {
		rules = append(rules, security.RequirePasswordStrengthRule(s.cfg.Password.MinStrengthScore, email))
	}

	return security.NewPasswordValidator(rules...).Validate(newPassword)
}

func (s *PasswordService) publishPasswordChanged(ctx context.Context, admin domain.Admin, changedAt time.Time, source string) {
	if s.publisher == nil {
		return
	}

	event := domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		AdminID:   admin.ID,
		Email:     admin.Email,
		ChangedAt: changedAt,
		Source:    source,
	}
	if err := s.publisher.PublishPasswordChanged(ctx, event); err != nil {
		s.logger.Error("failed to publish password changed event",
			zap.String("admin_id", admin.ID),
			zap.Error(err),
		)
	}
}

func (s *PasswordService) resetTTL() time.Duration {
	if s.cfg.Session.ResetTTL > 0 {
		return s.cfg.Session.ResetTTL
	}
	return 24 * time.Hour
}
