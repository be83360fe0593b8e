package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
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
	// ErrInvalidEmail indicates the supplied address is not a plausible email.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrAdminExists indicates an administrator with this email already exists.
	ErrAdminExists = errors.New("admin already exists")
	// ErrInvalidInviteToken indicates the invite token is malformed or misused.
	ErrInvalidInviteToken = errors.New("invalid invite token")
	// ErrExpiredInviteToken indicates the invite link outlived its window.
	ErrExpiredInviteToken = errors.New("invite token expired")
	// ErrInviteAlreadyAccepted indicates the invitee already set a password.
	ErrInviteAlreadyAccepted = errors.New("invite already accepted")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// InviteService owns the administrator invite lifecycle: creating the pending
// record, minting the invite link token, and accepting it.
type InviteService struct {
	cfg       *config.AppConfig
	admins    port.AdminRepository
	tokens    *security.TokenService
	publisher port.EventPublisher
	validator *security.PasswordValidator
	logger    *zap.Logger
}

// NewInviteService constructs an InviteService instance.
func NewInviteService(
	cfg *config.AppConfig,
	admins port.AdminRepository,
	tokens *security.TokenService,
	publisher port.EventPublisher,
	validator *security.PasswordValidator,
	log *zap.Logger,
) (*InviteService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if admins == nil {
		return nil, fmt.Errorf("admin repository is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &InviteService{
		cfg:       cfg,
		admins:    admins,
		tokens:    tokens,
		publisher: publisher,
		validator: validator,
		logger:    log,
	}, nil
}

// InviteAdmin creates a pending administrator record and mints the invite
// token embedded in the invitation link.
func (s *InviteService) InviteAdmin(ctx context.Context, email string) (domain.Admin, string, error) {
	normalized := domain.NormalizeEmail(email)
	if !emailPattern.MatchString(normalized) {
		return domain.Admin{}, "", ErrInvalidEmail
	}

	created, err := s.admins.Create(ctx, domain.Admin{
		Email:     normalized,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Admin{}, "", ErrAdminExists
		}
		return domain.Admin{}, "", fmt.Errorf("create admin: %w", err)
	}

	token, err := s.tokens.IssueScopedToken(created.ID, security.ScopedTokenPurposeInvite, s.cfg.Session.InviteTTL)
	if err != nil {
		return domain.Admin{}, "", fmt.Errorf("issue invite token: %w", err)
	}

	now := time.Now().UTC()
	if s.publisher != nil {
		event := domain.AdminInvitedEvent{
			EventID:     uuid.NewString(),
			AdminID:     created.ID,
			Email:       created.Email,
			InviteToken: token,
			InvitedAt:   now,
			ExpiresAt:   now.Add(s.inviteTTL()),
		}
		if err := s.publisher.PublishAdminInvited(ctx, event); err != nil {
			s.logger.Error("failed to publish invite event",
				zap.String("admin_id", created.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("admin invited",
		zap.String("admin_id", created.ID),
		zap.String("email", logger.MaskEmail(created.Email)),
	)

	return created.Sanitized(), token, nil
}

// ValidateInvite confirms an invite token still points at a pending
// administrator.
func (s *InviteService) ValidateInvite(ctx context.Context, token string) (domain.Admin, error) {
	claims, err := s.tokens.ParseScopedToken(token, security.ScopedTokenPurposeInvite)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return domain.Admin{}, ErrExpiredInviteToken
		}
		return domain.Admin{}, ErrInvalidInviteToken
	}

	admin, err := s.admins.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Admin{}, ErrInvalidInviteToken
		}
		return domain.Admin{}, fmt.Errorf("lookup admin: %w", err)
	}

	if admin.IsDisabled {
		return domain.Admin{}, ErrAccountDisabled
	}
	if admin.HasPassword() {
		return domain.Admin{}, ErrInviteAlreadyAccepted
	}

	return admin.Sanitized(), nil
}

// AcceptInvite consumes an invite token by installing the invitee's first
// password. Acceptance is single use because a populated password hash makes
// ValidateInvite refuse the same token afterwards.
func (s *InviteService) AcceptInvite(ctx context.Context, token, password string) (domain.Admin, error) {
	admin, err := s.ValidateInvite(ctx, token)
	if err != nil {
		return domain.Admin{}, err
	}

	if err := s.validator.Validate(password); err != nil {
		return domain.Admin{}, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return domain.Admin{}, fmt.Errorf("hash password: %w", err)
	}

	changedAt := time.Now().UTC()
	if err := s.admins.UpdatePassword(ctx, admin.ID, hash, changedAt); err != nil {
		return domain.Admin{}, fmt.Errorf("set password: %w", err)
	}

	if s.publisher != nil {
		event := domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			AdminID:   admin.ID,
			Email:     admin.Email,
			ChangedAt: changedAt,
			Source:    "invite",
		}
		if err := s.publisher.PublishPasswordChanged(ctx, event); err != nil {
			s.logger.Error("failed to publish password changed event",
				zap.String("admin_id", admin.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("admin invite accepted",
		zap.String("admin_id", admin.ID),
		zap.String("email", logger.MaskEmail(admin.Email)),
	)

	return admin, nil
}

func (s *InviteService) inviteTTL() time.Duration {
	if s.cfg.Session.InviteTTL > 0 {
		return s.cfg.Session.InviteTTL
	}
	return 3 * time.Hour
}
