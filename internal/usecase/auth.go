package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/samsoft00/gold-standard/internal/core/domain"
	"github.com/samsoft00/gold-standard/internal/core/port"
	"github.com/samsoft00/gold-standard/internal/infra/config"
	"github.com/samsoft00/gold-standard/internal/infra/logger"
	"github.com/samsoft00/gold-standard/internal/infra/security"
	"github.com/samsoft00/gold-standard/internal/infra/telemetry"
	"github.com/samsoft00/gold-standard/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided email or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled indicates the administrator account is disabled.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrSessionRevoked indicates the session token was revoked ahead of validation.
	ErrSessionRevoked = errors.New("session revoked")
	// ErrInvalidSessionToken indicates the session token is malformed or its signature failed.
	ErrInvalidSessionToken = errors.New("invalid session token")
	// ErrExpiredSessionToken indicates the session token has expired.
	ErrExpiredSessionToken = errors.New("session token expired")
	// ErrIdentityNotFound indicates the token subject no longer exists.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrTooManyAttempts indicates the caller exceeded the allowed attempts for the window.
	ErrTooManyAttempts = errors.New("too many attempts")
	// ErrRevocationUnavailable indicates revocation state could not be confirmed.
	ErrRevocationUnavailable = errors.New("revocation state unavailable")
)

// AuthService coordinates login, logout, and session token validation.
type AuthService struct {
	cfg         *config.AppConfig
	admins      port.AdminRepository
	revocations port.RevocationStore
	rateLimits  port.RateLimitStore
	tokens      *security.TokenService
	policy      domain.DegradationPolicy
	metrics     *telemetry.Provider
	logger      *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	cfg *config.AppConfig,
	admins port.AdminRepository,
	revocations port.RevocationStore,
	rateLimits port.RateLimitStore,
	tokens *security.TokenService,
	policy domain.DegradationPolicy,
	metrics *telemetry.Provider,
	log *zap.Logger,
) (*AuthService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if admins == nil {
		return nil, fmt.Errorf("admin repository is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &AuthService{
		cfg:         cfg,
		admins:      admins,
		revocations: revocations,
		rateLimits:  rateLimits,
		tokens:      tokens,
		policy:      policy,
		metrics:     metrics,
		logger:      log,
	}, nil
}

// Login verifies credentials and issues a session token. Attempts are counted
// per email so a single identity cannot be brute forced from many addresses.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (string, domain.Admin, error) {
	if email == "" {
		return "", domain.Admin{}, fmt.Errorf("email is required")
	}
	if password == "" {
		return "", domain.Admin{}, fmt.Errorf("password is required")
	}

	normalized := domain.NormalizeEmail(email)

	if err := s.registerAttempt(ctx, "login:email:"+normalized); err != nil {
		if errors.Is(err, ErrTooManyAttempts) {
			s.metrics.RecordLoginAttempt("throttled")
			s.metrics.RecordThrottleRejection()
		}
		return "", domain.Admin{}, err
	}

	admin, err := s.admins.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordLoginAttempt("unknown_email")
			return "", domain.Admin{}, ErrInvalidCredentials
		}
		return "", domain.Admin{}, fmt.Errorf("lookup admin: %w", err)
	}

	// An admin who never accepted their invite has no password yet.
	if !admin.HasPassword() {
		s.metrics.RecordLoginAttempt("no_password")
		return "", domain.Admin{}, ErrInvalidCredentials
	}

	hashStart := time.Now()
	ok, err := security.VerifyPassword(password, admin.PasswordHash)
	s.metrics.ObservePasswordHashDuration(time.Since(hashStart))
	if err != nil {
		return "", domain.Admin{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.metrics.RecordLoginAttempt("bad_password")
		return "", domain.Admin{}, ErrInvalidCredentials
	}

	// Checked only after the password verifies so a caller without valid
	// credentials cannot learn that an account is disabled.
	if admin.IsDisabled {
		s.metrics.RecordLoginAttempt("disabled")
		return "", domain.Admin{}, ErrAccountDisabled
	}

	token, err := s.tokens.IssueSessionToken(admin.ID, admin.Email, admin.IsDisabled)
	if err != nil {
		return "", domain.Admin{}, fmt.Errorf("issue session token: %w", err)
	}

	now := time.Now().UTC()
	if err := s.admins.RecordLogin(ctx, admin.ID, ip, now); err != nil {
		s.logger.Warn("failed to record login stamp",
			zap.String("admin_id", admin.ID),
			zap.Error(err),
		)
	}
	admin.LastLoginAt = &now
	if ip != "" {
		admin.LastLoginIP = &ip
	}

	s.metrics.RecordLoginAttempt("success")
	s.logger.Info("admin logged in",
		zap.String("admin_id", admin.ID),
		zap.String("email", logger.MaskEmail(admin.Email)),
		zap.String("ip", logger.MaskIP(ip)),
	)

	return token, admin.Sanitized(), nil
}

// Logout revokes the presented session token for the remainder of its
// lifetime. Revocation writes are fail closed: if the revocation store cannot
// confirm the write the logout fails.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.ParseSessionToken(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			// An expired token can no longer authenticate anything.
			return nil
		}
		return ErrInvalidSessionToken
	}

	ttl := s.revocationTTL(claims)
	if ttl <= 0 {
		return nil
	}

	if s.revocations == nil {
		return ErrRevocationUnavailable
	}

	if err := s.revocations.MarkRevoked(ctx, claims.Subject, token, ttl); err != nil {
		s.logger.Error("failed to mark session revoked",
			zap.String("admin_id", claims.Subject),
			zap.Error(err),
		)
		return ErrRevocationUnavailable
	}

	s.logger.Info("admin logged out", zap.String("admin_id", claims.Subject))
	return nil
}

// ParseSessionToken validates a session token end to end: signature, expiry,
// revocation state, then a live identity re-check so disabling or deleting an
// admin takes effect before the token expires.
func (s *AuthService) ParseSessionToken(ctx context.Context, token string) (domain.Admin, *security.SessionClaims, error) {
	claims, err := s.tokens.ParseSessionToken(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return domain.Admin{}, nil, ErrExpiredSessionToken
		}
		return domain.Admin{}, nil, ErrInvalidSessionToken
	}

	if err := s.checkRevocation(ctx, claims.Subject, token); err != nil {
		return domain.Admin{}, nil, err
	}

	admin, err := s.admins.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Admin{}, nil, ErrIdentityNotFound
		}
		return domain.Admin{}, nil, fmt.Errorf("lookup admin: %w", err)
	}

	if admin.IsDisabled {
		return domain.Admin{}, nil, ErrAccountDisabled
	}

	return admin.Sanitized(), claims, nil
}

func (s *AuthService) checkRevocation(ctx context.Context, adminID, token string) error {
	if s.revocations == nil {
		if s.policy.IsStrict() {
			return ErrRevocationUnavailable
		}
		return nil
	}

	revoked, err := s.revocations.IsRevoked(ctx, adminID, token)
	if err != nil {
		s.metrics.RecordRevocationCheck("error")
		if s.policy.IsStrict() {
			return ErrRevocationUnavailable
		}
		s.logger.Warn("revocation check degraded, proceeding leniently",
			zap.String("admin_id", adminID),
			zap.Error(err),
		)
		return nil
	}

	if revoked {
		s.metrics.RecordRevocationCheck("revoked")
		return ErrSessionRevoked
	}

	s.metrics.RecordRevocationCheck("clean")
	return nil
}

// revocationTTL caps the blacklist entry at the configured ceiling so Redis
// never carries entries longer than the longest token lifetime requires.
func (s *AuthService) revocationTTL(claims *security.SessionClaims) time.Duration {
	ceiling := s.cfg.Redis.RevocationTTL
	if ceiling <= 0 {
		ceiling = 48 * time.Hour
	}

	if claims.ExpiresAt == nil {
		return ceiling
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return 0
	}
	if remaining > ceiling {
		return ceiling
	}
	return remaining
}

// registerAttempt enforces the sliding window for the given identifier and
// records the current attempt.
func (s *AuthService) registerAttempt(ctx context.Context, identifier string) error {
	if s.rateLimits == nil {
		return nil
	}

	window := s.cfg.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}
	max := s.cfg.RateLimit.LoginMaxAttempts
	if max <= 0 {
		max = 5
	}

	now := time.Now()

	if err := s.rateLimits.PruneExpired(ctx, identifier, window, now); err != nil {
		s.logger.Warn("rate limit trim failed", zap.Error(err))
		return nil
	}

	count, err := s.rateLimits.CountInWindow(ctx, identifier, window, now)
	if err != nil {
		s.logger.Warn("rate limit count failed", zap.Error(err))
		return nil
	}

	if count >= max {
		return ErrTooManyAttempts
	}

	if err := s.rateLimits.Append(ctx, identifier, now); err != nil {
		s.logger.Warn("rate limit record failed", zap.Error(err))
	}

	return nil
}
