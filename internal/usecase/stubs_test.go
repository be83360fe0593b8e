package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/samsoft00/gold-standard/internal/core/domain"
	"github.com/samsoft00/gold-standard/internal/core/port"
	"github.com/samsoft00/gold-standard/internal/infra/config"
	"github.com/samsoft00/gold-standard/internal/infra/security"
	"github.com/samsoft00/gold-standard/internal/repository"
)

func testConfig() *config.AppConfig {
	cfg := &config.AppConfig{}
	cfg.App.Name = "admin-auth-test"
	cfg.App.Env = "test"
	cfg.Redis.RevocationTTL = 48 * time.Hour
	cfg.Session.Issuer = "admin-auth-test"
	cfg.Session.SessionSecret = "session-secret-for-tests"
	cfg.Session.SessionTTL = time.Hour
	cfg.Session.InviteTTL = 3 * time.Hour
	cfg.Session.ResetTTL = 24 * time.Hour
	cfg.RateLimit.WindowDuration = time.Minute
	cfg.RateLimit.LoginMaxAttempts = 5
	cfg.RateLimit.PasswordResetMaxAttempts = 3
	return cfg
}

func testTokenService() *security.TokenService {
	svc, err := security.NewTokenService(security.TokenServiceConfig{
		Issuer:        "admin-auth-test",
		SessionSecret: "session-secret-for-tests",
		SessionTTL:    time.Hour,
		ScopedTTL:     3 * time.Hour,
	})
	if err != nil {
		panic(err)
	}
	return svc
}

type testAdminRepo struct {
	mu     sync.Mutex
	admins map[string]domain.Admin
	nextID int
}

func newTestAdminRepo() *testAdminRepo {
	return &testAdminRepo{admins: map[string]domain.Admin{}}
}

func (r *testAdminRepo) add(admin domain.Admin) domain.Admin {
	r.mu.Lock()
	defer r.mu.Unlock()
	if admin.ID == "" {
		r.nextID++
		admin.ID = fmt.Sprintf("admin-%d", r.nextID)
	}
	admin.Email = domain.NormalizeEmail(admin.Email)
	r.admins[admin.ID] = admin
	return admin
}

func (r *testAdminRepo) Create(_ context.Context, admin domain.Admin) (*domain.Admin, error) {
	r.mu.Lock()
	for _, existing := range r.admins {
		if existing.Email == domain.NormalizeEmail(admin.Email) {
			r.mu.Unlock()
			return nil, repository.ErrDuplicate
		}
	}
	r.mu.Unlock()

	created := r.add(admin)
	return &created, nil
}

func (r *testAdminRepo) GetByID(_ context.Context, id string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if admin, ok := r.admins[id]; ok {
		copied := admin
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *testAdminRepo) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	normalized := domain.NormalizeEmail(email)
	for _, admin := range r.admins {
		if admin.Email == normalized {
			copied := admin
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *testAdminRepo) GetByResetTokenHash(_ context.Context, tokenHash string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tokenHash == "" {
		return nil, repository.ErrNotFound
	}
	for _, admin := range r.admins {
		if admin.ResetToken == tokenHash {
			copied := admin
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *testAdminRepo) UpdatePassword(_ context.Context, id string, passwordHash string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin, ok := r.admins[id]
	if !ok {
		return repository.ErrNotFound
	}
	admin.PasswordHash = passwordHash
	admin.UpdatedAt = &changedAt
	r.admins[id] = admin
	return nil
}

func (r *testAdminRepo) SetResetToken(_ context.Context, id string, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin, ok := r.admins[id]
	if !ok {
		return repository.ErrNotFound
	}
	admin.ResetToken = tokenHash
	admin.ResetExpires = &expiresAt
	r.admins[id] = admin
	return nil
}

func (r *testAdminRepo) ResetPassword(_ context.Context, id string, passwordHash string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin, ok := r.admins[id]
	if !ok {
		return repository.ErrNotFound
	}
	admin.PasswordHash = passwordHash
	admin.UpdatedAt = &changedAt
	admin.ResetToken = ""
	admin.ResetExpires = nil
	r.admins[id] = admin
	return nil
}

func (r *testAdminRepo) RecordLogin(_ context.Context, id string, ip string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin, ok := r.admins[id]
	if !ok {
		return repository.ErrNotFound
	}
	admin.LastLoginAt = &at
	admin.LastLoginIP = &ip
	r.admins[id] = admin
	return nil
}

var _ port.AdminRepository = (*testAdminRepo)(nil)

type testRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]map[string]struct{}
	failAll bool
}

func newTestRevocationStore() *testRevocationStore {
	return &testRevocationStore{revoked: map[string]map[string]struct{}{}}
}

func (s *testRevocationStore) MarkRevoked(_ context.Context, adminID string, token string, ttl time.Duration) error {
	if s.failAll {
		return errors.New("revocation store down")
	}
	if adminID == "" || token == "" || ttl <= 0 {
		return errors.New("invalid input")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[adminID] == nil {
		s.revoked[adminID] = map[string]struct{}{}
	}
	s.revoked[adminID][security.Fingerprint(token)] = struct{}{}
	return nil
}

func (s *testRevocationStore) IsRevoked(_ context.Context, adminID string, token string) (bool, error) {
	if s.failAll {
		return false, errors.New("revocation store down")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.revoked[adminID]
	if !ok {
		return false, nil
	}
	_, revoked := set[security.Fingerprint(token)]
	return revoked, nil
}

var _ port.RevocationStore = (*testRevocationStore)(nil)

type testRateLimitStore struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

func newTestRateLimitStore() *testRateLimitStore {
	return &testRateLimitStore{attempts: map[string][]time.Time{}}
}

func (s *testRateLimitStore) Append(_ context.Context, identifier string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[identifier] = append(s.attempts[identifier], at)
	return nil
}

func (s *testRateLimitStore) CountInWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, at := range s.attempts[identifier] {
		if !at.Before(reference.Add(-window)) && !at.After(reference) {
			count++
		}
	}
	return count, nil
}

func (s *testRateLimitStore) PruneExpired(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.attempts[identifier][:0]
	for _, at := range s.attempts[identifier] {
		if !at.Before(reference.Add(-window)) {
			kept = append(kept, at)
		}
	}
	s.attempts[identifier] = kept
	return nil
}

func (s *testRateLimitStore) OldestInWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var oldest time.Time
	found := false
	for _, at := range s.attempts[identifier] {
		if at.Before(reference.Add(-window)) || at.After(reference) {
			continue
		}
		if !found || at.Before(oldest) {
			oldest = at
			found = true
		}
	}
	return oldest, found, nil
}

var _ port.RateLimitStore = (*testRateLimitStore)(nil)

type testPublisher struct {
	mu              sync.Mutex
	invited         []domain.AdminInvitedEvent
	resetRequests   []domain.PasswordResetRequestedEvent
	passwordChanges []domain.PasswordChangedEvent
}

func (p *testPublisher) PublishAdminInvited(_ context.Context, event domain.AdminInvitedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invited = append(p.invited, event)
	return nil
}

func (p *testPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetRequests = append(p.resetRequests, event)
	return nil
}

func (p *testPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passwordChanges = append(p.passwordChanges, event)
	return nil
}

var _ port.EventPublisher = (*testPublisher)(nil)

func testLogger() *zap.Logger {
	return zap.NewNop()
}
