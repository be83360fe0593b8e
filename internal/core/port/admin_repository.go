package port

import (
	"context"
	"time"

	"github.com/samsoft00/gold-standard/internal/core/domain"
)

// AdminRepository exposes persistence behavior for administrator credentials.
type AdminRepository interface {
	Create(ctx context.Context, admin domain.Admin) (*domain.Admin, error)
	GetByID(ctx context.Context, id string) (*domain.Admin, error)
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*domain.Admin, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
	SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error
	// ResetPassword sets the new hash and clears the reset token in a single
	// update so a consumed token can never be replayed.
	ResetPassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
	RecordLogin(ctx context.Context, id string, ip string, at time.Time) error
}
