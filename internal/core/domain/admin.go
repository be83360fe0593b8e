package domain

import (
	"strings"
	"time"
)

// Admin mirrors the persisted administrator credential document.
type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	IsDisabled   bool
	ResetToken   string
	ResetExpires *time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	LastLoginAt  *time.Time
	LastLoginIP  *string
}

// HasPassword reports whether the credential already holds a password hash,
// i.e. the invite has been accepted.
func (a Admin) HasPassword() bool {
	return strings.TrimSpace(a.PasswordHash) != ""
}

// Sanitized returns a copy safe to embed in API responses and tokens.
func (a Admin) Sanitized() Admin {
	copied := a
	copied.PasswordHash = ""
	copied.ResetToken = ""
	copied.ResetExpires = nil
	return copied
}

// NormalizeEmail lowers and trims an email address. Lookups are
// case-insensitive because documents always store the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
