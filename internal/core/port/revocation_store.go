package port

import (
	"context"
	"time"
)

// RevocationStore records logged-out session tokens for rapid bearer checks.
// Implementations store a fingerprint of the token, never the raw value.
type RevocationStore interface {
	MarkRevoked(ctx context.Context, adminID string, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, adminID string, token string) (bool, error)
}
