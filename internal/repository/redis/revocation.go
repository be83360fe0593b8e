package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/samsoft00/gold-standard/internal/core/port"
	"github.com/samsoft00/gold-standard/internal/infra/security"
)

const defaultRevocationPrefix = "auth:revoked"

// RevocationStore keeps per-admin sets of revoked session token fingerprints.
// Storing fingerprints instead of raw tokens keeps bearer credentials out of
// Redis while letting membership checks stay O(1).
type RevocationStore struct {
	client *red.Client
	prefix string
}

// NewRevocationStore constructs a Redis-backed revocation cache.
func NewRevocationStore(client *red.Client, keyPrefix string) *RevocationStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultRevocationPrefix
	}

	return &RevocationStore{client: client, prefix: prefix}
}

// MarkRevoked adds the token fingerprint to the admin's revocation set. The
// set TTL is only ever extended, never shortened, so the entry for the
// longest-lived revoked token always survives.
func (s *RevocationStore) MarkRevoked(ctx context.Context, adminID string, token string, ttl time.Duration) error {
	key := s.key(adminID)
	if key == "" {
		return fmt.Errorf("admin id is required")
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	fingerprint := security.Fingerprint(token)

	if err := s.client.SAdd(ctx, key, fingerprint).Err(); err != nil {
		return fmt.Errorf("redis sadd revocation: %w", err)
	}

	// EXPIRE NX covers a freshly created set, which GT treats as having an
	// infinite TTL. EXPIRE GT then bumps atomically, so concurrent revokes
	// can never shorten the window of a longer-lived entry.
	if err := s.client.ExpireNX(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("redis expire nx revocation: %w", err)
	}
	if err := s.client.ExpireGT(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("redis expire gt revocation: %w", err)
	}

	return nil
}

// IsRevoked reports whether the token fingerprint is present in the admin's
// revocation set.
func (s *RevocationStore) IsRevoked(ctx context.Context, adminID string, token string) (bool, error) {
	key := s.key(adminID)
	if key == "" {
		return false, fmt.Errorf("admin id is required")
	}
	if strings.TrimSpace(token) == "" {
		return false, fmt.Errorf("token is required")
	}

	revoked, err := s.client.SIsMember(ctx, key, security.Fingerprint(token)).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember revocation: %w", err)
	}

	return revoked, nil
}

func (s *RevocationStore) key(adminID string) string {
	trimmed := strings.TrimSpace(adminID)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", s.prefix, trimmed)
}

var _ port.RevocationStore = (*RevocationStore)(nil)
