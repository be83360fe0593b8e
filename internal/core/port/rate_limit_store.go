package port

import (
	"context"
	"time"
)

// RateLimitStore records authentication attempts per identity and answers
// sliding-window questions about them. PruneExpired and CountInWindow take
// the window and a reference instant so callers control the clock; Append
// stamps one new attempt; OldestInWindow reports when the window next drains.
type RateLimitStore interface {
	PruneExpired(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
	CountInWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	Append(ctx context.Context, identifier string, at time.Time) error
	OldestInWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error)
}
