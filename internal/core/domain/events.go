package domain

import "time"

// AdminInvitedEvent is published when a new administrator is invited. The
// invite token travels in the payload so the mail worker can build the link.
type AdminInvitedEvent struct {
	EventID     string
	AdminID     string
	Email       string
	InviteToken string
	InvitedAt   time.Time
	ExpiresAt   time.Time
}

// PasswordResetRequestedEvent is published when a reset link is generated.
// The raw reset token is only ever delivered through this channel.
type PasswordResetRequestedEvent struct {
	EventID     string
	AdminID     string
	Email       string
	RequestID   string
	ResetToken  string
	RequestedAt time.Time
	ExpiresAt   time.Time
	IP          *string
}

// PasswordChangedEvent is published after a password change, reset, or invite
// acceptance succeeds.
type PasswordChangedEvent struct {
	EventID   string
	AdminID   string
	Email     string
	ChangedAt time.Time
	Source    string
}
