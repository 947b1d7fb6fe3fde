package domain

import "time"

// ActivationCode is a one-time 6-digit credential bound to a single user.
// Several unexpired codes may exist per user; lookups are always scoped by
// (user, code) so collisions across users are harmless.
type ActivationCode struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Code      string     `json:"code"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (c *ActivationCode) IsUsed() bool { return c.UsedAt != nil }

// ActivationIssued is what signup hands back to the caller.
type ActivationIssued struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}
