package repository

import (
	"context"
	"time"
)

// SessionRepository tracks revoked bearer tokens. Tokens themselves are stateless.
type SessionRepository interface {
	// Revoke denies a single token id until it would have expired anyway.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// RevokeUser denies every token of the user issued in a second before at.
	// Marks are kept at whole-second precision.
	RevokeUser(ctx context.Context, userID string, at time.Time) error
	// RevokedBefore returns the user's revocation mark, zero when absent.
	RevokedBefore(ctx context.Context, userID string) (time.Time, error)
}

// StateRepository stores one-time OAuth state values.
type StateRepository interface {
	Save(ctx context.Context, state string, ttl time.Duration) error
	// Consume removes the state and fails with domain.ErrInvalidState when unknown.
	Consume(ctx context.Context, state string) error
}
