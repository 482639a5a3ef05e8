package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

type sessionRepository struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewSessionRepository creates a Redis-backed token revocation store. ttl is
// the access token lifetime and bounds how long per-user marks are kept.
func NewSessionRepository(client *redislib.Client, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionRepository{
		client: client,
		prefix: "session:",
		ttl:    ttl,
	}
}

func (r *sessionRepository) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return domain.ErrInvalidPayload
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// already expired, nothing left to deny
		return nil
	}
	return r.client.Set(ctx, r.key("revoked", tokenID), 1, ttl).Err()
}

func (r *sessionRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key("revoked", tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *sessionRepository) RevokeUser(ctx context.Context, userID string, at time.Time) error {
	if userID == "" {
		return domain.ErrInvalidPayload
	}
	return r.client.Set(ctx, r.key("user", userID), at.Unix(), r.ttl).Err()
}

func (r *sessionRepository) RevokedBefore(ctx context.Context, userID string) (time.Time, error) {
	result, err := r.client.Get(ctx, r.key("user", userID)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	seconds, err := strconv.ParseInt(result, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt revocation mark for %s: %w", userID, err)
	}
	return time.Unix(seconds, 0), nil
}

func (r *sessionRepository) key(kind, id string) string {
	return fmt.Sprintf("%s%s:%s", r.prefix, kind, id)
}
