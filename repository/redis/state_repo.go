package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

type stateRepository struct {
	client *redislib.Client
	prefix string
}

// NewStateRepository stores OAuth state values that can be consumed once.
func NewStateRepository(client *redislib.Client) repository.StateRepository {
	return &stateRepository{client: client, prefix: "oauth_state:"}
}

func (r *stateRepository) Save(ctx context.Context, state string, ttl time.Duration) error {
	if state == "" {
		return domain.ErrInvalidPayload
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return r.client.Set(ctx, r.key(state), 1, ttl).Err()
}

func (r *stateRepository) Consume(ctx context.Context, state string) error {
	if state == "" {
		return domain.ErrInvalidState
	}
	if err := r.client.GetDel(ctx, r.key(state)).Err(); err != nil {
		if errors.Is(err, redislib.Nil) {
			return domain.ErrInvalidState
		}
		return err
	}
	return nil
}

func (r *stateRepository) key(state string) string {
	return fmt.Sprintf("%s%s", r.prefix, state)
}
