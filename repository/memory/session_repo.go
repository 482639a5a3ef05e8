package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

// SessionRepository keeps revocations in process memory. Entries expire lazily.
type SessionRepository struct {
	mu      sync.Mutex
	tokens  map[string]time.Time
	users   map[string]time.Time
	states  map[string]time.Time
	userTTL time.Duration
}

var (
	_ repository.SessionRepository = (*SessionRepository)(nil)
	_ repository.StateRepository   = (*SessionRepository)(nil)
)

// NewSessionRepository keeps per-user revocation marks for userTTL, which
// should match the access token lifetime.
func NewSessionRepository(userTTL time.Duration) *SessionRepository {
	if userTTL <= 0 {
		userTTL = 24 * time.Hour
	}
	return &SessionRepository{
		tokens:  make(map[string]time.Time),
		users:   make(map[string]time.Time),
		states:  make(map[string]time.Time),
		userTTL: userTTL,
	}
}

func (r *SessionRepository) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[tokenID] = expiresAt
	return nil
}

func (r *SessionRepository) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, ok := r.tokens[tokenID]
	if !ok {
		return false, nil
	}
	if !until.After(time.Now()) {
		delete(r.tokens, tokenID)
		return false, nil
	}
	return true, nil
}

func (r *SessionRepository) RevokeUser(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = time.Unix(at.Unix(), 0)
	return nil
}

func (r *SessionRepository) RevokedBefore(_ context.Context, userID string) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	at, ok := r.users[userID]
	if !ok {
		return time.Time{}, nil
	}
	if time.Since(at) > r.userTTL {
		delete(r.users, userID)
		return time.Time{}, nil
	}
	return at, nil
}

func (r *SessionRepository) Save(_ context.Context, state string, ttl time.Duration) error {
	if state == "" {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state] = time.Now().Add(ttl)
	return nil
}

func (r *SessionRepository) Consume(_ context.Context, state string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, ok := r.states[state]
	delete(r.states, state)
	if !ok || !until.After(time.Now()) {
		return domain.ErrInvalidState
	}
	return nil
}
