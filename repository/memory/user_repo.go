package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

// UserRepository enforces the same uniqueness rules as the SQL schema.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
	tasks *TaskRepository
}

var _ repository.UserRepository = (*UserRepository)(nil)

// NewUserRepository links tasks so deleting a user cascades; tasks may be nil.
func NewUserRepository(tasks *TaskRepository) *UserRepository {
	return &UserRepository{
		users: make(map[string]domain.User),
		tasks: tasks,
	}
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *UserRepository) GetByGoogleID(_ context.Context, googleID string) (*domain.User, error) {
	if googleID == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.find(func(u domain.User) bool { return u.GoogleID == googleID })
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	if user == nil || !user.HasCredential() {
		return domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return domain.ErrEmailTaken
		}
		if user.GoogleID != "" && existing.GoogleID == user.GoogleID {
			return domain.ErrIdentityTaken
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return r.mutate(id, func(u *domain.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
}

func (r *UserRepository) LinkGoogleID(_ context.Context, id, googleID string) error {
	r.mu.RLock()
	for _, existing := range r.users {
		if existing.ID != id && existing.GoogleID == googleID {
			r.mu.RUnlock()
			return domain.ErrIdentityTaken
		}
	}
	r.mu.RUnlock()

	return r.mutate(id, func(u *domain.User) error {
		u.GoogleID = googleID
		return nil
	})
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	if _, ok := r.users[id]; !ok {
		r.mu.Unlock()
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	r.mu.Unlock()

	if r.tasks != nil {
		r.tasks.DeleteByUser(id)
	}
	return nil
}

func (r *UserRepository) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if match(user) {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) mutate(id string, fn func(*domain.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if err := fn(&user); err != nil {
		return err
	}
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}
