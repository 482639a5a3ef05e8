package repository

import (
	"context"

	"github.com/fastygo/taskflow/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	LinkGoogleID(ctx context.Context, id, googleID string) error
	Delete(ctx context.Context, id string) error
}
