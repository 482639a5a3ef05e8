package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

const userColumns = `id, username, email, password_hash, google_id, created_at, updated_at`

type userRepository struct {
	pool Querier
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool Querier) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.getBy(ctx, "id", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *userRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return r.getBy(ctx, "google_id", googleID)
}

// getBy is only called with fixed column names.
func (r *userRepository) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	return scanUser(r.pool.QueryRow(ctx, query, value))
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil || !user.HasCredential() {
		return domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO users (id, username, email, password_hash, google_id)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		nullString(user.PasswordHash),
		nullString(user.GoogleID),
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return mapUserWriteError(err)
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) LinkGoogleID(ctx context.Context, id, googleID string) error {
	const query = `UPDATE users SET google_id = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, googleID)
	if err != nil {
		return mapUserWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete removes the user; owned tasks go with it through ON DELETE CASCADE.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrUserNotFound
	}
	const query = `DELETE FROM users WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func mapUserWriteError(err error) error {
	if constraint, ok := uniqueConstraint(err); ok {
		if constraint == "users_google_id_key" {
			return domain.ErrIdentityTaken
		}
		return domain.ErrEmailTaken
	}
	return fmt.Errorf("write user: %w", err)
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var passwordHash, googleID *string

	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&passwordHash,
		&googleID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	user.PasswordHash = derefString(passwordHash)
	user.GoogleID = derefString(googleID)
	return &user, nil
}
