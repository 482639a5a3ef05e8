package profile

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/logger"
	"github.com/fastygo/taskflow/pkg/password"
	"github.com/fastygo/taskflow/repository"
)

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	hasher   *password.Hasher
	logger   *zap.Logger
}

// New wires account operations. sessions may be nil.
func New(users repository.UserRepository, sessions repository.SessionRepository, hasher *password.Hasher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return uc.users.GetByID(ctx, userID)
}

// ChangePassword replaces the password hash once the current password is verified.
func (uc *UseCase) ChangePassword(ctx context.Context, userID, current, next string) error {
	if current == "" || next == "" {
		return domain.Invalid("current and new password are required")
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !uc.hasher.Compare(user.PasswordHash, current) {
		return domain.ErrWrongPassword
	}

	hash, err := uc.hasher.Hash(next)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return domain.Invalid("password is too long")
		}
		return err
	}
	if err := uc.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	logger.WithRequestID(ctx, uc.logger).Info("password changed", zap.String("user_id", userID))
	return nil
}

// DeleteAccount removes the caller together with their tasks and revokes
// outstanding tokens, the one carried by session included.
func (uc *UseCase) DeleteAccount(ctx context.Context, session *domain.Session) error {
	if session == nil || session.UserID == "" {
		return domain.ErrUnauthorized
	}
	userID := session.UserID
	if err := uc.users.Delete(ctx, userID); err != nil {
		return err
	}

	log := logger.WithRequestID(ctx, uc.logger)
	if uc.sessions != nil {
		if err := uc.sessions.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
			log.Warn("failed to revoke token of deleted user", zap.String("user_id", userID), zap.Error(err))
		}
		if err := uc.sessions.RevokeUser(ctx, userID, time.Now()); err != nil {
			log.Warn("failed to revoke tokens of deleted user", zap.String("user_id", userID), zap.Error(err))
		}
	}
	log.Info("account deleted", zap.String("user_id", userID))
	return nil
}
