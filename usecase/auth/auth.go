package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/pkg/logger"
	"github.com/fastygo/taskflow/pkg/password"
	"github.com/fastygo/taskflow/pkg/token"
	"github.com/fastygo/taskflow/repository"
)

const stateTTL = 10 * time.Minute

// IdentityProvider performs the external half of a federated sign-in.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (domain.FederatedProfile, error)
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *token.Manager
	hasher   *password.Hasher
	logger   *zap.Logger

	provider IdentityProvider
	states   repository.StateRepository
}

// New builds the auth use case. sessions may be nil, which keeps tokens
// purely stateless and turns logout into a no-op.
func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *token.Manager,
	hasher *password.Hasher,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		logger:   logger,
	}
}

// SetFederation enables sign-in through provider, using states for CSRF protection.
func (uc *UseCase) SetFederation(provider IdentityProvider, states repository.StateRepository) {
	uc.provider = provider
	uc.states = states
}

// FederationEnabled reports whether a provider is configured.
func (uc *UseCase) FederationEnabled() bool {
	return uc.provider != nil && uc.states != nil
}

func (uc *UseCase) Register(ctx context.Context, username, email, plain string) (*domain.UserSummary, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" || plain == "" {
		return nil, domain.Invalid("username, email and password are required")
	}

	if _, err := uc.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := uc.hashPassword(plain)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx, uc.logger).Info("user registered", zap.String("user_id", user.ID))
	summary := user.Summary()
	return &summary, nil
}

// Login never reveals whether the email exists.
func (uc *UseCase) Login(ctx context.Context, email, plain string) (*domain.Token, error) {
	email = strings.TrimSpace(email)
	if email == "" || plain == "" {
		return nil, domain.Invalid("email and password are required")
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			uc.loginRejected(ctx, email)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !uc.hasher.Compare(user.PasswordHash, plain) {
		uc.loginRejected(ctx, email)
		return nil, domain.ErrInvalidCredentials
	}
	return uc.issue(user)
}

func (uc *UseCase) loginRejected(ctx context.Context, email string) {
	logger.WithRequestID(ctx, uc.logger).Info("login rejected",
		zap.String("email", email),
		zap.String("client_ip", httpcontext.ClientIP(ctx)))
}

// Authenticate resolves a bearer token into the caller identity.
func (uc *UseCase) Authenticate(ctx context.Context, raw string) (*domain.Session, error) {
	if raw == "" {
		return nil, domain.ErrUnauthorized
	}
	claims, err := uc.tokens.Parse(raw)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, domain.ErrInvalidToken.Message, err)
	}

	session := &domain.Session{
		TokenID:   claims.ID,
		UserID:    claims.UserID,
		Username:  claims.Username,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if session.IsExpired(time.Now()) {
		return nil, domain.ErrInvalidToken
	}

	if uc.sessions == nil {
		return session, nil
	}
	revoked, err := uc.sessions.IsRevoked(ctx, session.TokenID)
	if err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}
	mark, err := uc.sessions.RevokedBefore(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("check user revocation: %w", err)
	}
	// iat has whole-second precision, so only earlier seconds are denied.
	if !mark.IsZero() && session.IssuedAt.Unix() < mark.Unix() {
		return nil, domain.ErrTokenRevoked
	}
	return session, nil
}

// Logout revokes the token that carried session.
func (uc *UseCase) Logout(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return domain.ErrUnauthorized
	}
	if uc.sessions == nil {
		return nil
	}
	return uc.sessions.Revoke(ctx, session.TokenID, session.ExpiresAt)
}

// LogoutAll revokes every token issued to the caller so far, including the
// one carried by session.
func (uc *UseCase) LogoutAll(ctx context.Context, session *domain.Session) error {
	if session == nil || session.UserID == "" {
		return domain.ErrUnauthorized
	}
	if uc.sessions == nil {
		return nil
	}
	if err := uc.sessions.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return err
	}
	return uc.sessions.RevokeUser(ctx, session.UserID, time.Now())
}

// BeginFederated returns the provider URL the client should be redirected to.
func (uc *UseCase) BeginFederated(ctx context.Context) (string, error) {
	if !uc.FederationEnabled() {
		return "", domain.NewError(domain.ErrCodeNotFound, "federated login is not configured")
	}
	state := uuid.NewString()
	if err := uc.states.Save(ctx, state, stateTTL); err != nil {
		return "", fmt.Errorf("save oauth state: %w", err)
	}
	return uc.provider.AuthCodeURL(state), nil
}

// CompleteFederated validates the callback and signs the user in.
func (uc *UseCase) CompleteFederated(ctx context.Context, state, code string) (*domain.Token, error) {
	if !uc.FederationEnabled() {
		return nil, domain.NewError(domain.ErrCodeNotFound, "federated login is not configured")
	}
	if code == "" {
		return nil, domain.Invalid("missing authorization code")
	}
	if err := uc.states.Consume(ctx, state); err != nil {
		return nil, err
	}
	profile, err := uc.provider.Exchange(ctx, code)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "federated sign-in failed", err)
	}
	return uc.LoginWithProvider(ctx, profile)
}

// LoginWithProvider finds or creates the user behind a federated identity.
// A verified email matching a password account links the two.
func (uc *UseCase) LoginWithProvider(ctx context.Context, profile domain.FederatedProfile) (*domain.Token, error) {
	if profile.ProviderID == "" || profile.Email == "" {
		return nil, domain.Invalid("federated profile lacks id or email")
	}
	log := logger.WithRequestID(ctx, uc.logger)

	user, err := uc.users.GetByGoogleID(ctx, profile.ProviderID)
	if err == nil {
		return uc.issue(user)
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	existing, err := uc.users.GetByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if !profile.EmailVerified {
			return nil, domain.ErrEmailTaken
		}
		if err := uc.users.LinkGoogleID(ctx, existing.ID, profile.ProviderID); err != nil {
			return nil, err
		}
		existing.GoogleID = profile.ProviderID
		log.Info("federated identity linked", zap.String("user_id", existing.ID))
		return uc.issue(existing)
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	username := strings.TrimSpace(profile.Username)
	if username == "" {
		username = strings.SplitN(profile.Email, "@", 2)[0]
	}
	user = &domain.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    profile.Email,
		GoogleID: profile.ProviderID,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Info("user registered via federated login", zap.String("user_id", user.ID))
	return uc.issue(user)
}

func (uc *UseCase) issue(user *domain.User) (*domain.Token, error) {
	signed, claims, err := uc.tokens.Issue(token.Subject{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
	if err != nil {
		return nil, err
	}
	return &domain.Token{AccessToken: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (uc *UseCase) hashPassword(plain string) (string, error) {
	hash, err := uc.hasher.Hash(plain)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return "", domain.Invalid("password is too long")
		}
		return "", err
	}
	return hash, nil
}
