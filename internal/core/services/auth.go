// internal/core/services/auth.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
)

// ErrInvalidCredentials is returned for an unknown email or wrong password
var ErrInvalidCredentials = errors.New("Invalid credentials")

// AuthService issues and verifies session tokens
type AuthService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	cache  ports.CacheRepository
	logger *slog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new auth service. cache holds the revoked
// session denylist.
func NewAuthService(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer,
	cache ports.CacheRepository, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		cache:  cache,
		logger: logger.With(slog.String("service", "auth")),
	}
}

// Login verifies credentials and issues a session token
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.NewValidationError("email", "Email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		s.logger.InfoContext(ctx, "login rejected", slog.String("reason", "unknown_email"))
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logger.InfoContext(ctx, "login rejected",
			slog.String("reason", "bad_password"),
			slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(user.Role)))

	return &ports.Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate verifies a token and checks it was not revoked
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	identity, err := s.tokens.Parse(token)
	if err != nil {
		s.logger.DebugContext(ctx, "token rejected", slog.String("error", err.Error()))
		return nil, domain.ErrUnauthenticated
	}

	revoked, err := s.cache.Exists(ctx, revokedKey(identity.SessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to check session denylist: %w", err)
	}
	if revoked {
		return nil, domain.ErrUnauthenticated
	}

	return identity, nil
}

// Logout revokes the session until its natural expiry
func (s *AuthService) Logout(ctx context.Context, identity *domain.Identity) error {
	if identity == nil || identity.SessionID == "" {
		return nil
	}

	ttl := time.Until(identity.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := s.cache.SetWithTTL(ctx, revokedKey(identity.SessionID), identity.UserID.String(), ttl); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out", slog.String("user_id", identity.UserID.String()))
	return nil
}

func revokedKey(sessionID string) string {
	return ports.BuildKey(ports.PrefixSession, "revoked", sessionID)
}
