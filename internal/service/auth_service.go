package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/ecobazaar-auth/internal/auth"
	"github.com/spec-kit/ecobazaar-auth/internal/config"
	"github.com/spec-kit/ecobazaar-auth/internal/domain"
	"github.com/spec-kit/ecobazaar-auth/internal/events"
	"github.com/spec-kit/ecobazaar-auth/internal/repository"
)

const minPasswordLength = 8

// IssuedSession is the access/refresh pair produced by login and rotation.
// It is never persisted; the tokens themselves are the session.
type IssuedSession struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Role         domain.UserRole
}

// ValidationResult is the tagged outcome of an access-token check.
type ValidationResult struct {
	Valid  bool
	Claims *auth.Claims
	Err    error
}

// RegisterInput carries the registration payload.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
	Role            string
}

// AuthService coordinates login, registration, token rotation and validation.
type AuthService struct {
	users      repository.UserRepository
	verifier   *CredentialVerifier
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, dispatcher events.Dispatcher) *AuthService {
	return &AuthService{
		users:      users,
		verifier:   NewCredentialVerifier(users),
		tokens:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL()),
		dispatcher: dispatcher,
		bcryptCost: cfg.BcryptCost,
	}
}

// Login authenticates the triple and issues a fresh token pair. No tokens are
// constructed on any verification failure.
func (s *AuthService) Login(ctx context.Context, email, password, role string) (*IssuedSession, error) {
	user, err := s.verifier.Verify(ctx, email, password, role)
	if err != nil {
		return nil, err
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventUserLoggedIn, user)
	return session, nil
}

// Register validates input and creates a new active account. Registration
// does not auto-login; the caller logs in as a separate step.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	role, err := validateRegistration(input)
	if err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        input.Email,
		PasswordHash: hash,
		Phone:        input.Phone,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Two concurrent registrations can both pass the existence check;
		// the store's unique index is the authoritative guard.
		if errors.Is(err, repository.ErrEmailConflict) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	s.publish(ctx, events.EventUserRegistered, user)
	return user, nil
}

// Refresh rotates a still-valid refresh token into a new pair. The role is
// re-derived from the store so a changed role takes effect immediately. The
// old refresh token stays usable until its expiry; there is no revocation
// store.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*IssuedSession, error) {
	claims, err := s.tokens.Parse(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != auth.TokenTypeRefresh {
		return nil, ErrWrongTokenType
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrUserDeactivated
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTokenRefreshed, user)
	return session, nil
}

// Validate is the request-time gate for protected endpoints. Pure and
// side-effect free; only access tokens pass.
func (s *AuthService) Validate(tokenStr string) ValidationResult {
	claims, err := s.tokens.Parse(tokenStr)
	if err != nil {
		return ValidationResult{Err: err}
	}
	if claims.TokenType != auth.TokenTypeAccess {
		return ValidationResult{Err: ErrWrongTokenType}
	}
	return ValidationResult{Valid: true, Claims: claims}
}

// Logout acknowledges the request without server-side state change; no
// blacklist exists in this design.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// RequestPasswordReset checks the account exists and acknowledges. Delivery
// is simulated; no reset token is stored.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) issue(user *domain.User) (*IssuedSession, error) {
	access, _, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.tokens.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &IssuedSession{
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       user.ID,
		Role:         user.Role,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, typ events.EventType, user *domain.User) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.NewEvent(typ, user))
}

func validateRegistration(input RegisterInput) (domain.UserRole, error) {
	if strings.TrimSpace(input.Name) == "" {
		return "", newValidationError("name", "Name is required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return "", newValidationError("email", "Email is required")
	}
	if len(input.Password) < minPasswordLength {
		return "", newValidationError("password", "Password must be at least %d characters", minPasswordLength)
	}
	if input.Password != input.ConfirmPassword {
		return "", newValidationError("confirmPassword", "Passwords do not match")
	}
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return "", newValidationError("role", "Unknown role %q", input.Role)
	}
	return role, nil
}
