package service

import (
	"context"
	"errors"

	"github.com/spec-kit/ecobazaar-auth/internal/auth"
	"github.com/spec-kit/ecobazaar-auth/internal/domain"
	"github.com/spec-kit/ecobazaar-auth/internal/repository"
)

// CredentialVerifier decides whether an (email, password, role) triple
// identifies a valid, active account.
type CredentialVerifier struct {
	users repository.UserRepository
}

// NewCredentialVerifier builds the verifier.
func NewCredentialVerifier(users repository.UserRepository) *CredentialVerifier {
	return &CredentialVerifier{users: users}
}

// Verify runs the admission sequence: existence, active state, password,
// role. The distinct errors are for internal diagnostics; the HTTP layer
// collapses them into one generic message.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password, role string) (*domain.User, error) {
	user, err := v.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrUserDeactivated
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Role.Matches(role) {
		return nil, ErrRoleMismatch
	}
	return user, nil
}
