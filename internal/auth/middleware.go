package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ecobazaar-auth/internal/domain"
	apperrors "github.com/spec-kit/ecobazaar-auth/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller, decoded once from the
// access token at the middleware boundary.
type Principal struct {
	UserID string
	Email  string
	Role   domain.UserRole
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return parts[1], nil
}

// Middleware validates bearer access tokens for protected routes.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle enforces authentication for protected routes. Only access tokens
// are accepted; a refresh token never authorizes a resource request.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	tokenStr, err := BearerToken(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.Parse(tokenStr)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	if claims.TokenType != TokenTypeAccess {
		return apperrors.NewUnauthorized("access token required")
	}

	c.Locals(principalKey, &Principal{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
