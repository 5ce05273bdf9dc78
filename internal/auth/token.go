package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/ecobazaar-auth/internal/domain"
)

// TokenType tags a token as usable for resource access or for rotation only.
// The tag is assigned at issuance and never changes.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	// ErrTokenMalformed covers bad shape, bad signature, and unknown token types.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired is returned when the signature checks out but the expiry passed.
	ErrTokenExpired = errors.New("token expired")
)

// ExpiredError reports how long ago a token expired. Diagnostic only; an
// expired token is never accepted regardless of how recently it lapsed.
type ExpiredError struct {
	ExpiredBy time.Duration
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("token expired %s ago", e.ExpiredBy)
}

func (e *ExpiredError) Is(target error) bool {
	return target == ErrTokenExpired
}

// Claims is the payload carried inside every issued token.
type Claims struct {
	UserID    string          `json:"userId"`
	Email     string          `json:"email"`
	Role      domain.UserRole `json:"role"`
	TokenType TokenType       `json:"type"`
	jwt.RegisteredClaims
}

// TokenManager signs claims into HS256 JWTs and parses them back. The secret
// is injected once at construction and read-only afterwards, so a single
// manager is safe for unbounded concurrent use.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// GenerateAccessToken signs a short-lived token that authorizes protected requests.
func (tm *TokenManager) GenerateAccessToken(userID, email string, role domain.UserRole) (string, time.Time, error) {
	return tm.generate(userID, email, role, TokenTypeAccess, tm.accessTTL)
}

// GenerateRefreshToken signs a longer-lived token usable only for rotation.
func (tm *TokenManager) GenerateRefreshToken(userID, email string, role domain.UserRole) (string, time.Time, error) {
	return tm.generate(userID, email, role, TokenTypeRefresh, tm.refreshTTL)
}

func (tm *TokenManager) generate(userID, email string, role domain.UserRole, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Parse verifies the signature and expiry of a token and returns its claims.
// Signature or shape problems yield ErrTokenMalformed; a valid signature past
// its expiry yields an ExpiredError matching ErrTokenExpired.
func (tm *TokenManager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && claims.ExpiresAt != nil {
			return nil, &ExpiredError{ExpiredBy: time.Since(claims.ExpiresAt.Time)}
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	if !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.TokenType != TokenTypeAccess && claims.TokenType != TokenTypeRefresh {
		return nil, fmt.Errorf("%w: unknown token type %q", ErrTokenMalformed, claims.TokenType)
	}
	return claims, nil
}
