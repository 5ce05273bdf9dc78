package domain

import (
	"strings"
	"time"
)

// UserRole is the closed set of account roles.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleShopkeeper UserRole = "SHOPKEEPER"
	RoleCustomer   UserRole = "CUSTOMER"
)

// ParseRole normalizes a role string case-insensitively.
func ParseRole(raw string) (UserRole, bool) {
	switch UserRole(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleShopkeeper:
		return RoleShopkeeper, true
	case RoleCustomer:
		return RoleCustomer, true
	default:
		return "", false
	}
}

// Matches compares the stored role against a requested role case-insensitively.
func (r UserRole) Matches(requested string) bool {
	return strings.EqualFold(string(r), strings.TrimSpace(requested))
}

// User is the domain model for storefront accounts.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
