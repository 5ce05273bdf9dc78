package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ecobazaar-auth/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserLoggedIn   EventType = "user_logged_in"
	EventTokenRefreshed EventType = "token_refreshed"
)

// Event represents an authentication event emitted by services. It carries
// account metadata only, never credentials or token strings.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	UserID    string          `json:"user_id"`
	Email     string          `json:"email"`
	Role      domain.UserRole `json:"role"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent builds an event for the given account.
func NewEvent(typ EventType, user *domain.User) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		Timestamp: time.Now(),
	}
}
