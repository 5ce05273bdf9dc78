package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ecobazaar-auth/internal/events"
)

// AuditService records authentication events to the structured log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService builds the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes the audit log to all authentication events.
func (s *AuditService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	for _, typ := range []events.EventType{
		events.EventUserRegistered,
		events.EventUserLoggedIn,
		events.EventTokenRefreshed,
	} {
		s.dispatcher.Subscribe(typ, s.record)
	}
}

func (s *AuditService) record(_ context.Context, event events.Event) error {
	s.logger.Info("auth event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("user_id", event.UserID),
		zap.String("role", string(event.Role)),
		zap.Time("at", event.Timestamp),
	)
	return nil
}
