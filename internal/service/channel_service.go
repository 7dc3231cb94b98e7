package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/zapfit/messaging-service/internal/domain"
	"github.com/zapfit/messaging-service/internal/events"
	"github.com/zapfit/messaging-service/internal/provider"
	"github.com/zapfit/messaging-service/internal/repository"
	apperrors "github.com/zapfit/messaging-service/pkg/util"
)

// ChannelService resolves inbound channel tokens to connections and applies
// connection-state callbacks.
type ChannelService struct {
	connections repository.ConnectionRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// NewChannelService constructs the service.
func NewChannelService(connections repository.ConnectionRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ChannelService {
	return &ChannelService{connections: connections, dispatcher: dispatcher, logger: logger}
}

// Resolve maps a channel token to its connection. An unmatched token is an
// unauthorized request, never a silently processed one: a caller who can POST
// to the public webhook URL must not be able to fabricate tenant data.
func (s *ChannelService) Resolve(ctx context.Context, channelToken string) (*domain.Connection, error) {
	if channelToken == "" {
		return nil, apperrors.NewUnauthorized("missing channel token")
	}
	conn, err := s.connections.GetByInstanceID(ctx, channelToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("unknown channel token", zap.String("token", channelToken))
			return nil, apperrors.NewUnauthorized("unknown channel")
		}
		return nil, err
	}
	return conn, nil
}

// ApplyState records a connection lifecycle change reported by the provider.
func (s *ChannelService) ApplyState(ctx context.Context, conn *domain.Connection, event *provider.NormalizedEvent) error {
	newStatus := event.ConnectionStatus
	if event.Kind == provider.KindQRCode {
		newStatus = domain.ConnectionStatusPairing
	}
	if newStatus == "" || newStatus == conn.Status {
		return nil
	}
	if err := s.connections.UpdateStatus(ctx, conn.ID, newStatus); err != nil {
		return err
	}
	s.logger.Info("connection state changed",
		zap.String("connection_id", conn.ID),
		zap.String("old", string(conn.Status)),
		zap.String("new", string(newStatus)))
	s.publish(ctx, events.Event{
		Type:      events.EventConnectionStateChanged,
		CompanyID: conn.CompanyID,
		Payload: events.ConnectionStateChangedPayload{
			ConnectionID: conn.ID,
			OldStatus:    conn.Status,
			NewStatus:    newStatus,
		},
	})
	conn.Status = newStatus
	return nil
}

func (s *ChannelService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
