package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/zapfit/messaging-service/internal/provider"
	"github.com/zapfit/messaging-service/internal/repository"
)

// StatusService applies delivery-status callbacks to stored messages.
type StatusService struct {
	messages repository.MessageRepository
	logger   *zap.Logger
}

// NewStatusService constructs the service.
func NewStatusService(messages repository.MessageRepository, logger *zap.Logger) *StatusService {
	return &StatusService{messages: messages, logger: logger}
}

// Apply maps the provider status vocabulary to an ack code and updates the
// matching message, first by wid, then by the original payload id kept in the
// provenance blob. Orphan statuses are expected (messages sent before this
// service existed) and only logged.
func (s *StatusService) Apply(ctx context.Context, providerMessageID, rawMessageID, statusLabel string) error {
	ack, ok := provider.AckFromStatus(statusLabel)
	if !ok {
		s.logger.Debug("unrecognized status label ignored", zap.String("status", statusLabel))
		return nil
	}
	if providerMessageID != "" {
		affected, err := s.messages.UpdateAckByWID(ctx, providerMessageID, ack)
		if err != nil {
			return err
		}
		if affected > 0 {
			return nil
		}
	}
	if rawMessageID != "" {
		affected, err := s.messages.UpdateAckByRawID(ctx, rawMessageID, ack)
		if err != nil {
			return err
		}
		if affected > 0 {
			return nil
		}
	}
	s.logger.Info("status for untracked message ignored",
		zap.String("provider_message_id", providerMessageID),
		zap.String("raw_message_id", rawMessageID),
		zap.String("status", statusLabel))
	return nil
}
