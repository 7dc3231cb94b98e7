package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/zapfit/messaging-service/internal/domain"
	"github.com/zapfit/messaging-service/internal/repository"
)

// TicketService finds the active conversation for a contact or opens one.
type TicketService struct {
	tickets repository.TicketRepository
	logger  *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(tickets repository.TicketRepository, logger *zap.Logger) *TicketService {
	return &TicketService{tickets: tickets, logger: logger}
}

// Resolve returns the latest open or pending ticket for the contact, creating
// a pending one when none exists. The second return reports whether a new
// ticket was opened by this call.
func (s *TicketService) Resolve(ctx context.Context, contact *domain.Contact, conn *domain.Connection) (*domain.Ticket, bool, error) {
	ticket, err := s.tickets.GetLatestByContact(ctx, contact.CompanyID, contact.ID,
		[]domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusPending})
	if err == nil {
		s.maybeBackfillQueue(ctx, ticket, conn)
		return ticket, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	ticket = &domain.Ticket{
		CompanyID:    contact.CompanyID,
		ContactID:    contact.ID,
		ConnectionID: conn.ID,
		QueueID:      conn.DefaultQueueID,
		Status:       domain.TicketStatusPending,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, false, err
	}
	s.logger.Info("ticket opened",
		zap.String("ticket_id", ticket.ID),
		zap.String("contact_id", contact.ID))
	return ticket, true, nil
}

// UpdateLastMessage refreshes the ticket preview; best effort only.
func (s *TicketService) UpdateLastMessage(ctx context.Context, ticketID, preview string) {
	if err := s.tickets.UpdateLastMessage(ctx, ticketID, preview); err != nil {
		s.logger.Warn("failed to update ticket preview",
			zap.String("ticket_id", ticketID), zap.Error(err))
	}
}

func (s *TicketService) maybeBackfillQueue(ctx context.Context, ticket *domain.Ticket, conn *domain.Connection) {
	if ticket.QueueID != nil || conn.DefaultQueueID == nil {
		return
	}
	if err := s.tickets.UpdateQueue(ctx, ticket.ID, *conn.DefaultQueueID); err != nil {
		s.logger.Warn("failed to backfill ticket queue",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	ticket.QueueID = conn.DefaultQueueID
}
