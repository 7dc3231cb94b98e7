package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zapfit/messaging-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetLatestByContact(ctx context.Context, companyID, contactID string, statuses []domain.TicketStatus) (*domain.Ticket, error)
	UpdateQueue(ctx context.Context, id, queueID string) error
	UpdateConnection(ctx context.Context, id, connectionID string) error
	UpdateLastMessage(ctx context.Context, id, lastMessage string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, company_id, contact_id, connection_id, queue_id, user_id,
       status, last_message, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (company_id, contact_id, connection_id, queue_id, status, last_message)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.CompanyID,
		ticket.ContactID,
		ticket.ConnectionID,
		ticket.QueueID,
		ticket.Status,
		ticket.LastMessage,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

// GetLatestByContact returns the newest ticket for the contact in any of the
// given statuses. Ordering by created_at keeps the tie-break deterministic when
// more than one open conversation slipped through.
func (r *ticketRepository) GetLatestByContact(ctx context.Context, companyID, contactID string, statuses []domain.TicketStatus) (*domain.Ticket, error) {
	args := []any{companyID, contactID}
	placeholders := make([]string, len(statuses))
	for i, status := range statuses {
		args = append(args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets
        WHERE company_id=$1 AND contact_id=$2 AND status IN (%s)
        ORDER BY created_at DESC
        LIMIT 1`, ticketColumns, strings.Join(placeholders, ","))
	return r.fetchSingle(ctx, query, args...)
}

func (r *ticketRepository) UpdateQueue(ctx context.Context, id, queueID string) error {
	const query = `UPDATE tickets SET queue_id=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, queueID, id)
}

func (r *ticketRepository) UpdateConnection(ctx context.Context, id, connectionID string) error {
	const query = `UPDATE tickets SET connection_id=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, connectionID, id)
}

func (r *ticketRepository) UpdateLastMessage(ctx context.Context, id, lastMessage string) error {
	const query = `UPDATE tickets SET last_message=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, lastMessage, id)
}

func (r *ticketRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.CompanyID,
		&ticket.ContactID,
		&ticket.ConnectionID,
		&ticket.QueueID,
		&ticket.UserID,
		&ticket.Status,
		&ticket.LastMessage,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
