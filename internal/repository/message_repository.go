package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zapfit/messaging-service/internal/domain"
)

// ErrDuplicateMessage signals the partial unique index on wid fired on insert;
// redelivered payloads hit this when they slip past the pre-insert lookup.
var ErrDuplicateMessage = errors.New("message already exists")

// MessageRepository encapsulates message persistence.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetByWID(ctx context.Context, wid string) (*domain.Message, error)
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	// UpdateAckByWID sets the ack code for the message matching wid and
	// returns the number of rows touched.
	UpdateAckByWID(ctx context.Context, wid string, ack int) (int64, error)
	// UpdateAckByRawID matches against the original payload id stored in the
	// provenance blob, compensating for providers that reference the transient
	// id in later status callbacks.
	UpdateAckByRawID(ctx context.Context, rawID string, ack int) (int64, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository instantiates repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

const messageColumns = `id, company_id, ticket_id, contact_id, wid, body, from_me,
       media_url, media_type, remote_jid, ack, data_json, created_at`

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	const query = `
        INSERT INTO messages (company_id, ticket_id, contact_id, wid, body, from_me,
                              media_url, media_type, remote_jid, ack, data_json, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,COALESCE($12, NOW()))
        RETURNING id, created_at`
	var createdAt any
	if !message.CreatedAt.IsZero() {
		createdAt = message.CreatedAt
	}
	err := r.pool.QueryRow(ctx, query,
		message.CompanyID,
		message.TicketID,
		message.ContactID,
		message.WID,
		message.Body,
		message.FromMe,
		message.MediaURL,
		message.MediaType,
		message.RemoteJID,
		message.Ack,
		message.DataJSON,
		createdAt,
	).Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateMessage
		}
		return err
	}
	return nil
}

func (r *messageRepository) GetByWID(ctx context.Context, wid string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE wid=$1`
	return r.fetchSingle(ctx, query, wid)
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *messageRepository) UpdateAckByWID(ctx context.Context, wid string, ack int) (int64, error) {
	const query = `UPDATE messages SET ack=$1 WHERE wid=$2`
	cmd, err := r.pool.Exec(ctx, query, ack, wid)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *messageRepository) UpdateAckByRawID(ctx context.Context, rawID string, ack int) (int64, error) {
	const query = `UPDATE messages SET ack=$1 WHERE data_json->>'id' = $2`
	cmd, err := r.pool.Exec(ctx, query, ack, rawID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *messageRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Message, error) {
	var message domain.Message
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&message.ID,
		&message.CompanyID,
		&message.TicketID,
		&message.ContactID,
		&message.WID,
		&message.Body,
		&message.FromMe,
		&message.MediaURL,
		&message.MediaType,
		&message.RemoteJID,
		&message.Ack,
		&message.DataJSON,
		&message.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &message, nil
}
