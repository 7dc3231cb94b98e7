package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zapfit/messaging-service/internal/domain"
)

// ErrDuplicateContact signals the (company, number) unique constraint fired on
// insert; callers re-fetch the winning row.
var ErrDuplicateContact = errors.New("contact already exists")

// ContactRepository encapsulates contact persistence.
type ContactRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	GetByNumbers(ctx context.Context, companyID string, numbers []string) (*domain.Contact, error)
	Create(ctx context.Context, contact *domain.Contact) error
	UpdateName(ctx context.Context, id, name string) error
	TouchInteraction(ctx context.Context, id string, at time.Time) error
	UpdateLastInteraction(ctx context.Context, id string, at time.Time) error
}

type contactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository instantiates repository.
func NewContactRepository(pool *pgxpool.Pool) ContactRepository {
	return &contactRepository{pool: pool}
}

const contactColumns = `id, company_id, number, name, is_group, last_interaction_at,
       messages_received, created_at, updated_at`

func (r *contactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

// GetByNumbers resolves a contact by any of the candidate number forms.
func (r *contactRepository) GetByNumbers(ctx context.Context, companyID string, numbers []string) (*domain.Contact, error) {
	if len(numbers) == 0 {
		return nil, pgx.ErrNoRows
	}
	args := []any{companyID}
	placeholders := make([]string, len(numbers))
	for i, number := range numbers {
		args = append(args, number)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE company_id=$1 AND number IN (%s) LIMIT 1`,
		contactColumns, strings.Join(placeholders, ","))
	return r.fetchSingle(ctx, query, args...)
}

func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	const query = `
        INSERT INTO contacts (company_id, number, name, is_group)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		contact.CompanyID,
		contact.Number,
		contact.Name,
		contact.IsGroup,
	).Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateContact
		}
		return err
	}
	return nil
}

func (r *contactRepository) UpdateName(ctx context.Context, id, name string) error {
	const query = `UPDATE contacts SET name=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, name, id)
	return err
}

// TouchInteraction bumps the denormalized inbound counters.
func (r *contactRepository) TouchInteraction(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE contacts
        SET last_interaction_at=$1, messages_received=messages_received+1, updated_at=NOW()
        WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, at, id)
	return err
}

// UpdateLastInteraction refreshes the interaction timestamp without touching
// the inbound counter; used on outbound sends.
func (r *contactRepository) UpdateLastInteraction(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE contacts SET last_interaction_at=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, at, id)
	return err
}

func (r *contactRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Contact, error) {
	var contact domain.Contact
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&contact.ID,
		&contact.CompanyID,
		&contact.Number,
		&contact.Name,
		&contact.IsGroup,
		&contact.LastInteractionAt,
		&contact.MessagesReceived,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &contact, nil
}
