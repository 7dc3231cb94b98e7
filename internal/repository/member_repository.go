package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zapfit/messaging-service/internal/domain"
)

// MemberRepository encapsulates CRM member persistence. The messaging core
// only creates provisional records; everything else belongs to the CRM domain.
type MemberRepository interface {
	ExistsForContact(ctx context.Context, contactID string) (bool, error)
	Create(ctx context.Context, member *domain.Member) error
}

type memberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository instantiates repository.
func NewMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &memberRepository{pool: pool}
}

func (r *memberRepository) ExistsForContact(ctx context.Context, contactID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM members WHERE contact_id=$1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, contactID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	const query = `
        INSERT INTO members (company_id, contact_id, status)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		member.CompanyID,
		member.ContactID,
		member.Status,
	).Scan(&member.ID, &member.CreatedAt)
}
