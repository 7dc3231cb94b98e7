package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zapfit/messaging-service/internal/domain"
)

// TagRepository encapsulates campaign tag persistence.
type TagRepository interface {
	// ListCampaignTags returns the tenant's tags carrying a campaign
	// identifier, oldest first so first-match-wins is deterministic.
	ListCampaignTags(ctx context.Context, companyID string) ([]domain.Tag, error)
	// AttachContactTag creates the association and reports whether a new row
	// was written (false means the pair already existed).
	AttachContactTag(ctx context.Context, contactID, tagID string) (bool, error)
}

type tagRepository struct {
	pool *pgxpool.Pool
}

// NewTagRepository instantiates repository.
func NewTagRepository(pool *pgxpool.Pool) TagRepository {
	return &tagRepository{pool: pool}
}

func (r *tagRepository) ListCampaignTags(ctx context.Context, companyID string) ([]domain.Tag, error) {
	const query = `
        SELECT id, company_id, name, campaign_identifier, meta_pixel_id, meta_access_token, created_at
        FROM tags
        WHERE company_id=$1 AND campaign_identifier IS NOT NULL AND campaign_identifier <> ''
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTags(rows)
}

func (r *tagRepository) AttachContactTag(ctx context.Context, contactID, tagID string) (bool, error) {
	const query = `
        INSERT INTO contact_tags (contact_id, tag_id)
        VALUES ($1,$2)
        ON CONFLICT (contact_id, tag_id) DO NOTHING`
	cmd, err := r.pool.Exec(ctx, query, contactID, tagID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func scanTags(rows pgx.Rows) ([]domain.Tag, error) {
	var result []domain.Tag
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(
			&tag.ID,
			&tag.CompanyID,
			&tag.Name,
			&tag.CampaignIdentifier,
			&tag.MetaPixelID,
			&tag.MetaAccessToken,
			&tag.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, tag)
	}
	return result, rows.Err()
}
