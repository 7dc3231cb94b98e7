package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zapfit/messaging-service/internal/domain"
)

// ConnectionRepository encapsulates connection persistence.
type ConnectionRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Connection, error)
	GetByInstanceID(ctx context.Context, instanceID string) (*domain.Connection, error)
	GetFallbackForCompany(ctx context.Context, companyID string) (*domain.Connection, error)
	UpdateStatus(ctx context.Context, id string, status domain.ConnectionStatus) error
}

type connectionRepository struct {
	pool *pgxpool.Pool
}

// NewConnectionRepository instantiates repository.
func NewConnectionRepository(pool *pgxpool.Pool) ConnectionRepository {
	return &connectionRepository{pool: pool}
}

const connectionColumns = `id, company_id, name, status, instance_id, legacy_instance_id,
       default_queue_id, is_default, access_token, phone_number_id, waba_id, api_token,
       created_at, updated_at`

func (r *connectionRepository) GetByID(ctx context.Context, id string) (*domain.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

// GetByInstanceID looks up the primary instance field first, then the legacy
// field kept for channels registered before the hub migration. Cloud API
// connections have no instance id; their webhook token is the phone_number_id.
func (r *connectionRepository) GetByInstanceID(ctx context.Context, instanceID string) (*domain.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE instance_id=$1`
	conn, err := r.fetchSingle(ctx, query, instanceID)
	if err == nil {
		return conn, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}
	query = `SELECT ` + connectionColumns + `
        FROM connections
        WHERE legacy_instance_id=$1 OR phone_number_id=$1
        LIMIT 1`
	return r.fetchSingle(ctx, query, instanceID)
}

// GetFallbackForCompany returns the most recently created connected connection
// for the tenant, preferring one flagged default.
func (r *connectionRepository) GetFallbackForCompany(ctx context.Context, companyID string) (*domain.Connection, error) {
	query := `SELECT ` + connectionColumns + `
        FROM connections
        WHERE company_id=$1 AND status=$2
        ORDER BY is_default DESC, created_at DESC
        LIMIT 1`
	return r.fetchSingle(ctx, query, companyID, domain.ConnectionStatusConnected)
}

func (r *connectionRepository) UpdateStatus(ctx context.Context, id string, status domain.ConnectionStatus) error {
	const query = `UPDATE connections SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *connectionRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Connection, error) {
	var conn domain.Connection
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&conn.ID,
		&conn.CompanyID,
		&conn.Name,
		&conn.Status,
		&conn.InstanceID,
		&conn.LegacyInstanceID,
		&conn.DefaultQueueID,
		&conn.IsDefault,
		&conn.AccessToken,
		&conn.PhoneNumberID,
		&conn.WabaID,
		&conn.APIToken,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &conn, nil
}
