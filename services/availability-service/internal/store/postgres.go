package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps integrations in the zoom_integrations table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const integrationColumns = `id, account_id, client_id, client_secret, refresh_token,
	access_token, token_expiry, admin_email, created_at`

func (s *PostgresStore) ListIntegrations(ctx context.Context) ([]Integration, error) {
	query := fmt.Sprintf(`SELECT %s FROM zoom_integrations ORDER BY created_at`, integrationColumns)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	defer rows.Close()

	var integrations []Integration
	for rows.Next() {
		var integ Integration
		if err := rows.Scan(
			&integ.ID,
			&integ.AccountID,
			&integ.ClientID,
			&integ.ClientSecret,
			&integ.RefreshToken,
			&integ.AccessToken,
			&integ.TokenExpiry,
			&integ.AdminEmail,
			&integ.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan integration: %w", err)
		}
		integrations = append(integrations, integ)
	}

	return integrations, rows.Err()
}

func (s *PostgresStore) GetIntegration(ctx context.Context, id uuid.UUID) (Integration, error) {
	query := fmt.Sprintf(`SELECT %s FROM zoom_integrations WHERE id = $1`, integrationColumns)

	var integ Integration
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&integ.ID,
		&integ.AccountID,
		&integ.ClientID,
		&integ.ClientSecret,
		&integ.RefreshToken,
		&integ.AccessToken,
		&integ.TokenExpiry,
		&integ.AdminEmail,
		&integ.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Integration{}, ErrNotFound
	}
	if err != nil {
		return Integration{}, fmt.Errorf("failed to get integration: %w", err)
	}

	return integ, nil
}

func (s *PostgresStore) CreateIntegration(ctx context.Context, integ Integration) (bool, error) {
	query := `
		INSERT INTO zoom_integrations
			(id, account_id, client_id, client_secret, refresh_token,
			 access_token, token_expiry, admin_email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (account_id)
		DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query,
		integ.ID,
		integ.AccountID,
		integ.ClientID,
		integ.ClientSecret,
		integ.RefreshToken,
		integ.AccessToken,
		integ.TokenExpiry,
		integ.AdminEmail,
		integ.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert integration: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) UpdateToken(ctx context.Context, id uuid.UUID, upd TokenUpdate) error {
	query := `
		UPDATE zoom_integrations
		SET access_token = $1,
			token_expiry = $2,
			refresh_token = CASE WHEN $3 <> '' THEN $3 ELSE refresh_token END
		WHERE id = $4
	`

	tag, err := s.pool.Exec(ctx, query, upd.AccessToken, upd.Expiry, upd.RefreshToken, id)
	if err != nil {
		return &PersistError{IntegrationID: id, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &PersistError{IntegrationID: id, Err: ErrNotFound}
	}

	return nil
}

func (s *PostgresStore) DeleteIntegration(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM zoom_integrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete integration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Migrate creates the zoom_integrations table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	migrationSQL := `
		CREATE TABLE IF NOT EXISTS zoom_integrations (
		    id UUID PRIMARY KEY,
		    account_id VARCHAR(255) NOT NULL UNIQUE,
		    client_id VARCHAR(255) NOT NULL,
		    client_secret VARCHAR(255) NOT NULL,
		    refresh_token TEXT NOT NULL DEFAULT '',
		    access_token TEXT NOT NULL DEFAULT '',
		    token_expiry TIMESTAMP WITH TIME ZONE NOT NULL,
		    admin_email VARCHAR(255) NOT NULL,
		    created_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_zoom_integrations_admin_email ON zoom_integrations(admin_email);
	`

	if _, err := s.pool.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
