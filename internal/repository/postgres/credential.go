package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/models"
)

type CredentialRepo struct {
	DB DBTX
}

const getCredential = `-- name: GetCredential
SELECT service, access_token, refresh_token, expires_at, updated_at
FROM credentials
WHERE service = $1
`

func (r *CredentialRepo) Get(ctx context.Context, service string) (models.Credential, error) {
	rows, _ := r.DB.Query(ctx, getCredential, service)
	credential, err := pgx.CollectOneRow(rows, rowToCredential)

	switch {
	case err == nil:
		return credential, nil
	case errors.Is(err, pgx.ErrNoRows):
		return credential, fmt.Errorf("repo error: %w", apperrors.ErrCredentialNotFound)
	default:
		return credential, fmt.Errorf("db error: %w", err)
	}
}

const putCredential = `-- name: PutCredential
INSERT INTO credentials (service, access_token, refresh_token, expires_at, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (service) DO UPDATE
SET access_token = EXCLUDED.access_token,
    refresh_token = EXCLUDED.refresh_token,
    expires_at = EXCLUDED.expires_at,
    updated_at = EXCLUDED.updated_at
`

// Upsert: the new credential replaces whatever was stored for the service
func (r *CredentialRepo) Put(ctx context.Context, c models.Credential) error {
	_, err := r.DB.Exec(ctx, putCredential, c.Service, c.AccessToken, c.RefreshToken, c.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func rowToCredential(row pgx.CollectableRow) (models.Credential, error) {
	var c models.Credential
	err := row.Scan(&c.Service, &c.AccessToken, &c.RefreshToken, &c.ExpiresAt, &c.UpdatedAt)
	return c, err
}
