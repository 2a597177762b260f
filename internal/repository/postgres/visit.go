package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/models"
)

type VisitRepo struct {
	DB DBTX
}

// The row is created with count 1 or the existing counter is bumped in the same statement
const incrementVisit = `-- name: IncrementVisit
INSERT INTO visits (id, city, country, count, created_at, updated_at)
VALUES ($1, $2, $3, 1, now(), now())
ON CONFLICT (city, country) DO UPDATE
SET count = visits.count + 1,
    updated_at = EXCLUDED.updated_at
RETURNING id, city, country, count, created_at, updated_at
`

func (r *VisitRepo) Increment(ctx context.Context, city string, country string) (models.Visit, error) {
	rows, _ := r.DB.Query(ctx, incrementVisit, uuid.New(), city, country)
	visit, err := pgx.CollectOneRow(rows, rowToVisit)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == pgerrcode.CheckViolation || pgErr.Code == pgerrcode.NotNullViolation) {
			return visit, apperrors.ErrInvalidLocation
		}

		return visit, fmt.Errorf("db error: %w", err)
	}

	return visit, nil
}

const topVisits = `-- name: TopVisits
SELECT id, city, country, count, created_at, updated_at
FROM visits
ORDER BY count DESC, city, country
LIMIT $1
`

func (r *VisitRepo) Top(ctx context.Context, limit int) ([]models.Visit, error) {
	rows, _ := r.DB.Query(ctx, topVisits, limit)
	visits, err := pgx.CollectRows(rows, rowToVisit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return visits, nil
}

func rowToVisit(row pgx.CollectableRow) (models.Visit, error) {
	var v models.Visit
	err := row.Scan(&v.ID, &v.City, &v.Country, &v.Count, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}
