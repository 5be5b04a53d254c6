package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-propostas/internal/pricing"
)

const serviceColumns = `id::text, name, description, base_price, features, category, icon, billing_type, is_custom,
       created_by::text, created_at, updated_at`

// PGStore is the Postgres implementation of Store.
type PGStore struct {
	Pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

func (s *PGStore) List(ctx context.Context, owner string) ([]CatalogService, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+serviceColumns+` FROM services
WHERE created_by IS NULL OR created_by = $1::uuid
ORDER BY is_custom ASC, category NULLS LAST, name ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()
	var out []CatalogService
	for rows.Next() {
		item, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return out, nil
}

func (s *PGStore) Create(ctx context.Context, owner string, in Input) (CatalogService, error) {
	row := s.Pool.QueryRow(ctx, `INSERT INTO services (name, description, base_price, features, category, icon, billing_type, is_custom, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, true, $8::uuid)
RETURNING `+serviceColumns,
		in.Name, nullIfEmpty(in.Description), in.BasePrice, in.Features, nullIfEmpty(in.Category), nullIfEmpty(in.Icon), in.BillingType, owner)
	return scanService(row)
}

// CountDefaults returns the number of shared entries.
func (s *PGStore) CountDefaults(ctx context.Context) (int64, error) {
	var n int64
	err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM services WHERE created_by IS NULL`).Scan(&n)
	return n, err
}

// CreateDefault inserts a shared entry with no owner. Used by the seeder.
func (s *PGStore) CreateDefault(ctx context.Context, in Input) (CatalogService, error) {
	row := s.Pool.QueryRow(ctx, `INSERT INTO services (name, description, base_price, features, category, icon, billing_type, is_custom)
VALUES ($1, $2, $3, $4, $5, $6, $7, false)
RETURNING `+serviceColumns,
		in.Name, nullIfEmpty(in.Description), in.BasePrice, in.Features, nullIfEmpty(in.Category), nullIfEmpty(in.Icon), in.BillingType)
	return scanService(row)
}

func (s *PGStore) Update(ctx context.Context, owner, id string, in Input) (CatalogService, error) {
	row := s.Pool.QueryRow(ctx, `UPDATE services
SET name = $3, description = $4, base_price = $5, features = $6, category = $7, icon = $8, billing_type = $9, updated_at = now()
WHERE id = $1::uuid AND created_by = $2::uuid
RETURNING `+serviceColumns,
		id, owner, in.Name, nullIfEmpty(in.Description), in.BasePrice, in.Features, nullIfEmpty(in.Category), nullIfEmpty(in.Icon), in.BillingType)
	return scanService(row)
}

func (s *PGStore) Delete(ctx context.Context, owner, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM services WHERE id = $1::uuid AND created_by = $2::uuid`, id, owner)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanService(row pgx.Row) (CatalogService, error) {
	var item CatalogService
	var billing string
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.BasePrice, &item.Features, &item.Category,
		&item.Icon, &billing, &item.IsCustom, &item.CreatedBy, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CatalogService{}, ErrNotFound
		}
		return CatalogService{}, err
	}
	item.BillingType = pricing.ParseBillingType(billing)
	if item.Features == nil {
		item.Features = []string{}
	}
	return item, nil
}

func nullIfEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
