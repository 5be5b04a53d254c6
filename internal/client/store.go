package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientColumns = `id::text, name, email, company, phone, created_by::text, created_at, updated_at`

// PGStore is the Postgres implementation of Store.
type PGStore struct {
	Pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

func (s *PGStore) Create(ctx context.Context, owner string, in Input) (Client, error) {
	row := s.Pool.QueryRow(ctx, `INSERT INTO clients (name, email, company, phone, created_by)
VALUES ($1, $2, $3, $4, $5::uuid)
RETURNING `+clientColumns,
		in.Name, nullIfEmpty(in.Email), nullIfEmpty(in.Company), nullIfEmpty(in.Phone), owner)
	return scanClient(row)
}

func (s *PGStore) Get(ctx context.Context, owner, id string) (Client, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1::uuid AND created_by = $2::uuid`, id, owner)
	return scanClient(row)
}

func (s *PGStore) FindByEmail(ctx context.Context, owner, email string) (Client, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients
WHERE created_by = $1::uuid AND lower(email) = lower($2)
LIMIT 1`, owner, email)
	return scanClient(row)
}

func (s *PGStore) List(ctx context.Context, owner string, params ListParams) ([]Client, int64, error) {
	const filter = `created_by = $1::uuid AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%' OR company ILIKE '%' || $2 || '%')`
	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM clients WHERE `+filter, owner, params.Query).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+clientColumns+` FROM clients WHERE `+filter+`
ORDER BY name ASC, created_at DESC
LIMIT $3 OFFSET $4`, owner, params.Query, params.Limit, (params.Page-1)*params.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	out := make([]Client, 0, params.Limit)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	return out, total, nil
}

func (s *PGStore) Update(ctx context.Context, owner, id string, in Input) (Client, error) {
	row := s.Pool.QueryRow(ctx, `UPDATE clients
SET name = $3, email = $4, company = $5, phone = $6, updated_at = now()
WHERE id = $1::uuid AND created_by = $2::uuid
RETURNING `+clientColumns,
		id, owner, in.Name, nullIfEmpty(in.Email), nullIfEmpty(in.Company), nullIfEmpty(in.Phone))
	return scanClient(row)
}

func (s *PGStore) Delete(ctx context.Context, owner, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM clients WHERE id = $1::uuid AND created_by = $2::uuid`, id, owner)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Company, &c.Phone, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, err
	}
	return c, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
