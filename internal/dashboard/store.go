package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the Postgres implementation of Store.
type PGStore struct {
	Pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

func (s *PGStore) CountByStatus(ctx context.Context, owner string) ([]StatusRow, error) {
	rows, err := s.Pool.Query(ctx, `SELECT status, count(*), COALESCE(sum(amount), 0)
FROM proposals
WHERE created_by = $1::uuid
GROUP BY status`, owner)
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()
	var out []StatusRow
	for rows.Next() {
		var row StatusRow
		if err := rows.Scan(&row.Status, &row.Count, &row.Amount); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
