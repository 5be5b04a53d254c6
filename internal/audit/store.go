package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore writes audit entries to the audit_logs table.
type PGStore struct {
	Pool *pgxpool.Pool
}

// Insert implements Store.
func (s PGStore) Insert(ctx context.Context, e Entry) error {
	const q = `INSERT INTO audit_logs (actor_kind, actor_user_id, action, resource_type, resource_id,
	method, path, route, status, ip, user_agent, request_id, metadata)
VALUES ($1, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb)`
	var metadata any
	if len(e.Metadata) > 0 {
		metadata = []byte(e.Metadata)
	}
	_, err := s.Pool.Exec(ctx, q, string(e.ActorKind), e.ActorUserID, e.Action, e.ResourceType, e.ResourceID,
		e.Method, e.Path, e.Route, e.Status, e.IP, e.UserAgent, e.RequestID, metadata)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListByActor implements Store.
func (s PGStore) ListByActor(ctx context.Context, userID string, limit, offset int) ([]Entry, int64, error) {
	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM audit_logs WHERE actor_user_id = $1::uuid`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	rows, err := s.Pool.Query(ctx, `SELECT id::text, actor_kind, actor_user_id::text, action, resource_type, resource_id,
	method, path, route, status, ip, user_agent, request_id, metadata, occurred_at
FROM audit_logs
WHERE actor_user_id = $1::uuid
ORDER BY occurred_at DESC
LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var kind string
		var metadata []byte
		if err := rows.Scan(&e.ID, &kind, &e.ActorUserID, &e.Action, &e.ResourceType, &e.ResourceID,
			&e.Method, &e.Path, &e.Route, &e.Status, &e.IP, &e.UserAgent, &e.RequestID, &metadata, &e.OccurredAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		e.ActorKind = ActorKind(kind)
		e.Metadata = metadata
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
