package events

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists events into the domain_events table.
type PGStore struct {
	Pool *pgxpool.Pool
}

// InsertDomainEvent implements EventStore.
func (s PGStore) InsertDomainEvent(ctx context.Context, arg NewEvent) (Event, error) {
	const q = `INSERT INTO domain_events (topic, aggregate_id, payload)
VALUES ($1, $2::uuid, $3::jsonb)
RETURNING id::text, topic, aggregate_id::text, payload, occurred_at`
	var ev Event
	var payload []byte
	err := s.Pool.QueryRow(ctx, q, arg.Topic, arg.AggregateID, arg.Payload).
		Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &payload, &ev.OccurredAt)
	if err != nil {
		return Event{}, fmt.Errorf("insert domain event: %w", err)
	}
	ev.Payload = payload
	return ev, nil
}
