package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
	"sirenops/pkg/platform/sentinel"
	txcontext "sirenops/pkg/platform/tx"
)

// Postgres persists outbox events in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) execQ(ctx context.Context) execer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Enqueue(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO outbox_events (
			id, org_id, event_type, resource_type, resource_id, payload,
			created_at, delivered, attempts, next_attempt_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, 0, $8)
	`
	_, err := s.execQ(ctx).ExecContext(ctx, query,
		uuid.UUID(event.ID), uuid.UUID(event.OrgID), event.Type,
		string(event.ResourceType), event.ResourceID, []byte(event.Payload),
		event.CreatedAt, event.NextAttemptAt,
	)
	if err != nil {
		return fmt.Errorf("enqueue outbox event: %w", err)
	}
	return nil
}

func (s *Postgres) ListPending(ctx context.Context, limit int) ([]*Event, error) {
	// Ordered by (created_at, id) so the dispatcher sees each resource's
	// events oldest first; it holds back a resource once any of its events
	// is not yet deliverable.
	query := `
		SELECT id, org_id, event_type, resource_type, resource_id, payload,
		       created_at, delivered, delivered_at, attempts, next_attempt_at
		FROM outbox_events
		WHERE delivered = FALSE
		ORDER BY created_at, id
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending outbox events: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var (
			e           Event
			rawID       uuid.UUID
			rawOrg      uuid.UUID
			rt          string
			payload     []byte
			deliveredAt sql.NullTime
		)
		err := rows.Scan(&rawID, &rawOrg, &e.Type, &rt, &e.ResourceID, &payload,
			&e.CreatedAt, &e.Delivered, &deliveredAt, &e.Attempts, &e.NextAttemptAt)
		if err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		e.ID = id.EventID(rawID)
		e.OrgID = id.OrgID(rawOrg)
		e.ResourceType = resource.Type(rt)
		e.Payload = payload
		if deliveredAt.Valid {
			t := deliveredAt.Time
			e.DeliveredAt = &t
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox events: %w", err)
	}
	return out, nil
}

func (s *Postgres) MarkDelivered(ctx context.Context, eventID id.EventID, at time.Time) error {
	query := `
		UPDATE outbox_events
		SET delivered = TRUE, delivered_at = $2
		WHERE id = $1 AND delivered = FALSE
	`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(eventID), at)
	if err != nil {
		return fmt.Errorf("mark outbox event delivered: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark delivered rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) RecordFailure(ctx context.Context, eventID id.EventID, nextAttemptAt time.Time) error {
	query := `
		UPDATE outbox_events
		SET attempts = attempts + 1, next_attempt_at = $2
		WHERE id = $1 AND delivered = FALSE
	`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(eventID), nextAttemptAt)
	if err != nil {
		return fmt.Errorf("record outbox delivery failure: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record failure rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
