package outbox

import (
	"context"
	"time"

	id "sirenops/pkg/domain"
)

// Store abstracts outbox persistence. Enqueue joins the ambient transaction
// opened by the guard coordinator; the remaining methods are used by the
// background dispatcher only.
type Store interface {
	Enqueue(ctx context.Context, event *Event) error
	// ListPending returns undelivered events ordered by (created_at, id),
	// including events whose next attempt is still in the future; the
	// dispatcher needs them to honor per-resource ordering.
	ListPending(ctx context.Context, limit int) ([]*Event, error)
	MarkDelivered(ctx context.Context, eventID id.EventID, at time.Time) error
	// RecordFailure increments the attempt counter and schedules the next
	// attempt.
	RecordFailure(ctx context.Context, eventID id.EventID, nextAttemptAt time.Time) error
}
