// Package outbox implements the transactional outbox: domain events are
// enqueued in the same transaction as the audit append, then dispatched
// asynchronously. This keeps "what happened" (the ledger) and "who was
// told" (events) consistent without a distributed transaction.
package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
)

// Event type suffixes; the full type is "<resource_type>.<suffix>".
const (
	SuffixMutated      = "mutated"
	SuffixWriteBlocked = "write_blocked"
)

// EventType renders the full event type for a resource type.
func EventType(rt resource.Type, suffix string) string {
	return fmt.Sprintf("%s.%s", rt, suffix)
}

// Event is one append-only outbox row. Rows are immutable except for the
// delivery bookkeeping columns the dispatcher owns.
type Event struct {
	ID           id.EventID      `json:"id"`
	OrgID        id.OrgID        `json:"org_id"`
	Type         string          `json:"event_type"`
	ResourceType resource.Type   `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	Payload      json.RawMessage `json:"payload"`
	CreatedAt    time.Time       `json:"created_at"`

	// Delivery bookkeeping, owned by the dispatcher.
	Delivered     bool       `json:"delivered"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	Attempts      int        `json:"attempts"`
	NextAttemptAt time.Time  `json:"next_attempt_at"`
}
