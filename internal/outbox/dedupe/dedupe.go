// Package dedupe helps subscribers stay idempotent under at-least-once
// delivery: a handler checks each event id before side effects and marks
// it once the side effects are done.
package dedupe

import (
	"context"

	id "sirenops/pkg/domain"
)

// Deduper records processed event ids. Seen reports whether an id was
// already marked; Mark records it. The calls are separate so a failed
// handler leaves the id unmarked and the event eligible for redelivery.
type Deduper interface {
	Seen(ctx context.Context, eventID id.EventID) (bool, error)
	Mark(ctx context.Context, eventID id.EventID) error
}
