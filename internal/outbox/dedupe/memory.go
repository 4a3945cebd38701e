package dedupe

import (
	"context"
	"sync"

	id "sirenops/pkg/domain"
)

// InMemory is a map-backed Deduper for tests and single-process consumers.
// It grows unboundedly; production consumers use the Redis deduper with TTL.
type InMemory struct {
	mu   sync.Mutex
	seen map[id.EventID]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{seen: make(map[id.EventID]struct{})}
}

func (d *InMemory) Seen(_ context.Context, eventID id.EventID) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[eventID]
	return ok, nil
}

func (d *InMemory) Mark(_ context.Context, eventID id.EventID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[eventID] = struct{}{}
	return nil
}
