package outbox

import (
	"context"
	"sort"
	"sync"
	"time"

	id "sirenops/pkg/domain"
	"sirenops/pkg/platform/sentinel"
)

// InMemory is a map-backed Store for tests and dev mode.
type InMemory struct {
	mu     sync.RWMutex
	events map[id.EventID]*Event
}

func NewInMemory() *InMemory {
	return &InMemory{events: make(map[id.EventID]*Event)}
}

func (s *InMemory) Enqueue(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[event.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *event
	s.events[event.ID] = &clone
	return nil
}

func (s *InMemory) ListPending(_ context.Context, limit int) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Event
	for _, e := range s.events {
		if !e.Delivered {
			clone := *e
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) MarkDelivered(_ context.Context, eventID id.EventID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return sentinel.ErrNotFound
	}
	e.Delivered = true
	e.DeliveredAt = &at
	return nil
}

func (s *InMemory) RecordFailure(_ context.Context, eventID id.EventID, nextAttemptAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return sentinel.ErrNotFound
	}
	e.Attempts++
	e.NextAttemptAt = nextAttemptAt
	return nil
}

// Undelivered returns the count of pending events; test helper.
func (s *InMemory) Undelivered() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.events {
		if !e.Delivered {
			n++
		}
	}
	return n
}
