package ledger

import (
	"context"
	"sort"
	"sync"

	id "sirenops/pkg/domain"
)

const defaultPageSize = 50

// InMemory is a slice-backed Store for tests and dev mode. Entries are
// copied on append and on read so callers cannot mutate committed history.
type InMemory struct {
	mu      sync.RWMutex
	entries []*Entry
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *entry
	s.entries = append(s.entries, &clone)
	return nil
}

func (s *InMemory) List(_ context.Context, orgID id.OrgID, filter Filter) (*Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Entry
	for _, e := range s.entries {
		if e.OrgID != orgID || !matches(e, filter) {
			continue
		}
		clone := *e
		matched = append(matched, &clone)
	}
	// Newest first, ties broken by id for a stable cursor order.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})

	start := 0
	if !filter.Cursor.IsNil() {
		for i, e := range matched {
			if e.ID == filter.Cursor {
				start = i + 1
				break
			}
		}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	page := &Page{}
	for i := start; i < len(matched) && len(page.Entries) < limit; i++ {
		page.Entries = append(page.Entries, matched[i])
	}
	if len(page.Entries) == limit && start+limit < len(matched) {
		last := page.Entries[len(page.Entries)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}

// Count returns the number of committed entries; test helper for the
// one-audit-row-per-attempt property.
func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func matches(e *Entry, f Filter) bool {
	if f.ResourceType != "" && e.ResourceType != f.ResourceType {
		return false
	}
	if f.ResourceID != "" && e.ResourceID != f.ResourceID {
		return false
	}
	if !f.ActorID.IsNil() && e.ActorID != f.ActorID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Decision != "" && e.Decision != f.Decision {
		return false
	}
	if !f.Since.IsZero() && e.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.CreatedAt.After(f.Until) {
		return false
	}
	return true
}
