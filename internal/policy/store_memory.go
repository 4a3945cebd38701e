package policy

import (
	"context"
	"sort"
	"sync"

	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
	"sirenops/pkg/platform/sentinel"
)

type policyKey struct {
	org id.OrgID
	rt  resource.Type
}

// InMemory is a map-backed Store for tests and dev mode.
//
// The failing flag simulates a policy store outage so fail-closed behavior
// can be exercised without a real database.
type InMemory struct {
	mu       sync.RWMutex
	policies map[policyKey]*RetentionPolicy
	holds    map[id.HoldID]*LegalHold
	failing  bool
}

func NewInMemory() *InMemory {
	return &InMemory{
		policies: make(map[policyKey]*RetentionPolicy),
		holds:    make(map[id.HoldID]*LegalHold),
	}
}

// SetFailing toggles simulated unavailability; every call returns
// sentinel.ErrUnavailable while set.
func (s *InMemory) SetFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = failing
}

func (s *InMemory) unavailable() bool {
	return s.failing
}

func (s *InMemory) GetRetentionPolicy(_ context.Context, orgID id.OrgID, rt resource.Type) (*RetentionPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unavailable() {
		return nil, sentinel.ErrUnavailable
	}
	p, ok := s.policies[policyKey{org: orgID, rt: rt}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *InMemory) UpsertRetentionPolicy(_ context.Context, p *RetentionPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable() {
		return sentinel.ErrUnavailable
	}
	key := policyKey{org: p.OrgID, rt: p.ResourceType}
	if prev, ok := s.policies[key]; ok {
		p.Version = prev.Version + 1
	} else {
		p.Version = 1
	}
	clone := *p
	s.policies[key] = &clone
	return nil
}

func (s *InMemory) ListRetentionPolicies(_ context.Context, orgID id.OrgID) ([]*RetentionPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unavailable() {
		return nil, sentinel.ErrUnavailable
	}
	var out []*RetentionPolicy
	for key, p := range s.policies {
		if key.org == orgID {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResourceType < out[j].ResourceType })
	return out, nil
}

func (s *InMemory) ListActiveHolds(_ context.Context, orgID id.OrgID, desc resource.Descriptor) ([]*LegalHold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unavailable() {
		return nil, sentinel.ErrUnavailable
	}
	var out []*LegalHold
	for _, h := range s.holds {
		if h.IsActive() && h.Matches(orgID, desc) {
			clone := *h
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) CreateHold(_ context.Context, h *LegalHold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable() {
		return sentinel.ErrUnavailable
	}
	if _, exists := s.holds[h.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *h
	s.holds[h.ID] = &clone
	return nil
}

func (s *InMemory) FindHold(_ context.Context, holdID id.HoldID) (*LegalHold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unavailable() {
		return nil, sentinel.ErrUnavailable
	}
	h, ok := s.holds[holdID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *h
	return &clone, nil
}

func (s *InMemory) UpdateHold(_ context.Context, h *LegalHold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable() {
		return sentinel.ErrUnavailable
	}
	if _, exists := s.holds[h.ID]; !exists {
		return sentinel.ErrNotFound
	}
	clone := *h
	s.holds[h.ID] = &clone
	return nil
}

func (s *InMemory) ListHolds(_ context.Context, orgID id.OrgID) ([]*LegalHold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unavailable() {
		return nil, sentinel.ErrUnavailable
	}
	var out []*LegalHold
	for _, h := range s.holds {
		if h.OrgID == orgID {
			clone := *h
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
