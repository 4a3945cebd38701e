package org

import (
	"context"
	"sync"

	id "sirenops/pkg/domain"
	"sirenops/pkg/platform/sentinel"
)

// InMemory is a map-backed Store for tests and dev mode.
type InMemory struct {
	mu   sync.RWMutex
	orgs map[id.OrgID]*Organization
}

func NewInMemory() *InMemory {
	return &InMemory{orgs: make(map[id.OrgID]*Organization)}
}

func (s *InMemory) Create(_ context.Context, o *Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orgs[o.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *o
	s.orgs[o.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, orgID id.OrgID) (*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orgs[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *o
	return &clone, nil
}

func (s *InMemory) Update(_ context.Context, o *Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orgs[o.ID]; !exists {
		return sentinel.ErrNotFound
	}
	clone := *o
	s.orgs[o.ID] = &clone
	return nil
}
