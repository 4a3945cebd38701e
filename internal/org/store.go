package org

import (
	"context"

	id "sirenops/pkg/domain"
)

// Store abstracts organization persistence. Implementations return
// sentinel.ErrNotFound for unknown ids.
type Store interface {
	Create(ctx context.Context, o *Organization) error
	FindByID(ctx context.Context, orgID id.OrgID) (*Organization, error)
	Update(ctx context.Context, o *Organization) error
}
