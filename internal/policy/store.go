package policy

import (
	"context"

	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
)

//go:generate mockgen -source=store.go -destination=mocks/policy-mocks.go -package=mocks Store

// Store abstracts retention policy and legal hold persistence.
//
// Error contract: GetRetentionPolicy returns sentinel.ErrNotFound when no
// policy is configured for the type in that org, which the decision engine
// treats as "no retention restriction". Infrastructure failures are
// wrapped sentinel.ErrUnavailable, which the engine treats as fail-closed
// BLOCK, never as "no restriction".
type Store interface {
	GetRetentionPolicy(ctx context.Context, orgID id.OrgID, rt resource.Type) (*RetentionPolicy, error)
	// UpsertRetentionPolicy creates or replaces the policy for
	// (org, resource type), bumping its version.
	UpsertRetentionPolicy(ctx context.Context, p *RetentionPolicy) error
	ListRetentionPolicies(ctx context.Context, orgID id.OrgID) ([]*RetentionPolicy, error)

	// ListActiveHolds returns every ACTIVE hold matching the descriptor:
	// exact resource id match or any carried tag match.
	ListActiveHolds(ctx context.Context, orgID id.OrgID, desc resource.Descriptor) ([]*LegalHold, error)
	CreateHold(ctx context.Context, h *LegalHold) error
	FindHold(ctx context.Context, holdID id.HoldID) (*LegalHold, error)
	UpdateHold(ctx context.Context, h *LegalHold) error
	ListHolds(ctx context.Context, orgID id.OrgID) ([]*LegalHold, error)
}
