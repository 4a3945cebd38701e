// Package admin manages retention policies and legal holds on behalf of
// compliance staff. Hold creation and release are themselves guarded
// mutations: they flow through the coordinator with hold_create /
// hold_release actions so the hold's own lifecycle is part of the audit
// trail. The package sits above both policy and guard; the policy package
// itself stays free of guard so the decision engine can read it.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sirenops/internal/guard"
	"sirenops/internal/policy"
	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
	dErrors "sirenops/pkg/domain-errors"
	"sirenops/pkg/platform/sentinel"
	"sirenops/pkg/requestcontext"
)

type Service struct {
	store  policy.Store
	guard  *guard.Service
	logger *slog.Logger
}

func NewService(store policy.Store, guardSvc *guard.Service, logger *slog.Logger) *Service {
	return &Service{store: store, guard: guardSvc, logger: logger}
}

// CreateHoldInput captures a hold creation request. Exactly one of
// ResourceID and Tag scopes the hold.
type CreateHoldInput struct {
	OrgID        id.OrgID
	Actor        id.ActorID
	ResourceType resource.Type
	ResourceID   string
	Tag          string
	Reason       string
}

// CreateHold creates an ACTIVE hold through the guard.
func (s *Service) CreateHold(ctx context.Context, in CreateHoldInput) (*policy.LegalHold, error) {
	now := requestcontext.Now(ctx)
	hold, err := policy.NewHold(id.HoldID(uuid.New()), in.OrgID, in.ResourceType, in.ResourceID, in.Tag, in.Reason, in.Actor, now)
	if err != nil {
		return nil, err
	}

	_, err = s.guard.Guard(ctx, guard.Request{
		OrgID:    in.OrgID,
		Actor:    in.Actor,
		Action:   resource.ActionHoldCreate,
		Resource: holdDescriptor(hold, now),
	}, func(txCtx context.Context) (json.RawMessage, error) {
		if err := s.store.CreateHold(txCtx, hold); err != nil {
			return nil, err
		}
		return json.Marshal(hold)
	})
	if err != nil {
		return nil, wrapHoldErr(err, "create hold")
	}
	return hold, nil
}

// ReleaseHold transitions a hold to RELEASED through the guard. Releasing
// an already-released hold is an audited no-op; RELEASED is terminal, so a
// new hold must be created to re-protect the resource.
func (s *Service) ReleaseHold(ctx context.Context, holdID id.HoldID, actor id.ActorID) (*policy.LegalHold, error) {
	hold, err := s.store.FindHold(ctx, holdID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "hold not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "hold lookup")
	}

	now := requestcontext.Now(ctx)
	_, err = s.guard.Guard(ctx, guard.Request{
		OrgID:    hold.OrgID,
		Actor:    actor,
		Action:   resource.ActionHoldRelease,
		Resource: holdDescriptor(hold, now),
	}, func(txCtx context.Context) (json.RawMessage, error) {
		if !hold.Release(actor, now) {
			// Already released elsewhere; record the no-op without writing.
			return json.Marshal(hold)
		}
		if err := s.store.UpdateHold(txCtx, hold); err != nil {
			return nil, err
		}
		return json.Marshal(hold)
	})
	if err != nil {
		return nil, wrapHoldErr(err, "release hold")
	}
	return hold, nil
}

// ListHolds returns every hold for the org, active and released.
func (s *Service) ListHolds(ctx context.Context, orgID id.OrgID) ([]*policy.LegalHold, error) {
	holds, err := s.store.ListHolds(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list holds")
	}
	return holds, nil
}

// SetRetentionPolicy creates or updates the retention policy for an org
// and resource type, bumping the row version.
func (s *Service) SetRetentionPolicy(ctx context.Context, orgID id.OrgID, rt resource.Type, duration time.Duration, policyType policy.PolicyType) (*policy.RetentionPolicy, error) {
	p := &policy.RetentionPolicy{
		ID:           id.PolicyID(uuid.New()),
		OrgID:        orgID,
		ResourceType: rt,
		Duration:     duration,
		Type:         policyType,
		UpdatedAt:    requestcontext.Now(ctx),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpsertRetentionPolicy(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "upsert retention policy")
	}
	return p, nil
}

// ListRetentionPolicies returns the org's configured policies.
func (s *Service) ListRetentionPolicies(ctx context.Context, orgID id.OrgID) ([]*policy.RetentionPolicy, error) {
	policies, err := s.store.ListRetentionPolicies(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list retention policies")
	}
	return policies, nil
}

// holdDescriptor addresses the resource the hold covers, so the guard's
// lock serializes hold creation against destructive attempts on that same
// resource. Tag-scoped holds carry the tag; the locker keys on tags too,
// which orders them against deletes of tagged resources. The hold's own id
// travels in the after-state snapshot, not the descriptor.
func holdDescriptor(h *policy.LegalHold, now time.Time) resource.Descriptor {
	desc := resource.Descriptor{Type: h.ResourceType, CreatedAt: now}
	if h.ResourceID != "" {
		desc.ID = h.ResourceID
		return desc
	}
	desc.ID = "tag:" + h.Tag
	desc.Tags = []string{h.Tag}
	return desc
}

func wrapHoldErr(err error, op string) error {
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, "hold already exists")
	}
	if _, blocked := guard.AsBlocked(err); blocked {
		return err
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, op)
}
