package guard

import (
	"context"
	"fmt"
	"sort"

	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
	txcontext "sirenops/pkg/platform/tx"
)

// ResourceLocker serializes guarded attempts on one resource. The lock is
// acquired as the first step inside the transaction, before holds and
// retention are evaluated, so two racing destructive attempts cannot both
// observe ALLOW and a hold creation is strictly ordered against deletes on
// the resources it covers.
type ResourceLocker interface {
	Lock(ctx context.Context, orgID id.OrgID, desc resource.Descriptor) error
}

// AdvisoryLocker takes transaction-scoped postgres advisory locks, one per
// lock key of the attempt. Released automatically at commit or rollback.
type AdvisoryLocker struct{}

func NewAdvisoryLocker() *AdvisoryLocker {
	return &AdvisoryLocker{}
}

func (l *AdvisoryLocker) Lock(ctx context.Context, orgID id.OrgID, desc resource.Descriptor) error {
	tx, ok := txcontext.From(ctx)
	if !ok {
		return fmt.Errorf("advisory lock requires an ambient transaction")
	}
	for _, key := range lockKeys(orgID, desc) {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
			return fmt.Errorf("acquire resource lock: %w", err)
		}
	}
	return nil
}

// lockKeys derives the advisory lock keys for an attempt: one keyed on the
// resource id and one per tag the descriptor carries. A delete of a tagged
// resource and a hold scoped to that tag share the tag key, so they
// serialize the same way an id-scoped hold and a delete share the id key.
// Keys are sorted so attempts with overlapping sets acquire them in the
// same order and cannot deadlock.
func lockKeys(orgID id.OrgID, desc resource.Descriptor) []string {
	prefix := orgID.String() + "/" + string(desc.Type) + "/"
	keys := make([]string, 0, 1+len(desc.Tags))
	keys = append(keys, prefix+"id:"+desc.ID)
	for _, tag := range desc.Tags {
		keys = append(keys, prefix+"tag:"+tag)
	}
	sort.Strings(keys)
	return keys
}

// NoopLocker pairs with InMemoryTxManager, whose coarse mutex already
// serializes every attempt.
type NoopLocker struct{}

func NewNoopLocker() *NoopLocker {
	return &NoopLocker{}
}

func (l *NoopLocker) Lock(context.Context, id.OrgID, resource.Descriptor) error {
	return nil
}
