package ledger

import (
	"context"

	id "sirenops/pkg/domain"
)

// Store is the append-only ledger contract. There is deliberately no update
// or delete method; rows are immutable for the lifetime of the system.
type Store interface {
	// Append persists an entry inside the ambient transaction. The guard
	// coordinator rolls back the whole attempt if this fails.
	Append(ctx context.Context, entry *Entry) error
	// List serves the read-only compliance reporting surface.
	List(ctx context.Context, orgID id.OrgID, filter Filter) (*Page, error)
}
