// Package ledger is the append-only audit trail. Every evaluated mutation
// attempt that commits, allowed or blocked, leaves exactly one entry here.
// The store interface exposes no update or delete: immutability is absent
// from the contract, not merely disabled.
package ledger

import (
	"encoding/json"
	"time"

	"sirenops/internal/decision"
	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
)

// Entry is one audited mutation attempt.
type Entry struct {
	ID             id.EntryID              `json:"id"`
	OrgID          id.OrgID                `json:"org_id"`
	ActorID        id.ActorID              `json:"actor_id"`
	Action         resource.Action         `json:"action"`
	ResourceType   resource.Type           `json:"resource_type"`
	ResourceID     string                  `json:"resource_id"`
	BeforeState    json.RawMessage         `json:"before_state,omitempty"`
	AfterState     json.RawMessage         `json:"after_state,omitempty"`
	Classification resource.Classification `json:"classification"`
	Decision       decision.Verdict        `json:"decision"`
	RuleID         string                  `json:"rule_id,omitempty"`
	Reason         string                  `json:"reason,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}

// Filter narrows the read-only compliance query surface.
type Filter struct {
	ResourceType resource.Type
	ResourceID   string
	ActorID      id.ActorID
	Action       resource.Action
	Decision     decision.Verdict
	Since        time.Time
	Until        time.Time
	// Cursor is the entry ID to resume after; empty starts from the newest.
	Cursor id.EntryID
	Limit  int
}

// Page is one page of audit entries ordered newest first.
type Page struct {
	Entries    []*Entry    `json:"entries"`
	NextCursor *id.EntryID `json:"next_cursor,omitempty"`
}
