package guard

import (
	"errors"
	"fmt"
	"strings"

	id "sirenops/pkg/domain"
)

// BlockKind classifies why a guarded mutation was denied.
type BlockKind string

const (
	BlockedByLegalHold     BlockKind = "blocked_by_legal_hold"
	BlockedByRetention     BlockKind = "blocked_by_retention"
	BlockedByOrgLifecycle  BlockKind = "blocked_by_org_lifecycle"
	PolicyStoreUnavailable BlockKind = "policy_store_unavailable"
)

// BlockedError is the structured denial returned to callers. Rule id and
// reason are intended to reach the end user verbatim; blocks are never
// swallowed or recovered locally.
type BlockedError struct {
	Kind    BlockKind
	RuleID  string
	Reason  string
	HoldIDs []id.HoldID
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("write blocked [%s]: %s", e.RuleID, e.Reason)
}

// Retryable reports whether the caller may retry without operator action.
// Only a policy store outage is transient; hold and retention blocks clear
// through hold release or retention expiry, not retries.
func (e *BlockedError) Retryable() bool {
	return e.Kind == PolicyStoreUnavailable
}

// AsBlocked unwraps a BlockedError from an error chain.
func AsBlocked(err error) (*BlockedError, bool) {
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		return blocked, true
	}
	return nil, false
}

// kindForRule maps a rule id back to the block taxonomy. Rule ids follow
// "{RESOURCE_TYPE}.{CATEGORY}.{OUTCOME}.v{N}".
func kindForRule(ruleID string) BlockKind {
	parts := strings.Split(ruleID, ".")
	if len(parts) < 2 {
		return PolicyStoreUnavailable
	}
	switch parts[1] {
	case "LEGAL_HOLD":
		return BlockedByLegalHold
	case "RETENTION":
		return BlockedByRetention
	case "ORG_LIFECYCLE":
		return BlockedByOrgLifecycle
	default:
		return PolicyStoreUnavailable
	}
}
