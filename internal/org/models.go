// Package org holds the tenant organization aggregate. Every other entity
// carries an OrgID and every operation is scoped to exactly one org;
// cross-tenant access is never permitted.
package org

import (
	"time"

	id "sirenops/pkg/domain"
	dErrors "sirenops/pkg/domain-errors"
)

// LifecycleState enumerates the tenant lifecycle.
type LifecycleState string

const (
	StateActive     LifecycleState = "ACTIVE"
	StateSuspended  LifecycleState = "SUSPENDED"
	StateReadOnly   LifecycleState = "READ_ONLY"
	StateTerminated LifecycleState = "TERMINATED"
)

var validStates = map[LifecycleState]bool{
	StateActive:     true,
	StateSuspended:  true,
	StateReadOnly:   true,
	StateTerminated: true,
}

// Organization is the tenant aggregate root.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - LifecycleState is one of the four enumerated states
//   - A non-ACTIVE state forces the decision engine's conservative default:
//     destructive actions are blocked regardless of policy configuration
type Organization struct {
	ID        id.OrgID       `json:"id"`
	Name      string         `json:"name"`
	State     LifecycleState `json:"lifecycle_state"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IsActive reports whether the org accepts normal destructive mutations.
func (o *Organization) IsActive() bool {
	return o.State == StateActive
}

// Transition validates and applies a lifecycle state change.
// TERMINATED is terminal; purge workflows for terminated orgs run outside
// the default guard path.
func (o *Organization) Transition(to LifecycleState, now time.Time) error {
	if !validStates[to] {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown lifecycle state %q", to)
	}
	if o.State == StateTerminated {
		return dErrors.New(dErrors.CodeInvariantViolation, "terminated org cannot change state")
	}
	o.State = to
	o.UpdatedAt = now
	return nil
}

// New constructs an active organization.
func New(orgID id.OrgID, name string, now time.Time) (*Organization, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "org name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "org name must be 128 characters or less")
	}
	return &Organization{
		ID:        orgID,
		Name:      name,
		State:     StateActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
