// Package policy holds retention policies and legal holds, the two inputs
// the decision engine weighs before a destructive mutation is allowed.
package policy

import (
	"time"

	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
	dErrors "sirenops/pkg/domain-errors"
)

// PolicyType distinguishes how a retention period is anchored.
type PolicyType string

const (
	// PolicyFixedDuration anchors retention at resource creation time.
	PolicyFixedDuration PolicyType = "fixed_duration"
	// PolicyEventAnchored anchors retention at a domain event (e.g. claim
	// closure); the anchoring event supplies the effective creation time.
	PolicyEventAnchored PolicyType = "event_anchored"
)

// RetentionPolicy states the minimum time a resource type must be kept
// before destructive actions are permitted.
//
// Rows are versioned and read fresh per transaction; an administrator
// update never retroactively shortens a period already relied upon by an
// in-flight evaluation, because that evaluation reads its own consistent
// snapshot.
type RetentionPolicy struct {
	ID           id.PolicyID   `json:"id"`
	OrgID        id.OrgID      `json:"org_id"`
	ResourceType resource.Type `json:"resource_type"`
	Duration     time.Duration `json:"duration"`
	Type         PolicyType    `json:"policy_type"`
	Version      int           `json:"version"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ExpiresAt computes when retention lapses for a resource created at the
// given time.
func (p *RetentionPolicy) ExpiresAt(createdAt time.Time) time.Time {
	return createdAt.Add(p.Duration)
}

// Validate enforces the policy invariants before persistence.
func (p *RetentionPolicy) Validate() error {
	if !resource.Registered(p.ResourceType) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown resource type %q", p.ResourceType)
	}
	if p.Duration <= 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "retention duration must be positive")
	}
	if p.Type != PolicyFixedDuration && p.Type != PolicyEventAnchored {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown policy type %q", p.Type)
	}
	return nil
}

// HoldStatus enumerates the legal hold lifecycle. RELEASED is terminal:
// re-protecting a resource requires a new hold.
type HoldStatus string

const (
	HoldActive   HoldStatus = "ACTIVE"
	HoldReleased HoldStatus = "RELEASED"
)

// LegalHold suspends normal retention/deletion rules for matching resources
// pending litigation or investigation.
//
// Scope semantics: ResourceID pins the hold to one resource; Tag pins it to
// a matter/case scope that any number of resources can carry. Exactly one
// of the two is set.
type LegalHold struct {
	ID           id.HoldID     `json:"id"`
	OrgID        id.OrgID      `json:"org_id"`
	ResourceType resource.Type `json:"resource_type"`
	ResourceID   string        `json:"resource_id,omitempty"`
	Tag          string        `json:"tag,omitempty"`
	Reason       string        `json:"reason"`
	Status       HoldStatus    `json:"status"`
	CreatedBy    id.ActorID    `json:"created_by"`
	CreatedAt    time.Time     `json:"created_at"`
	ReleasedBy   *id.ActorID   `json:"released_by,omitempty"`
	ReleasedAt   *time.Time    `json:"released_at,omitempty"`
}

// IsActive reports whether the hold still gates mutations.
func (h *LegalHold) IsActive() bool {
	return h.Status == HoldActive
}

// Matches reports whether the hold applies to the described resource:
// same org and type, and either an exact id match or any carried tag match.
func (h *LegalHold) Matches(orgID id.OrgID, desc resource.Descriptor) bool {
	if h.OrgID != orgID || h.ResourceType != desc.Type {
		return false
	}
	if h.ResourceID != "" && h.ResourceID == desc.ID {
		return true
	}
	if h.Tag != "" {
		for _, tag := range desc.Tags {
			if tag == h.Tag {
				return true
			}
		}
	}
	return false
}

// Release transitions the hold to RELEASED. Releasing an already-released
// hold is a no-op so release is idempotent.
func (h *LegalHold) Release(by id.ActorID, now time.Time) bool {
	if h.Status == HoldReleased {
		return false
	}
	h.Status = HoldReleased
	h.ReleasedBy = &by
	h.ReleasedAt = &now
	return true
}

// NewHold constructs an active legal hold after validating its scope.
func NewHold(holdID id.HoldID, orgID id.OrgID, rt resource.Type, resourceID, tag, reason string, by id.ActorID, now time.Time) (*LegalHold, error) {
	if !resource.Registered(rt) {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown resource type %q", rt)
	}
	if (resourceID == "") == (tag == "") {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "hold scope requires exactly one of resource_id or tag")
	}
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "hold reason cannot be empty")
	}
	return &LegalHold{
		ID:           holdID,
		OrgID:        orgID,
		ResourceType: rt,
		ResourceID:   resourceID,
		Tag:          tag,
		Reason:       reason,
		Status:       HoldActive,
		CreatedBy:    by,
		CreatedAt:    now,
	}, nil
}
