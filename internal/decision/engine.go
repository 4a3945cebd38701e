// Package decision evaluates a requested action against legal holds,
// retention policies, and org lifecycle, producing an explainable
// allow/block verdict. The engine is a pure function of its inputs plus the
// evaluation clock; it never mutates state.
package decision

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"sirenops/internal/org"
	"sirenops/internal/policy"
	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
	"sirenops/pkg/platform/sentinel"
)

// Verdict is the machine-readable outcome of an evaluation.
type Verdict string

const (
	VerdictAllow Verdict = "ALLOW"
	VerdictBlock Verdict = "BLOCK"
)

// Rule categories and outcomes composing the rule-id contract
// "{RESOURCE_TYPE}.{CATEGORY}.{OUTCOME}.v{N}".
const (
	categoryLegalHold    = "LEGAL_HOLD"
	categoryRetention    = "RETENTION"
	categoryPolicyStore  = "POLICY_STORE"
	categoryOrgLifecycle = "ORG_LIFECYCLE"

	outcomeBlock       = "BLOCK"
	outcomeBlockDelete = "BLOCK_DELETE"
	outcomeUnavailable = "UNAVAILABLE"
)

// RuleID renders a rule identifier for the given resource type. The string
// format is externally observable: the UI renders block reasons from it and
// compliance exports key on it.
func RuleID(rt resource.Type, category, outcome string, version int) string {
	return fmt.Sprintf("%s.%s.%s.v%d", rt.Namespace(), category, outcome, version)
}

// Packet is the structured verdict returned for every evaluated attempt.
// It is not persisted as its own entity; the coordinator materializes it
// into the audit entry and the domain event payload.
type Packet struct {
	Verdict        Verdict
	RuleID         string
	Reason         string
	BlockingHolds  []id.HoldID
	RetentionUntil *time.Time
	EvaluatedAt    time.Time
}

// Allowed reports whether the mutation may proceed.
func (p Packet) Allowed() bool { return p.Verdict == VerdictAllow }

// Input carries everything an evaluation depends on.
type Input struct {
	Org      *org.Organization
	Actor    id.ActorID
	Action   resource.Action
	Resource resource.Descriptor
	Now      time.Time
}

// Engine consults the policy store and applies the gating rules in order.
type Engine struct {
	policies policy.Store
}

func New(policies policy.Store) *Engine {
	return &Engine{policies: policies}
}

// Evaluate applies the rules in order, first match wins:
//
//  1. non-destructive actions pass immediately with a nil rule id
//  2. org lifecycle outside ACTIVE forces a conservative block
//  3. any ACTIVE matching hold blocks
//  4. an unelapsed retention period blocks
//  5. otherwise allow
//
// Policy store unavailability yields a BLOCK with the UNAVAILABLE rule id,
// never an allow: an outage must not read as "no restriction".
func (e *Engine) Evaluate(ctx context.Context, in Input) Packet {
	packet := Packet{Verdict: VerdictAllow, EvaluatedAt: in.Now}

	if !in.Action.IsDestructive() {
		return packet
	}

	// No loaded org reads the same as a non-ACTIVE one: block, never guess.
	if in.Org == nil {
		packet.Verdict = VerdictBlock
		packet.RuleID = RuleID(in.Resource.Type, categoryOrgLifecycle, outcomeBlock, 1)
		packet.Reason = "org not loaded; destructive actions are suspended"
		return packet
	}
	if !in.Org.IsActive() {
		packet.Verdict = VerdictBlock
		packet.RuleID = RuleID(in.Resource.Type, categoryOrgLifecycle, outcomeBlock, 1)
		packet.Reason = fmt.Sprintf("org %s is %s; destructive actions are suspended", in.Org.ID, in.Org.State)
		return packet
	}

	holds, err := e.policies.ListActiveHolds(ctx, in.Org.ID, in.Resource)
	if err != nil {
		return e.failClosed(in, err)
	}
	if len(holds) > 0 {
		packet.Verdict = VerdictBlock
		packet.RuleID = RuleID(in.Resource.Type, categoryLegalHold, outcomeBlock, 1)
		packet.Reason = holdReason(holds)
		for _, h := range holds {
			packet.BlockingHolds = append(packet.BlockingHolds, h.ID)
		}
		return packet
	}

	retention, err := e.policies.GetRetentionPolicy(ctx, in.Org.ID, in.Resource.Type)
	if errors.Is(err, sentinel.ErrNotFound) {
		// No configured policy means no retention restriction.
		return packet
	}
	if err != nil {
		return e.failClosed(in, err)
	}

	expiresAt := retention.ExpiresAt(in.Resource.CreatedAt)
	if in.Now.Before(expiresAt) {
		packet.Verdict = VerdictBlock
		packet.RuleID = RuleID(in.Resource.Type, categoryRetention, outcomeBlockDelete, 1)
		packet.Reason = fmt.Sprintf("retention period for %s %s has not elapsed; expires %s",
			in.Resource.Type, in.Resource.ID, expiresAt.UTC().Format(time.RFC3339))
		packet.RetentionUntil = &expiresAt
		return packet
	}

	return packet
}

// failClosed converts a policy store failure into a BLOCK verdict.
func (e *Engine) failClosed(in Input, cause error) Packet {
	return Packet{
		Verdict:     VerdictBlock,
		RuleID:      RuleID(in.Resource.Type, categoryPolicyStore, outcomeUnavailable, 1),
		Reason:      fmt.Sprintf("policy store unavailable while evaluating %s on %s %s: %v", in.Action, in.Resource.Type, in.Resource.ID, cause),
		EvaluatedAt: in.Now,
	}
}

func holdReason(holds []*policy.LegalHold) string {
	ids := make([]string, 0, len(holds))
	for _, h := range holds {
		ids = append(ids, h.ID.String())
	}
	sort.Strings(ids)
	if len(ids) == 1 {
		return fmt.Sprintf("blocked by active legal hold %s", ids[0])
	}
	return fmt.Sprintf("blocked by %d active legal holds: %s", len(ids), strings.Join(ids, ", "))
}
