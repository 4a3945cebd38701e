package decision

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"sirenops/internal/org"
	"sirenops/internal/policy"
	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
)

// =============================================================================
// Decision Engine Test Suite
// =============================================================================
// The engine's rule ordering and fail-closed behavior are the heart of the
// compliance contract, so they are exercised here in isolation against the
// in-memory policy store.

type EngineSuite struct {
	suite.Suite
	store  *policy.InMemory
	engine *Engine
	orgID  id.OrgID
	actor  id.ActorID
	now    time.Time
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.store = policy.NewInMemory()
	s.engine = New(s.store)
	s.orgID = id.OrgID(uuid.New())
	s.actor = id.ActorID(uuid.New())
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *EngineSuite) activeOrg() *org.Organization {
	o, err := org.New(s.orgID, "Mercy County EMS", s.now)
	s.Require().NoError(err)
	return o
}

func (s *EngineSuite) input(action resource.Action, desc resource.Descriptor) Input {
	return Input{
		Org:      s.activeOrg(),
		Actor:    s.actor,
		Action:   action,
		Resource: desc,
		Now:      s.now,
	}
}

func (s *EngineSuite) addHold(rt resource.Type, resourceID, tag string) *policy.LegalHold {
	h, err := policy.NewHold(id.HoldID(uuid.New()), s.orgID, rt, resourceID, tag,
		"litigation case 2024-17", s.actor, s.now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateHold(context.Background(), h))
	return h
}

func (s *EngineSuite) addRetention(rt resource.Type, d time.Duration) {
	p := &policy.RetentionPolicy{
		ID:           id.PolicyID(uuid.New()),
		OrgID:        s.orgID,
		ResourceType: rt,
		Duration:     d,
		Type:         policy.PolicyFixedDuration,
		UpdatedAt:    s.now,
	}
	s.Require().NoError(s.store.UpsertRetentionPolicy(context.Background(), p))
}

// =============================================================================
// Rule Ordering
// =============================================================================

func (s *EngineSuite) TestNonDestructiveActionsPass() {
	// Even with a hold in place, reads and hold lifecycle actions never block.
	s.addHold(resource.TypeDocument, "doc-1", "")
	for _, action := range []resource.Action{
		resource.ActionRead, resource.ActionList, resource.ActionUpdate,
		resource.ActionHoldCreate, resource.ActionHoldRelease,
	} {
		packet := s.engine.Evaluate(context.Background(),
			s.input(action, resource.Descriptor{Type: resource.TypeDocument, ID: "doc-1", CreatedAt: s.now}))
		s.True(packet.Allowed(), "action %s should pass", action)
		s.Empty(packet.RuleID, "pass-through verdicts carry no rule id")
	}
}

func (s *EngineSuite) TestOrgLifecycleBlocksBeforePolicyLookup() {
	in := s.input(resource.ActionDelete,
		resource.Descriptor{Type: resource.TypeDocument, ID: "doc-1", CreatedAt: s.now})
	s.Require().NoError(in.Org.Transition(org.StateSuspended, s.now))

	// The store is failing, but lifecycle gating short-circuits before any
	// policy lookup, so the verdict is ORG_LIFECYCLE, not UNAVAILABLE.
	s.store.SetFailing(true)

	packet := s.engine.Evaluate(context.Background(), in)
	s.Equal(VerdictBlock, packet.Verdict)
	s.Equal("DOCUMENTS.ORG_LIFECYCLE.BLOCK.v1", packet.RuleID)
	s.Contains(packet.Reason, "SUSPENDED")
}

func (s *EngineSuite) TestMissingOrgBlocksDestructiveActions() {
	in := s.input(resource.ActionDelete,
		resource.Descriptor{Type: resource.TypeDocument, ID: "doc-1", CreatedAt: s.now})
	in.Org = nil

	packet := s.engine.Evaluate(context.Background(), in)
	s.Equal(VerdictBlock, packet.Verdict)
	s.Equal("DOCUMENTS.ORG_LIFECYCLE.BLOCK.v1", packet.RuleID)
	s.Contains(packet.Reason, "not loaded")
}

func (s *EngineSuite) TestHoldBlocksByExactResourceID() {
	h := s.addHold(resource.TypeEmail, "thread-9", "")

	packet := s.engine.Evaluate(context.Background(), s.input(resource.ActionDelete,
		resource.Descriptor{Type: resource.TypeEmail, ID: "thread-9", CreatedAt: s.now}))

	s.Equal(VerdictBlock, packet.Verdict)
	s.Equal("EMAIL.LEGAL_HOLD.BLOCK.v1", packet.RuleID)
	s.Contains(packet.Reason, h.ID.String())
	s.Equal([]id.HoldID{h.ID}, packet.BlockingHolds)
}

func (s *EngineSuite) TestHoldBlocksByTag() {
	h := s.addHold(resource.TypeDocument, "", "case-2024-17")

	packet := s.engine.Evaluate(context.Background(), s.input(resource.ActionPurge,
		resource.Descriptor{Type: resource.TypeDocument, ID: "doc-3", Tags: []string{"case-2024-17"}, CreatedAt: s.now}))

	s.Equal(VerdictBlock, packet.Verdict)
	s.Equal("DOCUMENTS.LEGAL_HOLD.BLOCK.v1", packet.RuleID)
	s.Equal([]id.HoldID{h.ID}, packet.BlockingHolds)
}

func (s *EngineSuite) TestHoldBlockNamesEveryBlockingHold() {
	h1 := s.addHold(resource.TypeDocument, "doc-1", "")
	h2 := s.addHold(resource.TypeDocument, "", "case-a")

	packet := s.engine.Evaluate(context.Background(), s.input(resource.ActionDelete,
		resource.Descriptor{Type: resource.TypeDocument, ID: "doc-1", Tags: []string{"case-a"}, CreatedAt: s.now}))

	s.Equal(VerdictBlock, packet.Verdict)
	s.Len(packet.BlockingHolds, 2)
	s.Contains(packet.Reason, h1.ID.String())
	s.Contains(packet.Reason, h2.ID.String())
}

func (s *EngineSuite) TestReleasedHoldDoesNotBlock() {
	h := s.addHold(resource.TypeEmail, "thread-9", "")
	s.True(h.Release(s.actor, s.now))
	s.Require().NoError(s.store.UpdateHold(context.Background(), h))

	packet := s.engine.Evaluate(context.Background(), s.input(resource.ActionDelete,
		resource.Descriptor{Type: resource.TypeEmail, ID: "thread-9", CreatedAt: s.now.Add(-48 * time.Hour)}))
	s.True(packet.Allowed())
}

// =============================================================================
// Retention
// =============================================================================

func (s *EngineSuite) TestRetentionBlocksUnelapsedPeriod() {
	// Seven-year document retention, document four years old.
	s.addRetention(resource.TypeDocument, 7*365*24*time.Hour)
	createdAt := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	packet := s.engine.Evaluate(context.Background(), s.input(resource.ActionDelete,
		resource.Descriptor{Type: resource.TypeDocument, ID: "doc-42", CreatedAt: createdAt}))

	s.Equal(VerdictBlock, packet.Verdict)
	s.Equal("DOCUMENTS.RETENTION.BLOCK_DELETE.v1", packet.RuleID)
	s.Require().NotNil(packet.RetentionUntil)
	s.Equal(createdAt.Add(7*365*24*time.Hour), *packet.RetentionUntil)
	s.Contains(packet.Reason, packet.RetentionUntil.UTC().Format(time.RFC3339))
}

func (s *EngineSuite) TestRetentionAllowsElapsedPeriod() {
	s.addRetention(resource.TypeEmail, 24*time.Hour)

	packet := s.engine.Evaluate(context.Background(), s.input(resource.ActionDelete,
		resource.Descriptor{Type: resource.TypeEmail, ID: "thread-1", CreatedAt: s.now.Add(-48 * time.Hour)}))
	s.True(packet.Allowed())
}

func (s *EngineSuite) TestNoPolicyMeansNoRestriction() {
	packet := s.engine.Evaluate(context.Background(), s.input(resource.ActionDelete,
		resource.Descriptor{Type: resource.TypeBilling, ID: "inv-77", CreatedAt: s.now}))
	s.True(packet.Allowed())
}

func (s *EngineSuite) TestHoldOutranksRetention() {
	s.addRetention(resource.TypeDocument, 7*365*24*time.Hour)
	s.addHold(resource.TypeDocument, "doc-1", "")

	packet := s.engine.Evaluate(context.Background(), s.input(resource.ActionDelete,
		resource.Descriptor{Type: resource.TypeDocument, ID: "doc-1", CreatedAt: s.now}))
	s.Equal("DOCUMENTS.LEGAL_HOLD.BLOCK.v1", packet.RuleID)
}

// =============================================================================
// Fail-Closed
// =============================================================================

func (s *EngineSuite) TestPolicyStoreOutageBlocksNotAllows() {
	s.store.SetFailing(true)

	packet := s.engine.Evaluate(context.Background(), s.input(resource.ActionDelete,
		resource.Descriptor{Type: resource.TypeDocument, ID: "doc-1", CreatedAt: s.now}))

	s.Equal(VerdictBlock, packet.Verdict)
	s.Equal("DOCUMENTS.POLICY_STORE.UNAVAILABLE.v1", packet.RuleID)
	s.Contains(packet.Reason, "policy store unavailable")
}

// =============================================================================
// Rule-ID Contract
// =============================================================================

func (s *EngineSuite) TestRuleIDNamespaces() {
	// Namespaces come from the registry, not mechanical pluralization.
	cases := map[resource.Type]string{
		resource.TypeDocument:      "DOCUMENTS.LEGAL_HOLD.BLOCK.v1",
		resource.TypeEmail:         "EMAIL.LEGAL_HOLD.BLOCK.v1",
		resource.TypeBilling:       "BILLING.LEGAL_HOLD.BLOCK.v1",
		resource.TypeCommunication: "COMMUNICATIONS.LEGAL_HOLD.BLOCK.v1",
		resource.TypeClinical:      "CLINICAL.LEGAL_HOLD.BLOCK.v1",
	}
	for rt, want := range cases {
		s.Equal(want, RuleID(rt, "LEGAL_HOLD", "BLOCK", 1))
	}
}
