package decision

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sirenops/internal/org"
	"sirenops/internal/policy"
	"sirenops/internal/policy/mocks"
	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
	"sirenops/pkg/platform/sentinel"
)

// These tests pin the engine's store-call contract: which lookups happen,
// with which arguments, and in which order. The suite above covers verdict
// content against the in-memory store; here the store itself is the subject.

func mockInput(t *testing.T, orgID id.OrgID, now time.Time) Input {
	t.Helper()
	o, err := org.New(orgID, "Mercy County EMS", now)
	require.NoError(t, err)
	return Input{
		Org:      o,
		Actor:    id.ActorID(uuid.New()),
		Action:   resource.ActionDelete,
		Resource: resource.Descriptor{Type: resource.TypeDocument, ID: "doc-1", CreatedAt: now.Add(-24 * time.Hour)},
		Now:      now,
	}
}

func TestEngine_ConsultsHoldsBeforeRetention(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	orgID := id.OrgID(uuid.New())
	in := mockInput(t, orgID, now)

	gomock.InOrder(
		store.EXPECT().ListActiveHolds(gomock.Any(), orgID, in.Resource).Return(nil, nil),
		store.EXPECT().GetRetentionPolicy(gomock.Any(), orgID, resource.TypeDocument).Return(nil, sentinel.ErrNotFound),
	)

	packet := New(store).Evaluate(context.Background(), in)
	assert.True(t, packet.Allowed())
}

func TestEngine_MatchingHoldSkipsRetentionLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	orgID := id.OrgID(uuid.New())
	in := mockInput(t, orgID, now)

	hold, err := policy.NewHold(id.HoldID(uuid.New()), orgID, resource.TypeDocument,
		"doc-1", "", "litigation case 2024-17", in.Actor, now.Add(-time.Hour))
	require.NoError(t, err)

	// No GetRetentionPolicy expectation: a hold match must end evaluation.
	store.EXPECT().ListActiveHolds(gomock.Any(), orgID, in.Resource).Return([]*policy.LegalHold{hold}, nil)

	packet := New(store).Evaluate(context.Background(), in)
	assert.Equal(t, VerdictBlock, packet.Verdict)
	assert.Equal(t, []id.HoldID{hold.ID}, packet.BlockingHolds)
}

func TestEngine_NonDestructiveActionNeverTouchesStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	in := mockInput(t, id.OrgID(uuid.New()), time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	in.Action = resource.ActionRead

	packet := New(store).Evaluate(context.Background(), in)
	assert.True(t, packet.Allowed())
}

func TestEngine_RetentionLookupFailureFailsClosed(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	orgID := id.OrgID(uuid.New())
	in := mockInput(t, orgID, now)

	store.EXPECT().ListActiveHolds(gomock.Any(), orgID, in.Resource).Return(nil, nil)
	store.EXPECT().GetRetentionPolicy(gomock.Any(), orgID, resource.TypeDocument).Return(nil, sentinel.ErrUnavailable)

	packet := New(store).Evaluate(context.Background(), in)
	assert.Equal(t, VerdictBlock, packet.Verdict)
	assert.Equal(t, "DOCUMENTS.POLICY_STORE.UNAVAILABLE.v1", packet.RuleID)
}
