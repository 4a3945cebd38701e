//go:build integration

package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"sirenops/internal/decision"
	"sirenops/internal/ledger"
	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
	"sirenops/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *ledger.Postgres
	orgID    id.OrgID
	actor    id.ActorID
	base     time.Time
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = ledger.NewPostgres(s.postgres.DB)
}

func (s *PostgresLedgerSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_log"))
	s.orgID = id.OrgID(uuid.New())
	s.actor = id.ActorID(uuid.New())
	s.base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *PostgresLedgerSuite) append(i int, verdict decision.Verdict) *ledger.Entry {
	entry := &ledger.Entry{
		ID:             id.EntryID(uuid.New()),
		OrgID:          s.orgID,
		ActorID:        s.actor,
		Action:         resource.ActionDelete,
		ResourceType:   resource.TypeDocument,
		ResourceID:     "doc-1",
		AfterState:     []byte(`{"deleted":true}`),
		Classification: resource.ClassificationNonPHI,
		Decision:       verdict,
		Reason:         "test entry",
		CreatedAt:      s.base.Add(time.Duration(i) * time.Minute),
	}
	if verdict == decision.VerdictBlock {
		entry.RuleID = "DOCUMENTS.LEGAL_HOLD.BLOCK.v1"
	}
	s.Require().NoError(s.store.Append(context.Background(), entry))
	return entry
}

func (s *PostgresLedgerSuite) TestListNewestFirst() {
	ctx := context.Background()
	first := s.append(0, decision.VerdictAllow)
	second := s.append(1, decision.VerdictBlock)

	page, err := s.store.List(ctx, s.orgID, ledger.Filter{})
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 2)
	s.Equal(second.ID, page.Entries[0].ID)
	s.Equal(first.ID, page.Entries[1].ID)
	s.Equal("DOCUMENTS.LEGAL_HOLD.BLOCK.v1", page.Entries[0].RuleID)
	s.JSONEq(`{"deleted":true}`, string(page.Entries[0].AfterState))
}

func (s *PostgresLedgerSuite) TestListFiltersByDecision() {
	ctx := context.Background()
	s.append(0, decision.VerdictAllow)
	blocked := s.append(1, decision.VerdictBlock)

	page, err := s.store.List(ctx, s.orgID, ledger.Filter{Decision: decision.VerdictBlock})
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 1)
	s.Equal(blocked.ID, page.Entries[0].ID)
}

func (s *PostgresLedgerSuite) TestCursorPagination() {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.append(i, decision.VerdictAllow)
	}

	seen := map[id.EntryID]bool{}
	var cursor id.EntryID
	for {
		page, err := s.store.List(ctx, s.orgID, ledger.Filter{Limit: 2, Cursor: cursor})
		s.Require().NoError(err)
		for _, e := range page.Entries {
			s.False(seen[e.ID], "entry %s returned twice", e.ID)
			seen[e.ID] = true
		}
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}
	s.Len(seen, 5)
}

// =============================================================================
// Immutability
// =============================================================================

// The append-only guarantee is enforced in the schema itself, not just by
// the narrow store interface, so even out-of-band SQL cannot rewrite history.
func (s *PostgresLedgerSuite) TestAuditLogRejectsRewrites() {
	ctx := context.Background()
	entry := s.append(0, decision.VerdictAllow)

	_, err := s.postgres.DB.ExecContext(ctx,
		"UPDATE audit_log SET reason = 'tampered' WHERE id = $1", uuid.UUID(entry.ID))
	s.Require().Error(err)
	s.Contains(err.Error(), "append-only")

	_, err = s.postgres.DB.ExecContext(ctx,
		"DELETE FROM audit_log WHERE id = $1", uuid.UUID(entry.ID))
	s.Require().Error(err)
	s.Contains(err.Error(), "append-only")
}
