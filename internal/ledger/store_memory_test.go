package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sirenops/internal/decision"
	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
)

func seedEntries(t *testing.T, store *InMemory, orgID id.OrgID, n int) []*Entry {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	actor := id.ActorID(uuid.New())
	entries := make([]*Entry, 0, n)
	for i := 0; i < n; i++ {
		e := &Entry{
			ID:             id.EntryID(uuid.New()),
			OrgID:          orgID,
			ActorID:        actor,
			Action:         resource.ActionDelete,
			ResourceType:   resource.TypeDocument,
			ResourceID:     fmt.Sprintf("doc-%d", i),
			Classification: resource.ClassificationNonPHI,
			Decision:       decision.VerdictAllow,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.Append(context.Background(), e))
		entries = append(entries, e)
	}
	return entries
}

func TestListNewestFirst(t *testing.T) {
	store := NewInMemory()
	orgID := id.OrgID(uuid.New())
	seeded := seedEntries(t, store, orgID, 5)

	page, err := store.List(context.Background(), orgID, Filter{})
	require.NoError(t, err)
	require.Len(t, page.Entries, 5)
	assert.Nil(t, page.NextCursor)
	assert.Equal(t, seeded[4].ID, page.Entries[0].ID)
	assert.Equal(t, seeded[0].ID, page.Entries[4].ID)
}

func TestListScopedToOrg(t *testing.T) {
	store := NewInMemory()
	orgA := id.OrgID(uuid.New())
	orgB := id.OrgID(uuid.New())
	seedEntries(t, store, orgA, 3)
	seedEntries(t, store, orgB, 2)

	page, err := store.List(context.Background(), orgA, Filter{})
	require.NoError(t, err)
	assert.Len(t, page.Entries, 3)
}

func TestListFilters(t *testing.T) {
	store := NewInMemory()
	orgID := id.OrgID(uuid.New())
	actor := id.ActorID(uuid.New())
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	blocked := &Entry{
		ID: id.EntryID(uuid.New()), OrgID: orgID, ActorID: actor,
		Action: resource.ActionDelete, ResourceType: resource.TypeEmail, ResourceID: "thread-9",
		Classification: resource.ClassificationNonPHI,
		Decision:       decision.VerdictBlock, RuleID: "EMAIL.LEGAL_HOLD.BLOCK.v1",
		CreatedAt: now,
	}
	allowed := &Entry{
		ID: id.EntryID(uuid.New()), OrgID: orgID, ActorID: id.ActorID(uuid.New()),
		Action: resource.ActionRedact, ResourceType: resource.TypeDocument, ResourceID: "doc-1",
		Classification: resource.ClassificationNonPHI,
		Decision:       decision.VerdictAllow,
		CreatedAt:      now.Add(time.Hour),
	}
	require.NoError(t, store.Append(context.Background(), blocked))
	require.NoError(t, store.Append(context.Background(), allowed))

	cases := []struct {
		name   string
		filter Filter
		want   id.EntryID
	}{
		{"by decision", Filter{Decision: decision.VerdictBlock}, blocked.ID},
		{"by resource type", Filter{ResourceType: resource.TypeDocument}, allowed.ID},
		{"by resource id", Filter{ResourceID: "thread-9"}, blocked.ID},
		{"by actor", Filter{ActorID: actor}, blocked.ID},
		{"by action", Filter{Action: resource.ActionRedact}, allowed.ID},
		{"by since", Filter{Since: now.Add(time.Minute)}, allowed.ID},
		{"by until", Filter{Until: now.Add(time.Minute)}, blocked.ID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := store.List(context.Background(), orgID, tc.filter)
			require.NoError(t, err)
			require.Len(t, page.Entries, 1)
			assert.Equal(t, tc.want, page.Entries[0].ID)
		})
	}
}

func TestListCursorPagination(t *testing.T) {
	store := NewInMemory()
	orgID := id.OrgID(uuid.New())
	seedEntries(t, store, orgID, 7)

	var seen []id.EntryID
	filter := Filter{Limit: 3}
	for {
		page, err := store.List(context.Background(), orgID, filter)
		require.NoError(t, err)
		for _, e := range page.Entries {
			seen = append(seen, e.ID)
		}
		if page.NextCursor == nil {
			break
		}
		filter.Cursor = *page.NextCursor
	}

	assert.Len(t, seen, 7)
	unique := make(map[id.EntryID]bool)
	for _, entryID := range seen {
		assert.False(t, unique[entryID], "no entry repeats across pages")
		unique[entryID] = true
	}
}
