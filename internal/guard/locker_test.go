package guard

import (
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
)

func sharedKeys(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, k := range a {
		seen[k] = true
	}
	var shared []string
	for _, k := range b {
		if seen[k] {
			shared = append(shared, k)
		}
	}
	return shared
}

func TestLockKeys(t *testing.T) {
	orgID := id.OrgID(uuid.New())
	deleteDesc := resource.Descriptor{
		Type: resource.TypeDocument,
		ID:   "doc-1",
		Tags: []string{"case-17"},
	}

	t.Run("delete shares a key with a hold on the same resource", func(t *testing.T) {
		holdDesc := resource.Descriptor{Type: resource.TypeDocument, ID: "doc-1"}
		shared := sharedKeys(lockKeys(orgID, deleteDesc), lockKeys(orgID, holdDesc))
		require.NotEmpty(t, shared)
		assert.Contains(t, shared[0], "id:doc-1")
	})

	t.Run("delete of a tagged resource shares a key with a tag-scoped hold", func(t *testing.T) {
		holdDesc := resource.Descriptor{
			Type: resource.TypeDocument,
			ID:   "tag:case-17",
			Tags: []string{"case-17"},
		}
		shared := sharedKeys(lockKeys(orgID, deleteDesc), lockKeys(orgID, holdDesc))
		require.NotEmpty(t, shared)
		assert.Contains(t, shared[0], "tag:case-17")
	})

	t.Run("unrelated resources share no keys", func(t *testing.T) {
		other := resource.Descriptor{Type: resource.TypeDocument, ID: "doc-2", Tags: []string{"case-99"}}
		assert.Empty(t, sharedKeys(lockKeys(orgID, deleteDesc), lockKeys(orgID, other)))
	})

	t.Run("different orgs share no keys", func(t *testing.T) {
		otherOrg := id.OrgID(uuid.New())
		assert.Empty(t, sharedKeys(lockKeys(orgID, deleteDesc), lockKeys(otherOrg, deleteDesc)))
	})

	t.Run("keys come out sorted", func(t *testing.T) {
		keys := lockKeys(orgID, resource.Descriptor{
			Type: resource.TypeDocument,
			ID:   "doc-1",
			Tags: []string{"zz-matter", "aa-matter"},
		})
		require.Len(t, keys, 3)
		assert.True(t, sort.StringsAreSorted(keys))
	})
}
