package knowledge

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumbot/quorum/internal/log"
	"github.com/quorumbot/quorum/internal/testutil"
)

// hashEmbedder produces deterministic embeddings so similarity ordering
// is stable without calling a real embedding API. Texts sharing a
// leading keyword land close together.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 1536)
	for i, r := range text {
		vec[(i*31+int(r))%len(vec)] += 1
	}
	return vec, nil
}

func setupIntegrationStore(t *testing.T) (*Store, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	container, cleanup := testutil.SetupTestDB(t)
	store, err := New(&Config{
		DB:       container.Pool,
		Embedder: hashEmbedder{},
		Logger:   log.NewNop(),
	})
	require.NoError(t, err)
	return store, cleanup
}

func TestStore_AddAndSearch_Integration(t *testing.T) {
	store, cleanup := setupIntegrationStore(t)
	defer cleanup()

	ctx := context.Background()

	id, err := store.Add(ctx, Document{
		Content:    "solar panel installation notes",
		SourceType: SourceTypeDocument,
		Metadata:   map[string]string{"source": "test"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	results, err := store.Search(ctx, "solar panel installation notes", WithTopK(1))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].Document.ID)
	assert.InDelta(t, 1.0, results[0].Similarity, 0.001, "exact text should be a near-perfect match")
}

func TestStore_Add_Upsert_Integration(t *testing.T) {
	store, cleanup := setupIntegrationStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.Add(ctx, Document{ID: "doc-1", Content: "first version", SourceType: SourceTypeDocument})
	require.NoError(t, err)
	_, err = store.Add(ctx, Document{ID: "doc-1", Content: "second version", SourceType: SourceTypeDocument})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "upsert should not duplicate the document")

	results, err := store.Search(ctx, "second version", WithTopK(1))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "second version", results[0].Document.Content)
}

func TestStore_Search_Filters_Integration(t *testing.T) {
	store, cleanup := setupIntegrationStore(t)
	defer cleanup()

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Add(ctx, Document{
			Content:          fmt.Sprintf("member profile %d", i),
			SourceType:       SourceTypeMember,
			EntityID:         fmt.Sprintf("m-%d", i),
			EntityAttributes: map[string]string{"name": fmt.Sprintf("Member %d", i)},
		})
		require.NoError(t, err)
	}
	_, err := store.Add(ctx, Document{Content: "member profile guide", SourceType: SourceTypeDocument})
	require.NoError(t, err)

	results, err := store.Search(ctx, "member profile", WithSourceType(SourceTypeMember), WithTopK(10))
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, SourceTypeMember, r.Document.SourceType)
	}

	results, err = store.Search(ctx, "member profile", WithEntity("m-1"), WithTopK(10))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "m-1", results[0].Document.EntityID)
	assert.Equal(t, "Member 1", results[0].Document.EntityAttributes["name"])
}

func TestStore_DocumentsForEntity_Integration(t *testing.T) {
	store, cleanup := setupIntegrationStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.Add(ctx, Document{Content: "bio", SourceType: SourceTypeMember, EntityID: "m-9"})
	require.NoError(t, err)
	_, err = store.Add(ctx, Document{Content: "skills", SourceType: SourceTypeMember, EntityID: "m-9"})
	require.NoError(t, err)

	docs, err := store.DocumentsForEntity(ctx, "m-9")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}
