package rag

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saborlabs/saborai/ingestion"
	"github.com/saborlabs/saborai/store"
)

type searchDriver struct {
	searches []*store.SimilarChunkSearch
	hits     []*store.ScoredChunk
}

func (d *searchDriver) Migrate(context.Context) error { return nil }
func (d *searchDriver) Close() error                  { return nil }

func (d *searchDriver) UpsertMenuChunk(_ context.Context, chunk *store.MenuChunk) (*store.MenuChunk, error) {
	return chunk, nil
}

func (d *searchDriver) ListMenuChunks(context.Context, *store.FindMenuChunk) ([]*store.MenuChunk, error) {
	return nil, nil
}

func (d *searchDriver) SearchSimilarChunks(_ context.Context, search *store.SimilarChunkSearch) ([]*store.ScoredChunk, error) {
	d.searches = append(d.searches, search)
	return d.hits, nil
}

func (d *searchDriver) ListMenus(context.Context) ([]*store.Menu, error) { return nil, nil }
func (d *searchDriver) DeleteMenu(context.Context, string) error         { return nil }

type staticEmbedder struct {
	calls int
}

func (e *staticEmbedder) Embed(context.Context, string) ([]float32, error) {
	e.calls++
	return []float32{1, 0, 0}, nil
}

func (e *staticEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (e *staticEmbedder) Dimensions() int { return 3 }

func TestRetrieveUnscopedUsesK(t *testing.T) {
	driver := &searchDriver{hits: []*store.ScoredChunk{
		{Chunk: &store.MenuChunk{Content: "Feijoada", MenuName: "Bistro"}, Score: 0.9},
	}}
	r := NewRetriever(store.New(driver, nil), &staticEmbedder{}, Config{K: 6, KScoped: 50})

	passages, err := r.Retrieve(context.Background(), "pratos veganos", "")
	require.NoError(t, err)

	require.Len(t, passages, 1)
	assert.Equal(t, "Feijoada", passages[0].Content)
	assert.Equal(t, "Bistro", passages[0].MenuName)
	assert.InDelta(t, 0.9, passages[0].Score, 0.001)

	require.Len(t, driver.searches, 1)
	assert.Equal(t, 6, driver.searches[0].Limit)
	assert.Nil(t, driver.searches[0].MenuID)
}

func TestRetrieveScopedUsesMenuIDAndKScoped(t *testing.T) {
	driver := &searchDriver{}
	r := NewRetriever(store.New(driver, nil), &staticEmbedder{}, Config{K: 6, KScoped: 50})

	_, err := r.Retrieve(context.Background(), "pratos veganos", "Bistro")
	require.NoError(t, err)

	require.Len(t, driver.searches, 1)
	assert.Equal(t, 50, driver.searches[0].Limit)
	require.NotNil(t, driver.searches[0].MenuID)
	assert.Equal(t, ingestion.MenuID("Bistro"), *driver.searches[0].MenuID)
}

func TestRetrieveCachesRepeatedQueries(t *testing.T) {
	driver := &searchDriver{}
	embedder := &staticEmbedder{}
	r := NewRetriever(store.New(driver, nil), embedder, Config{
		K: 6, KScoped: 50, CacheCapacity: 16, CacheTTL: time.Minute,
	})

	_, err := r.Retrieve(context.Background(), "pratos veganos", "Bistro")
	require.NoError(t, err)
	_, err = r.Retrieve(context.Background(), "pratos veganos", "Bistro")
	require.NoError(t, err)

	assert.Equal(t, 1, embedder.calls)
	assert.Len(t, driver.searches, 1)
}

func TestRetrieveDistinctScopesAreDistinctCacheKeys(t *testing.T) {
	driver := &searchDriver{}
	r := NewRetriever(store.New(driver, nil), &staticEmbedder{}, Config{
		K: 6, KScoped: 50, CacheCapacity: 16, CacheTTL: time.Minute,
	})

	_, err := r.Retrieve(context.Background(), "pratos veganos", "Bistro")
	require.NoError(t, err)
	_, err = r.Retrieve(context.Background(), "pratos veganos", "")
	require.NoError(t, err)

	assert.Len(t, driver.searches, 2)
}
