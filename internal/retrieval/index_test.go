package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inkwell-labs/draftd/internal/chunk"
	"github.com/inkwell-labs/draftd/internal/provider"
)

func TestNewIndex(t *testing.T) {
	t.Run("requires an embedder", func(t *testing.T) {
		_, err := NewIndex(nil, zap.NewNop())
		assert.ErrorIs(t, err, provider.ErrUnavailable)
	})

	t.Run("creates an empty index", func(t *testing.T) {
		idx, err := NewIndex(&fakeEmbedder{}, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 0, idx.Len())
	})
}

func TestIndexAddAndQuery(t *testing.T) {
	emb := &fakeEmbedder{vecs: map[string][]float32{
		"near the query text":     {1, 0, 0},
		"orthogonal content here": {0, 1, 0},
	}}
	idx, err := NewIndex(emb, zap.NewNop())
	require.NoError(t, err)

	err = idx.Add(context.Background(), []chunk.Chunk{
		{ID: "a", ProjectID: "proj-1", Content: "near the query text", Index: 0, Total: 1, Importance: 5},
		{ID: "b", ProjectID: "proj-1", Content: "orthogonal content here", Index: 0, Total: 1, Importance: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())

	hits, err := idx.Query(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ChunkID)
	assert.Equal(t, 0, hits[0].Rank)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestIndexQueryBounds(t *testing.T) {
	emb := &fakeEmbedder{}
	idx, err := NewIndex(emb, zap.NewNop())
	require.NoError(t, err)

	t.Run("empty index yields no hits", func(t *testing.T) {
		hits, err := idx.Query(context.Background(), []float32{1, 0, 0}, 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("k larger than the index is clamped", func(t *testing.T) {
		err := idx.Add(context.Background(), []chunk.Chunk{
			{ID: "a", ProjectID: "proj-1", Content: "only entry", Index: 0, Total: 1, Importance: 5},
		})
		require.NoError(t, err)

		hits, err := idx.Query(context.Background(), []float32{1, 0, 0}, 50)
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})
}

func TestIndexAddEmbedFailure(t *testing.T) {
	emb := &fakeEmbedder{}
	idx, err := NewIndex(emb, zap.NewNop())
	require.NoError(t, err)

	emb.err = errors.New("rate limit exceeded")
	err = idx.Add(context.Background(), []chunk.Chunk{
		{ID: "a", ProjectID: "proj-1", Content: "text", Index: 0, Total: 1, Importance: 5},
	})
	require.Error(t, err)
	assert.True(t, provider.IsRateLimited(err))
	assert.Equal(t, 0, idx.Len())
}

func TestIndexRemoveProject(t *testing.T) {
	emb := &fakeEmbedder{}
	idx, err := NewIndex(emb, zap.NewNop())
	require.NoError(t, err)

	err = idx.Add(context.Background(), []chunk.Chunk{
		{ID: "a", ProjectID: "proj-1", Content: "first text", Index: 0, Total: 1, Importance: 5},
		{ID: "b", ProjectID: "proj-2", Content: "second text", Index: 0, Total: 1, Importance: 5},
	})
	require.NoError(t, err)

	require.NoError(t, idx.RemoveProject(context.Background(), "proj-1"))
	assert.Equal(t, 1, idx.Len())
}
