package embedder

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestLocalProvider(t *testing.T) {
	ctx := context.Background()
	provider, err := NewLocalProvider(0, NewCache(10))
	require.NoError(t, err)
	defer provider.Close()

	t.Run("metadata", func(t *testing.T) {
		assert.Equal(t, ProviderLocal, provider.Provider())
		assert.Equal(t, LocalDimension, provider.Dimension())
		assert.Equal(t, DefaultLocalModel, provider.Model())
	})

	t.Run("deterministic unit vectors", func(t *testing.T) {
		a, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "A knight fights a dragon"})
		require.NoError(t, err)
		b, err := provider.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{"A knight fights a dragon"}})
		require.NoError(t, err)

		require.Len(t, a.Vector, LocalDimension)
		assert.Equal(t, a.Vector, b.Embeddings[0].Vector)
		assert.InDelta(t, 1.0, cosine(a.Vector, a.Vector), 1e-6)
	})

	t.Run("shared vocabulary is closer", func(t *testing.T) {
		resp, err := provider.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{
			"dragon knight castle",
			"the knight slays a dragon near the castle",
			"romantic comedy in paris",
		}})
		require.NoError(t, err)
		require.Len(t, resp.Embeddings, 3)

		related := cosine(resp.Embeddings[0].Vector, resp.Embeddings[1].Vector)
		unrelated := cosine(resp.Embeddings[0].Vector, resp.Embeddings[2].Vector)
		assert.Greater(t, related, unrelated)
	})

	t.Run("custom dimension", func(t *testing.T) {
		small, err := NewLocalProvider(64, nil)
		require.NoError(t, err)
		emb, err := small.GenerateEmbedding(ctx, EmbeddingRequest{Text: "space opera"})
		require.NoError(t, err)
		assert.Len(t, emb.Vector, 64)
		assert.Equal(t, "hashed-ngrams-64", small.Model())
	})

	t.Run("validation errors", func(t *testing.T) {
		_, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: ""})
		assert.ErrorIs(t, err, ErrEmptyText)
		_, err = provider.GenerateBatch(ctx, BatchEmbeddingRequest{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("context cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := provider.GenerateEmbedding(cancelled, EmbeddingRequest{Text: "anything"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		wantNorm float64
	}{
		{name: "unit vector", input: []float32{1, 0, 0}, wantNorm: 1},
		{name: "needs normalization", input: []float32{3, 4}, wantNorm: 1},
		{name: "zero vector", input: []float32{0, 0, 0}, wantNorm: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeVector(tt.input)
			var sum float64
			for _, v := range result {
				sum += float64(v) * float64(v)
			}
			assert.InDelta(t, tt.wantNorm, math.Sqrt(sum), 1e-5)
		})
	}
}

func TestLocalProvider_CacheStats(t *testing.T) {
	ctx := context.Background()

	cached, err := NewLocalProvider(16, NewCache(10))
	require.NoError(t, err)
	var reporter CacheReporter = cached

	for range 3 {
		_, err := cached.GenerateEmbedding(ctx, EmbeddingRequest{Text: "dragon"})
		require.NoError(t, err)
	}
	hits, misses := reporter.CacheStats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)

	uncached, err := NewLocalProvider(16, nil)
	require.NoError(t, err)
	_, err = uncached.GenerateEmbedding(ctx, EmbeddingRequest{Text: "dragon"})
	require.NoError(t, err)
	hits, misses = uncached.CacheStats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}
