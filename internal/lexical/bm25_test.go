package lexical

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/moviematch/internal/textproc"
	"github.com/dshills/moviematch/pkg/types"
)

func setupTestBM25(t *testing.T, docs []string) *BM25Index {
	t.Helper()
	return NewBM25(docs, textproc.New(nil), DefaultBM25Config())
}

func TestBM25_DragonQuery(t *testing.T) {
	idx := setupTestBM25(t, []string{"dragon quest", "love story", "dragon fire"})

	scores, err := idx.Score(context.Background(), "dragon")
	require.NoError(t, err)
	require.Len(t, scores, 3)

	assert.Greater(t, scores[0], 0.0)
	assert.Equal(t, 0.0, scores[1])
	assert.InDelta(t, scores[0], scores[2], 1e-12)
}

func TestBM25_KnownScore(t *testing.T) {
	idx := setupTestBM25(t, []string{"dragon quest", "love story", "dragon fire"})

	scores, err := idx.Score(context.Background(), "quest")
	require.NoError(t, err)

	// Document length equals the average, so the score is the idf
	want := math.Log(3-1+0.5) - math.Log(1+0.5)
	assert.InDelta(t, want, scores[0], 1e-12)
	assert.Equal(t, 0.0, scores[1])
	assert.Equal(t, 0.0, scores[2])
}

func TestBM25_RepeatedQueryTokens(t *testing.T) {
	idx := setupTestBM25(t, []string{"dragon quest", "love story", "dragon fire"})

	once, err := idx.Score(context.Background(), "quest")
	require.NoError(t, err)
	twice, err := idx.Score(context.Background(), "quest quest")
	require.NoError(t, err)

	assert.InDelta(t, 2*once[0], twice[0], 1e-12)
}

func TestBM25_LengthNormalization(t *testing.T) {
	idx := setupTestBM25(t, []string{
		"heist",
		"heist crew vault alarm getaway driver",
		"romance",
		"comedy",
		"drama",
		"western",
	})

	scores, err := idx.Score(context.Background(), "heist")
	require.NoError(t, err)
	assert.Greater(t, scores[0], scores[1], "shorter document wins for equal tf")
}

func TestBM25_NegativeIDFFloor(t *testing.T) {
	// "movie" is in every document; the average idf is negative so the floor is zero
	idx := setupTestBM25(t, []string{"movie alpha", "movie beta"})

	scores, err := idx.Score(context.Background(), "movie")
	require.NoError(t, err)
	assert.Equal(t, types.ScoreVector{0, 0}, scores)
}

func TestBM25_NonNegative(t *testing.T) {
	idx := setupTestBM25(t, []string{"a1 common", "b2 common", "c3 common", "common d4"})

	scores, err := idx.Score(context.Background(), "common a1 d4 missing")
	require.NoError(t, err)
	for _, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0)
	}
}

func TestBM25_EmptyCorpus(t *testing.T) {
	idx := setupTestBM25(t, nil)
	scores, err := idx.Score(context.Background(), "dragon")
	require.NoError(t, err)
	assert.Empty(t, scores)
	assert.Zero(t, idx.Len())
}

func TestBM25_Signal(t *testing.T) {
	idx := setupTestBM25(t, []string{"x"})
	assert.Equal(t, types.SignalBM25, idx.Signal())
	assert.Equal(t, types.SignalTFIDF, NewTFIDF(nil, textproc.New(nil), DefaultTFIDFConfig()).Signal())
}
