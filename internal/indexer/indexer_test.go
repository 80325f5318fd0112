package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/moviematch/internal/corpus"
	"github.com/dshills/moviematch/internal/embedder/embeddertest"
	"github.com/dshills/moviematch/internal/semantic"
	"github.com/dshills/moviematch/internal/storage"
	"github.com/dshills/moviematch/internal/textproc"
	"github.com/dshills/moviematch/pkg/types"
)

func testCorpus() *corpus.Corpus {
	return corpus.New([]types.Movie{
		{ID: 1, Title: "Dragon Quest", Description: "A knight hunts a dragon", Genres: []string{"Fantasy"}, Keywords: []string{"dragon", "knight"}, Cast: []string{}, Popularity: 10},
		{ID: 2, Title: "Paris Hearts", Description: "Strangers fall in love", Genres: []string{"Romance"}, Keywords: []string{"love", "paris"}, Cast: []string{}, Popularity: 5},
		{ID: 3, Title: "Dragon Tales", Description: "A young dragon learns to fly", Genres: []string{"Animation", "Fantasy"}, Keywords: []string{"dragon"}, Cast: []string{}, Popularity: 7},
	})
}

func testDeps(t *testing.T) (Deps, *embeddertest.Embedder) {
	t.Helper()
	emb := embeddertest.New(32, "")
	return Deps{Normalizer: textproc.New(nil), Embedder: emb}, emb
}

func TestBuild_Success(t *testing.T) {
	deps, emb := testDeps(t)
	cfg := DefaultConfig()
	cfg.TFIDF.MinDF = 1

	idx, err := Build(context.Background(), testCorpus(), deps, cfg)
	require.NoError(t, err)

	assert.Equal(t, 3, idx.Corpus.Len())
	assert.Equal(t, 3, idx.TFIDF.Len())
	assert.Equal(t, 3, idx.BM25.Len())
	assert.Equal(t, 3, idx.Semantic.Len())
	assert.Equal(t, 3, idx.Stats.Movies)
	assert.Greater(t, idx.Stats.VocabularySize, 0)
	assert.Equal(t, semantic.SourceEmbedded, idx.Stats.SemanticSource)
	assert.Equal(t, int64(3), emb.EmbeddedTexts())
	assert.GreaterOrEqual(t, idx.Stats.Duration, idx.Stats.ComposeDuration)
}

func TestBuild_EmptyCorpus(t *testing.T) {
	deps, emb := testDeps(t)

	idx, err := Build(context.Background(), corpus.New(nil), deps, nil)
	require.NoError(t, err)
	assert.Zero(t, idx.Corpus.Len())
	assert.Zero(t, idx.TFIDF.Len())
	assert.Equal(t, semantic.SourceEmpty, idx.Stats.SemanticSource)
	assert.Zero(t, emb.BatchCalls())
}

func TestBuild_NilCorpus(t *testing.T) {
	deps, _ := testDeps(t)
	idx, err := Build(context.Background(), nil, deps, nil)
	require.NoError(t, err)
	assert.True(t, idx.Corpus.Empty())
}

func TestBuild_SecondBuildUsesSnapshot(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer store.Close()

	deps, first := testDeps(t)
	deps.Store = store
	_, err = Build(context.Background(), testCorpus(), deps, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), first.EmbeddedTexts())

	second := embeddertest.New(32, "")
	deps.Embedder = second
	idx, err := Build(context.Background(), testCorpus(), deps, nil)
	require.NoError(t, err)
	assert.Zero(t, second.BatchCalls())
	assert.Equal(t, semantic.SourceSnapshot, idx.Stats.SemanticSource)
}

func TestBuild_EmbedderFailure(t *testing.T) {
	deps, emb := testDeps(t)
	boom := errors.New("embedding service down")
	emb.SetErr(boom)

	_, err := Build(context.Background(), testCorpus(), deps, nil)
	assert.ErrorIs(t, err, boom)
}

func TestBuild_MissingDeps(t *testing.T) {
	_, err := Build(context.Background(), testCorpus(), Deps{Embedder: embeddertest.New(8, "")}, nil)
	assert.Error(t, err)

	_, err = Build(context.Background(), testCorpus(), Deps{Normalizer: textproc.New(nil)}, nil)
	assert.Error(t, err)
}

func TestBuild_ContextCancellation(t *testing.T) {
	deps, _ := testDeps(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, testCorpus(), deps, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
