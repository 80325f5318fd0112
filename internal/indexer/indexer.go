package indexer

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/moviematch/internal/corpus"
	"github.com/dshills/moviematch/internal/embedder"
	"github.com/dshills/moviematch/internal/features"
	"github.com/dshills/moviematch/internal/lexical"
	"github.com/dshills/moviematch/internal/logger"
	"github.com/dshills/moviematch/internal/metrics"
	"github.com/dshills/moviematch/internal/semantic"
	"github.com/dshills/moviematch/internal/storage"
	"github.com/dshills/moviematch/internal/textproc"
)

// Config contains configuration for the indexer
type Config struct {
	Workers  int // Concurrent document composers (default: runtime.NumCPU())
	TFIDF    lexical.TFIDFConfig
	BM25     lexical.BM25Config
	Semantic semantic.Config
}

// DefaultConfig returns the standard index settings
func DefaultConfig() *Config {
	return &Config{
		Workers:  runtime.NumCPU(),
		TFIDF:    lexical.DefaultTFIDFConfig(),
		BM25:     lexical.DefaultBM25Config(),
		Semantic: semantic.DefaultConfig(),
	}
}

// Deps are the collaborators an index build needs. Store may be nil.
type Deps struct {
	Normalizer *textproc.Normalizer
	Embedder   embedder.Embedder
	Store      storage.Store
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	Movies           int
	VocabularySize   int
	SemanticSource   semantic.Source
	ComposeDuration  time.Duration
	TFIDFDuration    time.Duration
	BM25Duration     time.Duration
	SemanticDuration time.Duration
	Duration         time.Duration
}

// Indexes is the immutable result of a build. Every index is aligned with
// Corpus row order.
type Indexes struct {
	Corpus   *corpus.Corpus
	TFIDF    *lexical.TFIDFIndex
	BM25     *lexical.BM25Index
	Semantic *semantic.Index
	Stats    Statistics
}

// Build composes the feature documents for c and builds the TF-IDF, BM25
// and semantic indexes concurrently. Any index failure fails the build.
func Build(ctx context.Context, c *corpus.Corpus, deps Deps, config *Config) (*Indexes, error) {
	if c == nil {
		c = corpus.New(nil)
	}
	if deps.Normalizer == nil {
		return nil, fmt.Errorf("indexer requires a normalizer")
	}
	if deps.Embedder == nil {
		return nil, fmt.Errorf("indexer requires an embedder")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}

	log := logger.Get()
	startTime := time.Now()
	out := &Indexes{Corpus: c}
	stats := &out.Stats
	stats.Movies = c.Len()
	metrics.CorpusMovies.Set(float64(c.Len()))

	movies := c.Movies()
	composer := features.NewComposer(deps.Normalizer)
	lexicalDocs, err := composer.LexicalCorpus(ctx, movies, config.Workers)
	if err != nil {
		return nil, err
	}
	semanticTexts := features.SemanticCorpus(movies)
	stats.ComposeDuration = stage("compose", startTime)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		out.TFIDF = lexical.NewTFIDF(lexicalDocs, deps.Normalizer, config.TFIDF)
		stats.TFIDFDuration = stage("tfidf", start)
		return gctx.Err()
	})

	g.Go(func() error {
		start := time.Now()
		out.BM25 = lexical.NewBM25(lexicalDocs, deps.Normalizer, config.BM25)
		stats.BM25Duration = stage("bm25", start)
		return gctx.Err()
	})

	g.Go(func() error {
		start := time.Now()
		idx, err := semantic.Build(gctx, semanticTexts, deps.Embedder, deps.Store, config.Semantic)
		if err != nil {
			return fmt.Errorf("build semantic index: %w", err)
		}
		out.Semantic = idx
		stats.SemanticDuration = stage("semantic", start)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.VocabularySize = out.TFIDF.VocabularySize()
	stats.SemanticSource = out.Semantic.Source()
	stats.Duration = stage("total", startTime)

	log.Info("indexes built",
		zap.Int("movies", stats.Movies),
		zap.Int("vocabulary", stats.VocabularySize),
		zap.String("semantic_source", string(stats.SemanticSource)),
		zap.Duration("tfidf", stats.TFIDFDuration),
		zap.Duration("bm25", stats.BM25Duration),
		zap.Duration("semantic", stats.SemanticDuration),
		zap.Duration("total", stats.Duration))

	return out, nil
}

func stage(name string, start time.Time) time.Duration {
	d := time.Since(start)
	metrics.IndexBuildDuration.WithLabelValues(name).Set(d.Seconds())
	return d
}
