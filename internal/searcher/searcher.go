package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/moviematch/internal/classifier"
	"github.com/dshills/moviematch/internal/corpus"
	"github.com/dshills/moviematch/internal/embedder"
	"github.com/dshills/moviematch/internal/indexer"
	"github.com/dshills/moviematch/internal/logger"
	"github.com/dshills/moviematch/internal/metrics"
	"github.com/dshills/moviematch/internal/rerank"
	"github.com/dshills/moviematch/pkg/types"
)

// Scorer produces one relevance score per corpus row for a query.
type Scorer interface {
	Signal() types.Signal
	Score(ctx context.Context, query string) (types.ScoreVector, error)
}

// RecommendRequest contains parameters for a recommendation
type RecommendRequest struct {
	Query     string
	Algorithm string // tfidf, bm25, semantic (or sbert), hybrid; empty means hybrid
	Limit     int    // clamped to [1, MaxLimit]; <= 0 means DefaultLimit
}

// QueryInfo describes how the query was interpreted
type QueryInfo struct {
	OriginalQuery string              `json:"original_query"`
	QueryType     types.QueryType     `json:"query_type"`
	Weights       types.WeightProfile `json:"weights"`
}

// RecommendResponse contains ranked movies and metadata
type RecommendResponse struct {
	Recommendations []types.RankedRecommendation
	QueryInfo       QueryInfo
	Algorithm       types.Algorithm
	AlgorithmLabel  string
	Duration        time.Duration
	CacheHit        bool
}

// Options tunes the response cache
type Options struct {
	CacheSize int           // <= 0 disables caching
	CacheTTL  time.Duration // 0 means one hour
}

// DefaultOptions returns the standard cache settings
func DefaultOptions() Options {
	return Options{
		CacheSize: 1000,
		CacheTTL:  time.Hour,
	}
}

// Status summarizes what the searcher was built with
type Status struct {
	Movies             int
	Signals            map[types.Signal]bool
	EmbeddingProvider  string
	EmbeddingModel     string
	EmbeddingDimension int
	SemanticSource     string
	VocabularySize     int

	// Query embedding cache counters, zero when the embedder has no cache
	EmbeddingCacheHits   int64
	EmbeddingCacheMisses int64
}

// cacheEntry represents a cached response with expiration time
type cacheEntry struct {
	response  *RecommendResponse
	expiresAt time.Time
}

// Searcher answers recommendation and catalog queries over a fixed corpus.
// It is safe for concurrent use.
type Searcher struct {
	corpus   *corpus.Corpus
	scorers  map[types.Signal]Scorer
	status   Status
	embedder embedder.Embedder // nil for NewWithScorers

	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
	ttl     time.Duration
}

// New creates a Searcher over built indexes. emb is the embedder the
// semantic index queries; it is used for Status only.
func New(idx *indexer.Indexes, emb embedder.Embedder, opts Options) *Searcher {
	s := NewWithScorers(idx.Corpus, []Scorer{idx.TFIDF, idx.BM25, idx.Semantic}, opts)
	s.embedder = emb
	s.status.EmbeddingProvider = emb.Provider()
	s.status.EmbeddingModel = idx.Semantic.Model()
	s.status.EmbeddingDimension = idx.Semantic.Dimension()
	s.status.SemanticSource = string(idx.Stats.SemanticSource)
	s.status.VocabularySize = idx.Stats.VocabularySize
	return s
}

// NewWithScorers creates a Searcher from explicit scorers. Every scorer
// must return vectors aligned with c.
func NewWithScorers(c *corpus.Corpus, scorers []Scorer, opts Options) *Searcher {
	if c == nil {
		c = corpus.New(nil)
	}
	s := &Searcher{
		corpus:  c,
		scorers: make(map[types.Signal]Scorer, len(scorers)),
		ttl:     opts.CacheTTL,
		status: Status{
			Movies:  c.Len(),
			Signals: make(map[types.Signal]bool, len(types.AllSignals)),
		},
	}
	for _, sc := range scorers {
		if sc != nil {
			s.scorers[sc.Signal()] = sc
		}
	}
	for _, sig := range types.AllSignals {
		_, ok := s.scorers[sig]
		s.status.Signals[sig] = ok
	}

	if s.ttl <= 0 {
		s.ttl = time.Hour
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[[32]byte, *cacheEntry](opts.CacheSize)
		if err != nil {
			panic(fmt.Sprintf("failed to create LRU cache: %v", err))
		}
		s.cache = cache
	}
	return s
}

// Recommend ranks the corpus for a free-text query. Blank queries return
// types.ErrEmptyQuery, an empty corpus types.ErrCorpusUnavailable and any
// scorer failure wraps types.ErrSignalFailure.
func (s *Searcher) Recommend(ctx context.Context, req RecommendRequest) (*RecommendResponse, error) {
	startTime := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, types.ErrEmptyQuery
	}
	algorithm, err := types.ParseAlgorithm(req.Algorithm)
	if err != nil {
		return nil, err
	}
	limit := ClampLimit(req.Limit)

	queryType := classifier.Classify(query)
	outcome := metrics.OutcomeError
	defer func() {
		metrics.RecommendRequests.WithLabelValues(string(algorithm), string(queryType), outcome).Inc()
		metrics.ObserveSince(metrics.RecommendDuration.WithLabelValues(string(algorithm)), startTime)
	}()

	if s.corpus.Empty() {
		return nil, types.ErrCorpusUnavailable
	}

	key := cacheKey(query, algorithm, limit)
	if cached := s.checkCache(key); cached != nil {
		cached.CacheHit = true
		cached.QueryInfo.OriginalQuery = req.Query
		cached.Duration = time.Since(startTime)
		outcome = metrics.OutcomeSuccess
		return cached, nil
	}

	weights := classifier.Weights(queryType)
	similarity, err := s.similarity(ctx, query, algorithm, weights)
	if err != nil {
		logger.Get().Error("recommendation failed",
			zap.String("query", query),
			zap.String("algorithm", string(algorithm)),
			zap.Error(err))
		return nil, err
	}

	rows := TopN(similarity, limit)
	candidates := make([]types.RankedRecommendation, len(rows))
	for i, row := range rows {
		candidates[i] = types.RankedRecommendation{
			Movie:           s.corpus.Movie(row),
			Row:             row,
			SimilarityScore: similarity[row],
		}
	}

	response := &RecommendResponse{
		Recommendations: rerank.Rerank(candidates),
		QueryInfo: QueryInfo{
			OriginalQuery: req.Query,
			QueryType:     queryType,
			Weights:       weights,
		},
		Algorithm:      algorithm,
		AlgorithmLabel: s.algorithmLabel(algorithm, queryType),
		Duration:       time.Since(startTime),
	}

	s.storeInCache(key, response)
	outcome = metrics.OutcomeSuccess
	return response, nil
}

// similarity returns the relevance vector for the chosen algorithm. Single
// signal modes touch only their own scorer.
func (s *Searcher) similarity(ctx context.Context, query string, algorithm types.Algorithm, weights types.WeightProfile) (types.ScoreVector, error) {
	if sig, single := algorithm.Signal(); single {
		scores, err := s.score(ctx, sig, query)
		if err != nil {
			return nil, err
		}
		return NormalizeScores(scores), nil
	}

	results := make([]types.ScoreVector, len(types.AllSignals))
	g, gctx := errgroup.WithContext(ctx)
	for i, sig := range types.AllSignals {
		g.Go(func() error {
			scores, err := s.score(gctx, sig, query)
			if err != nil {
				return err
			}
			results[i] = scores
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	signals := make(map[types.Signal]types.ScoreVector, len(results))
	for i, sig := range types.AllSignals {
		signals[sig] = results[i]
	}
	return Fuse(signals, weights), nil
}

func (s *Searcher) score(ctx context.Context, sig types.Signal, query string) (types.ScoreVector, error) {
	scorer, ok := s.scorers[sig]
	if !ok {
		return nil, fmt.Errorf("%w: %s index not built", types.ErrSignalFailure, sig)
	}

	start := time.Now()
	scores, err := callScorer(ctx, scorer, query)
	metrics.ObserveSince(metrics.SignalDuration.WithLabelValues(string(sig)), start)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", types.ErrSignalFailure, sig, err)
	}
	if len(scores) != s.corpus.Len() {
		return nil, fmt.Errorf("%w: %s returned %d scores for %d movies",
			types.ErrSignalFailure, sig, len(scores), s.corpus.Len())
	}
	return scores, nil
}

// callScorer runs scorer.Score and returns a panic as an error. Hybrid
// scorers run on errgroup goroutines, outside any handler's recovery.
func callScorer(ctx context.Context, scorer Scorer, query string) (scores types.ScoreVector, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Error("scorer panicked",
				zap.String("signal", string(scorer.Signal())),
				zap.Any("panic", r),
				zap.Stack("stack"))
			scores, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return scorer.Score(ctx, query)
}

func (s *Searcher) algorithmLabel(algorithm types.Algorithm, queryType types.QueryType) string {
	switch algorithm {
	case types.AlgorithmTFIDF:
		return "TF-IDF"
	case types.AlgorithmBM25:
		return "BM25"
	case types.AlgorithmSemantic:
		return fmt.Sprintf("Semantic (%s)", s.status.EmbeddingModel)
	default:
		return fmt.Sprintf("Hybrid (TF-IDF + BM25 + Semantic) - %s", queryType)
	}
}

// Popular returns the most popular movies, up to corpus.PopularLimit
func (s *Searcher) Popular() []types.Movie {
	return s.corpus.Popular(corpus.PopularLimit)
}

// Genres returns the sorted distinct genres
func (s *Searcher) Genres() []string {
	return s.corpus.Genres()
}

// ByGenre returns up to limit movies with the exact genre, most popular first
func (s *Searcher) ByGenre(genre string, limit int) []types.Movie {
	return s.corpus.ByGenre(genre, limit)
}

// Status reports corpus size and index readiness
func (s *Searcher) Status() Status {
	st := s.status
	st.Signals = maps.Clone(s.status.Signals)
	if reporter, ok := s.embedder.(embedder.CacheReporter); ok {
		st.EmbeddingCacheHits, st.EmbeddingCacheMisses = reporter.CacheStats()
	}
	return st
}

// checkCache returns a copy of a live cached response, or nil
func (s *Searcher) checkCache(key [32]byte) *RecommendResponse {
	if s.cache == nil {
		return nil
	}

	s.cacheMu.RLock()
	entry, found := s.cache.Get(key)
	if !found {
		s.cacheMu.RUnlock()
		metrics.ResponseCacheLookups.WithLabelValues("miss").Inc()
		return nil
	}

	if time.Now().After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(key)
		s.cacheMu.Unlock()
		metrics.ResponseCacheLookups.WithLabelValues("expired").Inc()
		return nil
	}

	response := copyResponse(entry.response)
	s.cacheMu.RUnlock()
	metrics.ResponseCacheLookups.WithLabelValues("hit").Inc()
	return response
}

func (s *Searcher) storeInCache(key [32]byte, response *RecommendResponse) {
	if s.cache == nil {
		return
	}
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(s.ttl),
	}

	s.cacheMu.Lock()
	s.cache.Add(key, entry)
	s.cacheMu.Unlock()
}

// copyResponse deep-copies the parts a caller could mutate. Movie list
// fields are shared with the corpus, which is never modified.
func copyResponse(src *RecommendResponse) *RecommendResponse {
	dst := *src
	dst.Recommendations = make([]types.RankedRecommendation, len(src.Recommendations))
	for i, rec := range src.Recommendations {
		rec.ScoreBreakdown = maps.Clone(rec.ScoreBreakdown)
		dst.Recommendations[i] = rec
	}
	return &dst
}

func cacheKey(query string, algorithm types.Algorithm, limit int) [32]byte {
	var data strings.Builder
	data.WriteString(query)
	data.WriteString("|")
	data.WriteString(string(algorithm))
	data.WriteString("|")
	data.WriteString(strconv.Itoa(limit))
	return sha256.Sum256([]byte(data.String()))
}
