package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/dshills/moviematch/internal/logger"
	"github.com/dshills/moviematch/internal/searcher"
	"github.com/dshills/moviematch/pkg/types"
)

// recommendRequest is the POST /recommend body
type recommendRequest struct {
	Query     string `json:"query" validate:"required,max=1000"`
	Algorithm string `json:"algorithm" validate:"max=32"`
	TopN      int    `json:"top_n" validate:"gte=0"`
}

// movieResult is a ranked movie with the legacy score field
type movieResult struct {
	types.RankedRecommendation
	Score float64 `json:"score"` // Same as final_score
}

type recommendResponse struct {
	Movies        []movieResult      `json:"movies"`
	QueryInfo     searcher.QueryInfo `json:"query_info"`
	AlgorithmUsed string             `json:"algorithm_used"`
	CacheHit      bool               `json:"cache_hit"`
	DurationMS    float64            `json:"duration_ms"`
}

func newRecommendResponse(resp *searcher.RecommendResponse) recommendResponse {
	movies := make([]movieResult, len(resp.Recommendations))
	for i, rec := range resp.Recommendations {
		movies[i] = movieResult{RankedRecommendation: rec, Score: rec.FinalScore}
	}
	return recommendResponse{
		Movies:        movies,
		QueryInfo:     resp.QueryInfo,
		AlgorithmUsed: resp.AlgorithmLabel,
		CacheHit:      resp.CacheHit,
		DurationMS:    float64(resp.Duration.Microseconds()) / 1000,
	}
}

type healthResponse struct {
	Status            string `json:"status"`
	MoviesLoaded      int    `json:"movies_loaded"`
	TFIDFReady        bool   `json:"tfidf_ready"`
	BM25Ready         bool   `json:"bm25_ready"`
	SemanticReady     bool   `json:"semantic_ready"`
	EmbeddingProvider string `json:"embedding_provider"`
	EmbeddingModel    string `json:"embedding_model"`
	EmbeddingsShape   []int  `json:"embeddings_shape"` // [movies, dimension], null before embedding
	SemanticSource    string `json:"semantic_source"`
	VocabularySize    int    `json:"vocabulary_size"`

	EmbeddingCacheHits   int64 `json:"embedding_cache_hits"`
	EmbeddingCacheMisses int64 `json:"embedding_cache_misses"`
}

func newHealthResponse(st searcher.Status) healthResponse {
	h := healthResponse{
		Status:            "healthy",
		MoviesLoaded:      st.Movies,
		TFIDFReady:        st.Signals[types.SignalTFIDF],
		BM25Ready:         st.Signals[types.SignalBM25],
		SemanticReady:     st.Signals[types.SignalSemantic],
		EmbeddingProvider: st.EmbeddingProvider,
		EmbeddingModel:    st.EmbeddingModel,
		SemanticSource:    st.SemanticSource,
		VocabularySize:    st.VocabularySize,

		EmbeddingCacheHits:   st.EmbeddingCacheHits,
		EmbeddingCacheMisses: st.EmbeddingCacheMisses,
	}
	if st.EmbeddingDimension > 0 && st.Movies > 0 {
		h.EmbeddingsShape = []int{st.Movies, st.EmbeddingDimension}
	}
	if st.Movies == 0 {
		h.Status = "degraded"
	}
	return h
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Get().Error("failed to marshal JSON response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logger.Get().Warn("failed to write JSON response", zap.Error(err))
	}
}

// respondError sends {"detail": message}
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Detail: message})
}

// statusFor maps recommender errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrEmptyQuery), errors.Is(err, types.ErrUnknownAlgorithm):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrCorpusUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// nonNil keeps empty listings encoded as [] rather than null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
