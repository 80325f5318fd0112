package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/moviematch/internal/corpus"
	"github.com/dshills/moviematch/internal/logger"
	"github.com/dshills/moviematch/internal/searcher"
	"github.com/dshills/moviematch/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeCorpusUnavailable = -32001 // No movies loaded
	ErrorCodeEmptyQuery        = -32004 // Query parameter is empty
)

// movieSummary is the compact movie form returned by the listing tools
type movieSummary struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Genres      []string `json:"genre"`
	Director    string   `json:"director,omitempty"`
	Cast        []string `json:"cast,omitempty"`
	Description string   `json:"description,omitempty"`
	VoteAverage float64  `json:"vote_average"`
	Popularity  float64  `json:"popularity"`
}

func summarize(m types.Movie) movieSummary {
	return movieSummary{
		ID:          m.ID,
		Title:       m.Title,
		Genres:      m.Genres,
		Director:    m.Director,
		Cast:        m.Cast,
		Description: m.Description,
		VoteAverage: m.VoteAverage,
		Popularity:  m.Popularity,
	}
}

func summarizeAll(movies []types.Movie) []movieSummary {
	out := make([]movieSummary, len(movies))
	for i, m := range movies {
		out[i] = summarize(m)
	}
	return out
}

// rankedMovie is one recommend_movies result
type rankedMovie struct {
	movieSummary
	SimilarityScore float64            `json:"similarity_score"`
	FinalScore      float64            `json:"final_score"`
	ScoreBreakdown  map[string]float64 `json:"score_breakdown"`
}

// handleRecommendMovies handles the recommend_movies tool invocation
func (s *Server) handleRecommendMovies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	query := getStringDefault(args, "query", "")
	if strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	topN := getIntDefault(args, "top_n", searcher.DefaultLimit)
	if topN < 1 || topN > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("top_n must be between 1 and %d", searcher.MaxLimit), map[string]interface{}{
			"param": "top_n",
			"value": topN,
		})
	}

	algorithm := getStringDefault(args, "algorithm", string(types.AlgorithmHybrid))
	if _, err := types.ParseAlgorithm(algorithm); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid algorithm", map[string]interface{}{
			"param":   "algorithm",
			"value":   algorithm,
			"allowed": []string{"hybrid", "tfidf", "bm25", "semantic"},
		})
	}

	resp, err := s.svc.Recommend(ctx, searcher.RecommendRequest{
		Query:     query,
		Algorithm: algorithm,
		Limit:     topN,
	})
	if err != nil {
		return nil, recommendError(err)
	}

	movies := make([]rankedMovie, len(resp.Recommendations))
	for i, rec := range resp.Recommendations {
		movies[i] = rankedMovie{
			movieSummary:    summarize(rec.Movie),
			SimilarityScore: rec.SimilarityScore,
			FinalScore:      rec.FinalScore,
			ScoreBreakdown:  rec.ScoreBreakdown,
		}
	}

	response := map[string]interface{}{
		"movies":         movies,
		"query_info":     resp.QueryInfo,
		"algorithm_used": resp.AlgorithmLabel,
		"cache_hit":      resp.CacheHit,
		"duration_ms":    resp.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListMovies handles the list_movies tool invocation
func (s *Server) handleListMovies(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	limit := getIntDefault(args, "limit", DefaultListLimit)
	if limit < 1 || limit > MaxListLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", MaxListLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	movies := s.svc.Popular()
	if len(movies) > limit {
		movies = movies[:limit]
	}

	response := map[string]interface{}{
		"count":  len(movies),
		"movies": summarizeAll(movies),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListGenres handles the list_genres tool invocation
func (s *Server) handleListGenres(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	genres := s.svc.Genres()
	if genres == nil {
		genres = []string{}
	}

	response := map[string]interface{}{
		"count":  len(genres),
		"genres": genres,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleMoviesByGenre handles the movies_by_genre tool invocation
func (s *Server) handleMoviesByGenre(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	genre, ok := args["genre"].(string)
	if !ok || genre == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "genre parameter is required", map[string]interface{}{
			"param":  "genre",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", corpus.DefaultGenreLimit)
	if limit < 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be positive", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	movies := s.svc.ByGenre(genre, limit)
	response := map[string]interface{}{
		"genre":  genre,
		"count":  len(movies),
		"movies": summarizeAll(movies),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := s.svc.Status()

	signals := make(map[string]bool, len(types.AllSignals))
	for _, sig := range types.AllSignals {
		signals[string(sig)] = st.Signals[sig]
	}

	response := map[string]interface{}{
		"movies_loaded": st.Movies,
		"ready":         st.Movies > 0,
		"signals":       signals,
		"embedding": map[string]interface{}{
			"provider":  st.EmbeddingProvider,
			"model":     st.EmbeddingModel,
			"dimension": st.EmbeddingDimension,
			"source":    st.SemanticSource,
			"cache": map[string]interface{}{
				"hits":   st.EmbeddingCacheHits,
				"misses": st.EmbeddingCacheMisses,
			},
		},
		"vocabulary_size": st.VocabularySize,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// recommendError maps recommender errors to MCP errors
func recommendError(err error) error {
	switch {
	case errors.Is(err, types.ErrEmptyQuery):
		return newMCPError(ErrorCodeEmptyQuery, err.Error(), nil)
	case errors.Is(err, types.ErrUnknownAlgorithm):
		return newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	case errors.Is(err, types.ErrCorpusUnavailable):
		return newMCPError(ErrorCodeCorpusUnavailable, "no movies loaded", nil)
	default:
		logger.Get().Error("recommend_movies failed", zap.Error(err))
		return newMCPError(ErrorCodeInternalError, "recommendation failed", nil)
	}
}

// arguments returns the tool arguments, treating absent arguments as empty
func arguments(request mcp.CallToolRequest) (map[string]interface{}, error) {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}, nil
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	return args, nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
