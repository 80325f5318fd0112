package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/dshills/moviematch/internal/corpus"
	"github.com/dshills/moviematch/internal/logger"
	"github.com/dshills/moviematch/internal/searcher"
)

const (
	maxBodyBytes = 1 << 20

	// internalErrorMessage replaces error detail in 500 responses
	internalErrorMessage = "recommendation failed"
)

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "MovieMatch API",
		"version": s.opts.Version,
		"features": []string{
			"Embedding similarity for descriptive queries",
			"Hybrid TF-IDF + BM25 + semantic ranking",
			"Query type detection with adaptive weights",
		},
		"endpoints": map[string]string{
			"/movies":                  "Most popular movies",
			"/genres":                  "Available genres",
			"/movies/by-genre/{genre}": "Movies by genre",
			"/recommend":               "Recommendations (POST)",
			"/health":                  "Service status",
			"/metrics":                 "Prometheus metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, newHealthResponse(s.svc.Status()))
}

func (s *Server) handleMovies(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, nonNil(s.svc.Popular()))
}

func (s *Server) handleGenres(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, nonNil(s.svc.Genres()))
}

func (s *Server) handleMoviesByGenre(w http.ResponseWriter, r *http.Request) {
	genre := chi.URLParam(r, "genre")

	limit := corpus.DefaultGenreLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("limit must be a positive integer, got %q", raw))
			return
		}
		limit = n
	}

	respondJSON(w, http.StatusOK, nonNil(s.svc.ByGenre(genre, limit)))
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	resp, err := s.svc.Recommend(r.Context(), searcher.RecommendRequest{
		Query:     req.Query,
		Algorithm: req.Algorithm,
		Limit:     req.TopN,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Get().Error("recommend request failed",
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
				zap.Error(err))
			respondError(w, status, internalErrorMessage)
			return
		}
		respondError(w, status, err.Error())
		return
	}

	logger.Get().Info("recommendation served",
		zap.String("query", req.Query),
		zap.String("query_type", string(resp.QueryInfo.QueryType)),
		zap.String("algorithm", string(resp.Algorithm)),
		zap.Int("results", len(resp.Recommendations)),
		zap.Bool("cache_hit", resp.CacheHit))

	respondJSON(w, http.StatusOK, newRecommendResponse(resp))
}

// validationMessage turns validator errors into a short client message
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s is too long", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must not be negative", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
