package embedder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeddingServer answers /embeddings with vectors whose first component
// is the input position, so ordering can be checked.
func embeddingServer(t *testing.T, dim int, status *atomic.Int32, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if code := status.Load(); code != 0 {
			w.WriteHeader(int(code))
			_, _ = w.Write([]byte(`{"error":"nope"}`))
			return
		}

		var req embeddingRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		resp := embeddingResponse{Model: req.Model}
		// reversed order exercises the index sort
		for i := len(req.Input) - 1; i >= 0; i-- {
			vec := make([]float32, dim)
			vec[0] = float32(i)
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: vec, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestHTTPProvider(t *testing.T, url string, dim, batchSize int, cache *Cache) *HTTPProvider {
	t.Helper()
	p, err := NewHTTPProvider(Config{
		Provider:  ProviderOpenAI,
		BaseURL:   url + "/v1",
		APIKey:    "test-key",
		Dimension: dim,
		BatchSize: batchSize,
		Timeout:   5 * time.Second,
	}, cache)
	require.NoError(t, err)
	p.retry = RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestHTTPProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("batch preserves order across chunks", func(t *testing.T) {
		var status, calls atomic.Int32
		server := embeddingServer(t, 8, &status, &calls)
		defer server.Close()
		p := newTestHTTPProvider(t, server.URL, 8, 2, nil)

		resp, err := p.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{"a", "b", "c", "d", "e"}})
		require.NoError(t, err)
		require.Len(t, resp.Embeddings, 5)
		assert.Equal(t, int32(3), calls.Load())
		// positions restart per chunk of two
		want := []float32{0, 1, 0, 1, 0}
		for i, emb := range resp.Embeddings {
			assert.Equal(t, want[i], emb.Vector[0], "embedding %d", i)
			assert.Equal(t, DefaultOpenAIModel, emb.Model)
		}
	})

	t.Run("single embedding is cached", func(t *testing.T) {
		var status, calls atomic.Int32
		server := embeddingServer(t, 4, &status, &calls)
		defer server.Close()
		p := newTestHTTPProvider(t, server.URL, 4, 0, NewCache(10))

		first, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "dragons"})
		require.NoError(t, err)
		second, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "dragons"})
		require.NoError(t, err)

		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, first.Vector, second.Vector)
		assert.Equal(t, CacheKey(DefaultOpenAIModel, "dragons"), second.Hash)
	})

	t.Run("server errors are retried", func(t *testing.T) {
		var status, calls atomic.Int32
		status.Store(http.StatusServiceUnavailable)
		server := embeddingServer(t, 4, &status, &calls)
		defer server.Close()
		p := newTestHTTPProvider(t, server.URL, 4, 0, nil)

		_, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "dragons"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrProviderFailed)
		assert.Equal(t, int32(3), calls.Load())

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var status, calls atomic.Int32
		status.Store(http.StatusUnauthorized)
		server := embeddingServer(t, 4, &status, &calls)
		defer server.Close()
		p := newTestHTTPProvider(t, server.URL, 4, 0, nil)

		_, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "dragons"})
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		var status, calls atomic.Int32
		server := embeddingServer(t, 4, &status, &calls)
		defer server.Close()
		p := newTestHTTPProvider(t, server.URL, 16, 0, nil)

		_, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "dragons"})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("context cancellation", func(t *testing.T) {
		var status, calls atomic.Int32
		server := embeddingServer(t, 4, &status, &calls)
		defer server.Close()
		p := newTestHTTPProvider(t, server.URL, 4, 0, nil)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := p.GenerateEmbedding(cancelled, EmbeddingRequest{Text: "dragons"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRetryWithBackoff(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		got, err := retryWithBackoff(ctx, cfg, func() (int, error) {
			attempts++
			if attempts < 3 {
				return 0, errors.New("transient")
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, attempts)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		attempts := 0
		_, err := retryWithBackoff(ctx, cfg, func() (int, error) {
			attempts++
			return 0, errors.New("still failing")
		})
		assert.EqualError(t, err, "still failing")
		assert.Equal(t, 3, attempts)
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		sentinel := errors.New("bad key")
		attempts := 0
		_, err := retryWithBackoff(ctx, cfg, func() (int, error) {
			attempts++
			return 0, permanent(sentinel)
		})
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 1, attempts)
	})

	t.Run("zero retries still attempts once", func(t *testing.T) {
		attempts := 0
		_, _ = retryWithBackoff(ctx, RetryConfig{}, func() (int, error) {
			attempts++
			return 0, errors.New("x")
		})
		assert.Equal(t, 1, attempts)
	})
}
