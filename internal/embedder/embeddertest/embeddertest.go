// Package embeddertest provides a deterministic, call-counting Embedder
// for tests that must not reach the network.
package embeddertest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dshills/moviematch/internal/embedder"
)

// Embedder wraps the local hashing provider and counts every call.
// Set Err to make all calls fail.
type Embedder struct {
	inner *embedder.LocalProvider
	model string

	mu  sync.Mutex
	Err error

	queries    atomic.Int64
	batches    atomic.Int64
	batchTexts atomic.Int64
}

var _ embedder.Embedder = (*Embedder)(nil)

// New returns a mock with the given dimension and model name.
func New(dimension int, model string) *Embedder {
	inner, _ := embedder.NewLocalProvider(dimension, nil)
	if model == "" {
		model = "mock-v1"
	}
	return &Embedder{inner: inner, model: model}
}

// SetErr changes the failure injected into subsequent calls.
func (m *Embedder) SetErr(err error) {
	m.mu.Lock()
	m.Err = err
	m.mu.Unlock()
}

func (m *Embedder) err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

func (m *Embedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	m.queries.Add(1)
	if err := m.err(); err != nil {
		return nil, err
	}
	emb, err := m.inner.GenerateEmbedding(ctx, req)
	if err != nil {
		return nil, err
	}
	emb.Provider, emb.Model = m.Provider(), m.model
	return emb, nil
}

func (m *Embedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	m.batches.Add(1)
	m.batchTexts.Add(int64(len(req.Texts)))
	if err := m.err(); err != nil {
		return nil, err
	}
	resp, err := m.inner.GenerateBatch(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, e := range resp.Embeddings {
		e.Provider, e.Model = m.Provider(), m.model
	}
	resp.Provider, resp.Model = m.Provider(), m.model
	return resp, nil
}

// QueryCalls counts GenerateEmbedding calls.
func (m *Embedder) QueryCalls() int64 { return m.queries.Load() }

// BatchCalls counts GenerateBatch calls.
func (m *Embedder) BatchCalls() int64 { return m.batches.Load() }

// EmbeddedTexts counts texts passed to GenerateBatch.
func (m *Embedder) EmbeddedTexts() int64 { return m.batchTexts.Load() }

func (m *Embedder) Dimension() int   { return m.inner.Dimension() }
func (m *Embedder) Provider() string { return "mock" }
func (m *Embedder) Model() string    { return m.model }
func (m *Embedder) Close() error     { return nil }
