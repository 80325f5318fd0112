// Package semantic scores queries by embedding similarity against
// precomputed movie embeddings.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/moviematch/internal/embedder"
	"github.com/dshills/moviematch/internal/logger"
	"github.com/dshills/moviematch/internal/metrics"
	"github.com/dshills/moviematch/internal/storage"
	"github.com/dshills/moviematch/pkg/types"
)

// Source reports where the item vectors came from.
type Source string

const (
	SourceEmpty    Source = "empty"    // no items
	SourceSnapshot Source = "snapshot" // loaded from storage
	SourceEmbedded Source = "embedded" // generated this run
)

// Config controls embedding generation
type Config struct {
	BatchSize int // texts per GenerateBatch call
	Workers   int // batches in flight
}

// DefaultConfig returns the standard batch size and concurrency
func DefaultConfig() Config {
	return Config{
		BatchSize: 32,
		Workers:   4,
	}
}

// Index holds one unit-comparable vector per corpus row.
type Index struct {
	embedder  embedder.Embedder
	vectors   [][]float32
	norms     []float64
	dimension int
	model     string
	source    Source
}

// Build loads item vectors from store when the stored snapshot matches
// the corpus size and the embedder's model, and otherwise embeds texts
// and replaces the snapshot. store may be nil to skip persistence.
// A corrupt snapshot is logged and rebuilt.
func Build(ctx context.Context, texts []string, emb embedder.Embedder, store storage.Store, cfg Config) (*Index, error) {
	if emb == nil {
		return nil, fmt.Errorf("semantic index requires an embedder")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	idx := &Index{
		embedder:  emb,
		dimension: emb.Dimension(),
		model:     emb.Model(),
		source:    SourceEmpty,
	}
	if len(texts) == 0 {
		return idx, nil
	}

	if store != nil {
		if vectors, ok := loadSnapshot(ctx, store, len(texts), emb); ok {
			idx.vectors = vectors
			idx.source = SourceSnapshot
			idx.computeNorms()
			return idx, nil
		}
	}

	start := time.Now()
	vectors, err := embedAll(ctx, texts, emb, cfg)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	idx.vectors = vectors
	idx.source = SourceEmbedded
	idx.computeNorms()

	logger.Get().Info("embedded corpus",
		zap.Int("items", len(texts)),
		zap.String("provider", emb.Provider()),
		zap.String("model", emb.Model()),
		zap.Duration("duration", elapsed))

	if store != nil {
		persist(ctx, store, idx, emb.Provider(), elapsed)
	}
	return idx, nil
}

func loadSnapshot(ctx context.Context, store storage.Store, items int, emb embedder.Embedder) ([][]float32, bool) {
	log := logger.Get()

	snap, err := store.GetSnapshot(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		metrics.SnapshotLoads.WithLabelValues("miss").Inc()
		return nil, false
	case errors.Is(err, storage.ErrCorruptSnapshot):
		metrics.SnapshotLoads.WithLabelValues("corrupt").Inc()
		log.Warn("embedding snapshot corrupt, clearing and regenerating", zap.Error(err))
		if err := store.DeleteSnapshot(ctx); err != nil {
			log.Warn("failed to clear corrupt embedding snapshot", zap.Error(err))
		}
		return nil, false
	case err != nil:
		metrics.SnapshotLoads.WithLabelValues("corrupt").Inc()
		log.Warn("embedding snapshot unreadable, regenerating", zap.Error(err))
		return nil, false
	}

	if snap.ItemCount != items || snap.Model != emb.Model() || snap.Dimension != emb.Dimension() {
		metrics.SnapshotLoads.WithLabelValues("stale").Inc()
		log.Info("embedding snapshot out of date, regenerating",
			zap.Int("snapshot_items", snap.ItemCount),
			zap.Int("corpus_items", items),
			zap.String("snapshot_model", snap.Model),
			zap.String("model", emb.Model()))
		return nil, false
	}

	metrics.SnapshotLoads.WithLabelValues("hit").Inc()
	log.Info("loaded embedding snapshot",
		zap.Int("items", snap.ItemCount),
		zap.String("model", snap.Model))
	return snap.Vectors, true
}

func embedAll(ctx context.Context, texts []string, emb embedder.Embedder, cfg Config) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	dim := emb.Dimension()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for start := 0; start < len(texts); start += cfg.BatchSize {
		end := min(start+cfg.BatchSize, len(texts))
		g.Go(func() error {
			batch := texts[start:end]
			resp, err := emb.GenerateBatch(gctx, embedder.BatchEmbeddingRequest{Texts: batch})
			if err != nil {
				return fmt.Errorf("embed items %d-%d: %w", start, end, err)
			}
			if len(resp.Embeddings) != len(batch) {
				return fmt.Errorf("embed items %d-%d: got %d embeddings", start, end, len(resp.Embeddings))
			}
			for i, e := range resp.Embeddings {
				if len(e.Vector) != dim {
					return fmt.Errorf("%w: item %d has %d components, want %d",
						embedder.ErrDimensionMismatch, start+i, len(e.Vector), dim)
				}
				vectors[start+i] = e.Vector
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// persist failures only cost a re-embed on the next start
func persist(ctx context.Context, store storage.Store, idx *Index, provider string, elapsed time.Duration) {
	log := logger.Get()
	snap := &storage.Snapshot{
		SnapshotInfo: storage.SnapshotInfo{
			ItemCount: len(idx.vectors),
			Dimension: idx.dimension,
			Provider:  provider,
			Model:     idx.model,
		},
		Vectors: idx.vectors,
	}
	if err := store.ReplaceSnapshot(ctx, snap); err != nil {
		log.Warn("failed to save embedding snapshot", zap.Error(err))
		return
	}
	if err := store.RecordBuild(ctx, storage.BuildRecord{
		ItemCount: snap.ItemCount,
		Provider:  provider,
		Model:     idx.model,
		Duration:  elapsed,
	}); err != nil {
		log.Warn("failed to record embedding build", zap.Error(err))
	}
}

func (idx *Index) computeNorms() {
	idx.norms = make([]float64, len(idx.vectors))
	for i, v := range idx.vectors {
		idx.norms[i] = norm(v)
	}
}

// Signal identifies the semantic signal
func (idx *Index) Signal() types.Signal {
	return types.SignalSemantic
}

// Len returns the number of indexed items
func (idx *Index) Len() int {
	return len(idx.vectors)
}

func (idx *Index) Dimension() int { return idx.dimension }
func (idx *Index) Model() string  { return idx.model }
func (idx *Index) Source() Source { return idx.source }

// Score embeds the raw query and returns its cosine similarity with every item.
func (idx *Index) Score(ctx context.Context, query string) (types.ScoreVector, error) {
	scores := make(types.ScoreVector, len(idx.vectors))
	if len(idx.vectors) == 0 {
		return scores, nil
	}

	emb, err := idx.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(emb.Vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d components, index has %d",
			embedder.ErrDimensionMismatch, len(emb.Vector), idx.dimension)
	}

	qn := norm(emb.Vector)
	if qn == 0 {
		return scores, nil
	}
	for i, v := range idx.vectors {
		if idx.norms[i] == 0 {
			continue
		}
		var dot float64
		for j, x := range v {
			dot += float64(x) * float64(emb.Vector[j])
		}
		scores[i] = dot / (qn * idx.norms[i])
	}
	return scores, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
