package lexical

import (
	"context"
	"math"
	"strings"

	"github.com/dshills/moviematch/internal/textproc"
	"github.com/dshills/moviematch/pkg/types"
)

// BM25Config holds the Okapi BM25 constants
type BM25Config struct {
	K1      float64 // Term frequency saturation
	B       float64 // Document length normalization
	Epsilon float64 // Floor for negative idf, as a share of the average idf
}

// DefaultBM25Config returns the Okapi defaults
func DefaultBM25Config() BM25Config {
	return BM25Config{
		K1:      1.5,
		B:       0.75,
		Epsilon: 0.25,
	}
}

// termFreq is one document's frequency for a term
type termFreq struct {
	doc int32
	tf  float64
}

// BM25Index is an inverted index of whitespace tokens scored with Okapi BM25
type BM25Index struct {
	normalizer *textproc.Normalizer
	cfg        BM25Config
	postings   map[string][]termFreq
	idf        map[string]float64
	docLen     []float64
	avgDocLen  float64
}

// NewBM25 builds the index over docs split on whitespace
func NewBM25(docs []string, normalizer *textproc.Normalizer, cfg BM25Config) *BM25Index {
	idx := &BM25Index{
		normalizer: normalizer,
		cfg:        cfg,
		postings:   make(map[string][]termFreq),
		idf:        make(map[string]float64),
		docLen:     make([]float64, len(docs)),
	}
	if len(docs) == 0 {
		return idx
	}

	var totalLen float64
	for i, d := range docs {
		tokens := strings.Fields(d)
		idx.docLen[i] = float64(len(tokens))
		totalLen += float64(len(tokens))

		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		for tok, f := range freqs {
			idx.postings[tok] = append(idx.postings[tok], termFreq{doc: int32(i), tf: float64(f)})
		}
	}
	idx.avgDocLen = totalLen / float64(len(docs))

	n := float64(len(docs))
	var idfSum float64
	var negative []string
	for tok, p := range idx.postings {
		df := float64(len(p))
		v := math.Log(n-df+0.5) - math.Log(df+0.5)
		idx.idf[tok] = v
		idfSum += v
		if v < 0 {
			negative = append(negative, tok)
		}
	}
	if len(idx.idf) > 0 {
		eps := cfg.Epsilon * idfSum / float64(len(idx.idf))
		if eps < 0 {
			eps = 0
		}
		for _, tok := range negative {
			idx.idf[tok] = eps
		}
	}

	return idx
}

// Signal identifies the BM25 signal
func (b *BM25Index) Signal() types.Signal {
	return types.SignalBM25
}

// Len returns the number of indexed documents
func (b *BM25Index) Len() int {
	return len(b.docLen)
}

// Score returns the BM25 score of the query for every document.
// Repeated query tokens contribute once per occurrence.
func (b *BM25Index) Score(ctx context.Context, query string) (types.ScoreVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scores := make(types.ScoreVector, len(b.docLen))
	if b.avgDocLen == 0 {
		return scores, nil
	}

	k1, bb := b.cfg.K1, b.cfg.B
	for _, tok := range b.normalizer.Normalize(query) {
		idf := b.idf[tok]
		if idf == 0 {
			continue
		}
		for _, p := range b.postings[tok] {
			denom := p.tf + k1*(1-bb+bb*b.docLen[p.doc]/b.avgDocLen)
			scores[p.doc] += idf * p.tf * (k1 + 1) / denom
		}
	}
	return scores, nil
}
