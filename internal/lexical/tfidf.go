package lexical

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dshills/moviematch/internal/textproc"
	"github.com/dshills/moviematch/pkg/types"
)

// TFIDFConfig controls vocabulary pruning
type TFIDFConfig struct {
	MaxFeatures int     // Keep at most this many terms by corpus frequency (0 = unlimited)
	MinDF       int     // Drop terms found in fewer documents
	MaxDF       float64 // Drop terms found in more than this share of documents (>1 means an absolute count)
}

// DefaultTFIDFConfig returns the standard pruning limits
func DefaultTFIDFConfig() TFIDFConfig {
	return TFIDFConfig{
		MaxFeatures: 50000,
		MinDF:       2,
		MaxDF:       0.95,
	}
}

// posting is one document's weight for a term
type posting struct {
	doc    int32
	weight float64
}

// TFIDFIndex is an inverted index of L2-normalized TF-IDF document vectors
type TFIDFIndex struct {
	normalizer *textproc.Normalizer
	vocab      map[string]int
	idf        []float64
	postings   [][]posting // By vocabulary column
	docs       int
}

// NewTFIDF fits the vocabulary and document vectors over docs.
// When pruning leaves no terms every query scores zero.
func NewTFIDF(docs []string, normalizer *textproc.Normalizer, cfg TFIDFConfig) *TFIDFIndex {
	idx := &TFIDFIndex{
		normalizer: normalizer,
		vocab:      map[string]int{},
		docs:       len(docs),
	}
	if len(docs) == 0 {
		return idx
	}

	termCounts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	total := make(map[string]int)
	for i, d := range docs {
		tc := countTerms(analyze(d))
		termCounts[i] = tc
		for term, c := range tc {
			df[term]++
			total[term] += c
		}
	}

	maxCount := cfg.MaxDF
	if maxCount <= 1 {
		maxCount *= float64(len(docs))
	}
	kept := make([]string, 0, len(df))
	for term, d := range df {
		if d >= cfg.MinDF && float64(d) <= maxCount {
			kept = append(kept, term)
		}
	}

	if cfg.MaxFeatures > 0 && len(kept) > cfg.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if total[kept[i]] != total[kept[j]] {
				return total[kept[i]] > total[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:cfg.MaxFeatures]
	}
	sort.Strings(kept)

	n := float64(len(docs))
	idx.idf = make([]float64, len(kept))
	idx.postings = make([][]posting, len(kept))
	for col, term := range kept {
		idx.vocab[term] = col
		idx.idf[col] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	for i, tc := range termCounts {
		weights := make(map[int]float64, len(tc))
		var sumSq float64
		for term, c := range tc {
			col, ok := idx.vocab[term]
			if !ok {
				continue
			}
			w := float64(c) * idx.idf[col]
			weights[col] = w
			sumSq += w * w
		}
		if sumSq == 0 {
			continue
		}
		norm := math.Sqrt(sumSq)
		for col, w := range weights {
			idx.postings[col] = append(idx.postings[col], posting{doc: int32(i), weight: w / norm})
		}
	}

	return idx
}

// Signal identifies the TF-IDF signal
func (t *TFIDFIndex) Signal() types.Signal {
	return types.SignalTFIDF
}

// VocabularySize returns the number of terms kept after pruning
func (t *TFIDFIndex) VocabularySize() int {
	return len(t.vocab)
}

// Len returns the number of indexed documents
func (t *TFIDFIndex) Len() int {
	return t.docs
}

// Score returns the cosine similarity of the query against every document
func (t *TFIDFIndex) Score(ctx context.Context, query string) (types.ScoreVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scores := make(types.ScoreVector, t.docs)
	qtc := countTerms(analyze(t.normalizer.NormalizeJoined(query)))

	weights := make(map[int]float64, len(qtc))
	var sumSq float64
	for term, c := range qtc {
		col, ok := t.vocab[term]
		if !ok {
			continue
		}
		w := float64(c) * t.idf[col]
		weights[col] = w
		sumSq += w * w
	}
	if sumSq == 0 {
		return scores, nil
	}

	norm := math.Sqrt(sumSq)
	for col, w := range weights {
		qw := w / norm
		for _, p := range t.postings[col] {
			scores[p.doc] += qw * p.weight
		}
	}
	return scores, nil
}

// analyze returns the unigrams and bigrams of a normalized document.
// Tokens shorter than two characters are not indexed.
func analyze(doc string) []string {
	fields := strings.Fields(doc)
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= 2 {
			tokens = append(tokens, f)
		}
	}

	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

func countTerms(terms []string) map[string]int {
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	return counts
}
