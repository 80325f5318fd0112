package types

import (
	"fmt"
	"strings"
)

// QueryType is the classification of a free-text query
type QueryType string

const (
	QueryTypeSemantic QueryType = "semantic" // Mood, theme or plot descriptions
	QueryTypePerson   QueryType = "person"   // Director or cast lookups
	QueryTypeGenre    QueryType = "genre"    // Mentions a known genre
	QueryTypeGeneral  QueryType = "general"  // Short keyword queries
)

// Signal identifies one relevance signal
type Signal string

const (
	SignalTFIDF    Signal = "tfidf"
	SignalBM25     Signal = "bm25"
	SignalSemantic Signal = "semantic"
)

// AllSignals lists the signals in fusion order
var AllSignals = []Signal{SignalTFIDF, SignalBM25, SignalSemantic}

// Algorithm selects how a recommendation query is scored
type Algorithm string

const (
	AlgorithmHybrid   Algorithm = "hybrid"   // Weighted fusion of all signals
	AlgorithmTFIDF    Algorithm = "tfidf"    // TF-IDF cosine only
	AlgorithmBM25     Algorithm = "bm25"     // BM25 only
	AlgorithmSemantic Algorithm = "semantic" // Embedding similarity only
)

// ParseAlgorithm converts a selector into an Algorithm.
// An empty selector means hybrid; "sbert" is accepted for semantic.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(AlgorithmHybrid):
		return AlgorithmHybrid, nil
	case string(AlgorithmTFIDF):
		return AlgorithmTFIDF, nil
	case string(AlgorithmBM25):
		return AlgorithmBM25, nil
	case string(AlgorithmSemantic), "sbert":
		return AlgorithmSemantic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

// Signal returns the single signal an algorithm uses, or false for hybrid
func (a Algorithm) Signal() (Signal, bool) {
	switch a {
	case AlgorithmTFIDF:
		return SignalTFIDF, true
	case AlgorithmBM25:
		return SignalBM25, true
	case AlgorithmSemantic:
		return SignalSemantic, true
	}
	return "", false
}

// WeightProfile is the fusion weight triple chosen by the query classifier
type WeightProfile struct {
	TFIDF    float64 `json:"tfidf"`
	BM25     float64 `json:"bm25"`
	Semantic float64 `json:"semantic"`
}

// For returns the weight applied to a signal
func (w WeightProfile) For(s Signal) float64 {
	switch s {
	case SignalTFIDF:
		return w.TFIDF
	case SignalBM25:
		return w.BM25
	case SignalSemantic:
		return w.Semantic
	}
	return 0
}

// Sum returns the total weight
func (w WeightProfile) Sum() float64 {
	return w.TFIDF + w.BM25 + w.Semantic
}
