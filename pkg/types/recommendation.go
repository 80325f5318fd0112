package types

// Score breakdown keys
const (
	BreakdownSimilarity = "similarity"
	BreakdownPopularity = "popularity_boost"
	BreakdownRating     = "rating_boost"
	BreakdownConfidence = "confidence"
)

// ScoreVector holds one score per corpus row for a single signal and query.
// Its length always equals the corpus length.
type ScoreVector []float64

// RankedRecommendation is a movie selected for a query together with its scores
type RankedRecommendation struct {
	Movie

	// Row is the corpus row the movie was read from
	Row int `json:"-"`

	// Scoring
	SimilarityScore float64            `json:"similarity_score"` // Fused or single-signal relevance in [0,1]
	FinalScore      float64            `json:"final_score"`      // After re-ranking
	ScoreBreakdown  map[string]float64 `json:"score_breakdown"`  // Weighted contribution per component
}

// Validate checks if the recommendation is well formed
func (r *RankedRecommendation) Validate() error {
	if r.Row < 0 {
		return ErrInvalidRow
	}
	if r.SimilarityScore < 0 || r.SimilarityScore > 1 {
		return ErrInvalidSimilarity
	}
	return r.Movie.Validate()
}
