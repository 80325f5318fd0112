// Package rerank orders recommendation candidates by blending relevance with
// popularity, rating and vote confidence.
//
//	final = 0.60*similarity + 0.15*popularity_boost + 0.15*rating_boost + 0.10*confidence
//
// Boosts are computed from raw movie metadata. Rerank only touches the
// candidates it is given; callers select the top N before re-ranking.
package rerank

import (
	"math"
	"sort"

	"github.com/dshills/moviematch/pkg/types"
)

// Component weights of the final score
const (
	SimilarityWeight = 0.60
	PopularityWeight = 0.15
	RatingWeight     = 0.15
	ConfidenceWeight = 0.10
)

// Saturation points of the boosts
const (
	popularityLogScale = 10.0
	ratingScale        = 10.0
	confidentVotes     = 1000.0
)

// PopularityBoost log-dampens popularity into [0,1]
func PopularityBoost(popularity float64) float64 {
	if popularity <= 0 {
		return 0
	}
	return math.Min(math.Log1p(popularity)/popularityLogScale, 1.0)
}

// RatingBoost maps a 0-10 vote average to [0,1]
func RatingBoost(voteAverage float64) float64 {
	if voteAverage <= 0 {
		return 0
	}
	return voteAverage / ratingScale
}

// Confidence discounts ratings backed by few votes
func Confidence(voteCount int64) float64 {
	if voteCount <= 0 {
		return 0
	}
	return math.Min(float64(voteCount)/confidentVotes, 1.0)
}

// Score computes the final score and its weighted breakdown for one candidate
func Score(rec *types.RankedRecommendation) (float64, map[string]float64) {
	breakdown := map[string]float64{
		types.BreakdownSimilarity: SimilarityWeight * rec.SimilarityScore,
		types.BreakdownPopularity: PopularityWeight * PopularityBoost(rec.Popularity),
		types.BreakdownRating:     RatingWeight * RatingBoost(rec.VoteAverage),
		types.BreakdownConfidence: ConfidenceWeight * Confidence(rec.VoteCount),
	}

	final := breakdown[types.BreakdownSimilarity] +
		breakdown[types.BreakdownPopularity] +
		breakdown[types.BreakdownRating] +
		breakdown[types.BreakdownConfidence]
	return final, breakdown
}

// Rerank scores every candidate and returns them sorted by final score,
// descending. Ties keep their input order. The input slice is not modified.
func Rerank(candidates []types.RankedRecommendation) []types.RankedRecommendation {
	out := make([]types.RankedRecommendation, len(candidates))
	copy(out, candidates)

	for i := range out {
		out[i].FinalScore, out[i].ScoreBreakdown = Score(&out[i])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalScore > out[j].FinalScore
	})
	return out
}
