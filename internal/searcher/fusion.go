package searcher

import (
	"sort"

	"github.com/dshills/moviematch/pkg/types"
)

// Result limits
const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// ClampLimit maps a requested result count into [1, MaxLimit].
// Non-positive values select DefaultLimit.
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// NormalizeScores min-max scales scores into [0,1]. A constant vector
// (including an empty one) normalizes to all zeros.
func NormalizeScores(scores types.ScoreVector) types.ScoreVector {
	out := make(types.ScoreVector, len(scores))
	if len(scores) == 0 {
		return out
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = min(lo, s)
		hi = max(hi, s)
	}
	span := hi - lo
	if span == 0 {
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / span
	}
	return out
}

// Fuse normalizes each signal and sums them by the profile's weights.
// Signals absent from the map contribute nothing; length is taken from
// the first vector present.
func Fuse(signals map[types.Signal]types.ScoreVector, weights types.WeightProfile) types.ScoreVector {
	var n int
	for _, v := range signals {
		n = len(v)
		break
	}

	fused := make(types.ScoreVector, n)
	for _, sig := range types.AllSignals {
		v, ok := signals[sig]
		if !ok {
			continue
		}
		w := weights.For(sig)
		for i, s := range NormalizeScores(v) {
			fused[i] += w * s
		}
	}
	return fused
}

// TopN returns the rows of the n highest scores, best first. Equal
// scores keep row order.
func TopN(scores types.ScoreVector, n int) []int {
	rows := make([]int, len(scores))
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return scores[rows[i]] > scores[rows[j]]
	})
	if n < len(rows) {
		rows = rows[:n]
	}
	return rows
}
