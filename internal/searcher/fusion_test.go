package searcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/moviematch/internal/classifier"
	"github.com/dshills/moviematch/pkg/types"
)

func TestNormalizeScores(t *testing.T) {
	tests := []struct {
		name  string
		input types.ScoreVector
		want  types.ScoreVector
	}{
		{name: "spread", input: types.ScoreVector{2, 4, 6}, want: types.ScoreVector{0, 0.5, 1}},
		{name: "negative values", input: types.ScoreVector{-1, 0, 1}, want: types.ScoreVector{0, 0.5, 1}},
		{name: "constant", input: types.ScoreVector{3, 3, 3}, want: types.ScoreVector{0, 0, 0}},
		{name: "all zero", input: types.ScoreVector{0, 0}, want: types.ScoreVector{0, 0}},
		{name: "single", input: types.ScoreVector{7}, want: types.ScoreVector{0}},
		{name: "empty", input: types.ScoreVector{}, want: types.ScoreVector{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeScores(tt.input)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
			for _, v := range got {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		})
	}
}

func TestNormalizeScores_DoesNotModifyInput(t *testing.T) {
	in := types.ScoreVector{1, 2}
	_ = NormalizeScores(in)
	assert.Equal(t, types.ScoreVector{1, 2}, in)
}

func TestFuse(t *testing.T) {
	signals := map[types.Signal]types.ScoreVector{
		types.SignalTFIDF:    {0, 1, 0.5},
		types.SignalBM25:     {10, 0, 5},
		types.SignalSemantic: {0.2, 0.2, 0.2}, // constant, contributes zero
	}
	w := types.WeightProfile{TFIDF: 0.5, BM25: 0.3, Semantic: 0.2}

	got := Fuse(signals, w)
	assert.InDeltaSlice(t, []float64{0.3, 0.5, 0.4}, got, 1e-12)
}

func TestFuse_StaysInUnitRange(t *testing.T) {
	signals := map[types.Signal]types.ScoreVector{
		types.SignalTFIDF:    {0, 0.3, 0.9, 0.1},
		types.SignalBM25:     {4, 2, 8, 0},
		types.SignalSemantic: {-0.2, 0.6, 0.1, 0.9},
	}
	for _, qt := range classifier.QueryTypes() {
		for _, v := range Fuse(signals, classifier.Weights(qt)) {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0+1e-9)
			assert.False(t, math.IsNaN(v))
		}
	}
}

func TestTopN(t *testing.T) {
	scores := types.ScoreVector{0.2, 0.9, 0.2, 0.5, 0.9}

	assert.Equal(t, []int{1, 4, 3}, TopN(scores, 3))
	// ties keep row order
	assert.Equal(t, []int{1, 4, 3, 0, 2}, TopN(scores, 10))
	assert.Empty(t, TopN(types.ScoreVector{}, 5))
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{in: 0, want: DefaultLimit},
		{in: -3, want: DefaultLimit},
		{in: 1, want: 1},
		{in: 50, want: 50},
		{in: 51, want: MaxLimit},
		{in: 1000, want: MaxLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampLimit(tt.in), "limit %d", tt.in)
	}
}
