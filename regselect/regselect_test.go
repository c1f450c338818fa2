package regselect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tuneFixture() ([][]float32, [][][]int64, [][]int64) {
	scores := [][]float32{
		{0.9, 0.7, 0.3, 0.1},
		{0.8, 0.6, 0.4, 0.2},
		{0.95, 0.8, 0.5, 0.05},
		{0.85, 0.65, 0.35, 0.15},
	}
	preds := [][][]int64{
		{{1}, {1, 2}, {1, 2, 3}, {1, 2, 3, 4}},
		{{10}, {10, 11}, {10, 11, 12}, {10, 11, 12, 13}},
		{{20}, {20, 21}, {20, 21, 22}, {20, 21, 22, 23}},
		{{30}, {30, 31}, {30, 31, 32}, {30, 31, 32, 33}},
	}
	gt := [][]int64{{1, 2}, {10, 11}, {20, 21}, {30, 31}}
	return scores, preds, gt
}

func TestSelect_PicksACandidateWithinGrid(t *testing.T) {
	scores, preds, gt := tuneFixture()
	result, err := Select(0.4, 1, 4, scores, preds, gt)
	require.NoError(t, err)

	found := false
	for _, g := range Grid {
		if g == result.LambdaReg {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSelect_DegenerateWhenAlphaUnachievable(t *testing.T) {
	scores, preds, gt := tuneFixture()
	_, err := Select(0, 1, 4, scores, preds, gt)
	assert.Error(t, err)
}
