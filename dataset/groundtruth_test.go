package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/soniahorchidan/conann/distance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroundTruth_IsEmptyAndLen(t *testing.T) {
	gt := &GroundTruth{Labels: [][]int64{{1, 2}, {}, {3}}}
	assert.Equal(t, 3, gt.Len())
	assert.False(t, gt.IsEmpty(0))
	assert.True(t, gt.IsEmpty(1))
	assert.False(t, gt.IsEmpty(2))
}

func TestGenerateKs_StaysWithinBoundsAndIsReproducible(t *testing.T) {
	ks1 := GenerateKs(50, 5, 10, 42)
	ks2 := GenerateKs(50, 5, 10, 42)
	assert.Equal(t, ks1, ks2)
	for _, k := range ks1 {
		assert.GreaterOrEqual(t, k, 5)
		assert.LessOrEqual(t, k, 10)
	}
}

func TestGenerateKs_DifferentSeedsDiffer(t *testing.T) {
	ks1 := GenerateKs(200, 1, 100, 1)
	ks2 := GenerateKs(200, 1, 100, 2)
	assert.NotEqual(t, ks1, ks2)
}

func TestBuildVariableK_FindsExactNearestNeighbors(t *testing.T) {
	db := [][]float32{{0, 0}, {10, 10}, {1, 0}, {0, 1}}
	queries := [][]float32{{0, 0}}
	ks := []int{2}

	gt, err := BuildVariableK(context.Background(), db, nil, queries, 2, distance.MetricL2, ks)
	require.NoError(t, err)
	require.Len(t, gt.Labels, 1)
	assert.Len(t, gt.Labels[0], 2)
	assert.Contains(t, gt.Labels[0], int64(0))
}

func TestBuildVariableK_MismatchedLengthsError(t *testing.T) {
	db := [][]float32{{0, 0}}
	queries := [][]float32{{0, 0}, {1, 1}}
	_, err := BuildVariableK(context.Background(), db, nil, queries, 2, distance.MetricL2, []int{1})
	assert.Error(t, err)
}

func TestVariableKLabelsCache_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variable-k-labels-1-5.txt")
	gt := &GroundTruth{Labels: [][]int64{{1, 2, 3}, {4}, {5, 6}}}

	require.NoError(t, WriteVariableKLabels(path, gt))

	got, err := ReadVariableKLabels(path)
	require.NoError(t, err)
	assert.Equal(t, gt.Labels, got.Labels)
}

func TestVariableKLabelsCache_EmptyRowReadsBackAsNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variable-k-labels-empty.txt")
	gt := &GroundTruth{Labels: [][]int64{{1}, {}}}
	require.NoError(t, WriteVariableKLabels(path, gt))

	got, err := ReadVariableKLabels(path)
	require.NoError(t, err)
	require.Len(t, got.Labels, 2)
	assert.Nil(t, got.Labels[1])
}

func TestReadVariableKLabels_MissingFileIsNilNotError(t *testing.T) {
	got, err := ReadVariableKLabels(filepath.Join(t.TempDir(), "missing.txt"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReadVariableKLabels_RejectsMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("1 2 notanumber\n"), 0o644))

	_, err := ReadVariableKLabels(path)
	assert.Error(t, err)
}
