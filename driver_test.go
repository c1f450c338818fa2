package conann

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/soniahorchidan/conann/distance"
	"github.com/soniahorchidan/conann/ivf"
	"github.com/soniahorchidan/conann/scorematrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scoreEverything runs a ScoreMatrixBuilder pass directly, independent of
// Driver's cache/logging wiring, for tests that need a raw (scores, preds)
// pair to feed into EvaluateTest.
func scoreEverything(t *testing.T, idx *ivf.FlatIndex, queries [][]float32) (scorematrix.Matrix, scorematrix.Preds, error) {
	t.Helper()
	builder := scorematrix.Builder{Quantizer: idx, Scanner: idx, NumLists: 2, K: 1, MaxDistance: 1000}
	return builder.Build(context.Background(), queries)
}

// twoClusterFixture builds a 12-point, 2-cluster flat index plus queries
// that are the dataset points themselves, so each query's true nearest
// neighbor is itself at distance 0.
func twoClusterFixture(t *testing.T) (*ivf.FlatIndex, [][]float32, [][]int64) {
	t.Helper()
	vectors := []float32{
		0, 0, 0, 1, 1, 0, 1, 1, 0.5, 0.5, 0.2, 0.8,
		10, 10, 10, 11, 11, 10, 11, 11, 10.5, 10.5, 10.2, 10.8,
	}
	ids := make([]int64, 12)
	for i := range ids {
		ids[i] = int64(i)
	}

	idx, err := ivf.BuildFlatIndex(context.Background(), vectors, ids, 2, 2, distance.MetricL2, 50)
	require.NoError(t, err)

	queries := make([][]float32, 12)
	groundTruth := make([][]int64, 12)
	for i := range ids {
		queries[i] = vectors[i*2 : i*2+2]
		groundTruth[i] = []int64{ids[i]}
	}
	return idx, queries, groundTruth
}

func TestDriver_CalibrateAndSearch(t *testing.T) {
	idx, queries, groundTruth := twoClusterFixture(t)
	driver := New(idx, idx, 2)

	result, report, err := driver.Calibrate(context.Background(), CalibrateParams{
		Alpha:       0.2,
		KSpec:       FixedK(1),
		CalibFrac:   0.4,
		TuneFrac:    0.3,
		Queries:     queries,
		GroundTruth: groundTruth,
		MaxDistance: 1000,
		Dataset:     "twocluster",
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Lamhat, 0.0)
	assert.LessOrEqual(t, result.Lamhat, 1.0)
	assert.Equal(t, 1, result.KReg)
	assert.NotEmpty(t, report.RunID)
	assert.GreaterOrEqual(t, report.ComputeScores, time.Duration(0))

	res, err := driver.Search(context.Background(), queries[0], 1, 1000, result)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.ProbesUsed, 1)
	if len(res.IDs) > 0 {
		assert.Equal(t, int64(0), res.IDs[0])
	}
}

func TestDriver_CalibrateRejectsInvalidAlpha(t *testing.T) {
	idx, queries, groundTruth := twoClusterFixture(t)
	driver := New(idx, idx, 2)

	_, _, err := driver.Calibrate(context.Background(), CalibrateParams{
		Alpha:       0,
		KSpec:       FixedK(1),
		CalibFrac:   0.4,
		TuneFrac:    0.3,
		Queries:     queries,
		GroundTruth: groundTruth,
		MaxDistance: 1000,
		Dataset:     "twocluster",
	})
	assert.ErrorIs(t, err, ErrInvalidAlpha)
}

func TestDriver_CalibrateRejectsTooFewQueries(t *testing.T) {
	idx, queries, groundTruth := twoClusterFixture(t)
	driver := New(idx, idx, 2)

	_, _, err := driver.Calibrate(context.Background(), CalibrateParams{
		Alpha:       0.2,
		KSpec:       FixedK(1),
		CalibFrac:   0.4,
		TuneFrac:    0.3,
		Queries:     queries[:2],
		GroundTruth: groundTruth[:2],
		MaxDistance: 1000,
		Dataset:     "twocluster",
	})
	assert.ErrorIs(t, err, ErrTooFewQueries)
}

func TestDriver_EvaluateTest(t *testing.T) {
	idx, queries, groundTruth := twoClusterFixture(t)
	driver := New(idx, idx, 2)

	result, _, err := driver.Calibrate(context.Background(), CalibrateParams{
		Alpha:       0.2,
		KSpec:       FixedK(1),
		CalibFrac:   0.4,
		TuneFrac:    0.3,
		Queries:     queries,
		GroundTruth: groundTruth,
		MaxDistance: 1000,
		Dataset:     "twocluster",
	})
	require.NoError(t, err)

	rawScores, preds, err := scoreEverything(t, idx, queries)
	require.NoError(t, err)

	evalResult := driver.EvaluateTest(rawScores, preds, groundTruth, result)
	assert.GreaterOrEqual(t, evalResult.MeanMissRate, 0.0)
	assert.LessOrEqual(t, evalResult.MeanMissRate, 1.0)
	assert.Len(t, evalResult.PerQuery, len(queries))
}

// fakeCache is an in-memory cache.Cache used to verify Calibrate's
// cache-hit path without touching the filesystem.
type fakeCache struct {
	mu     sync.Mutex
	scores map[string][][]float32
	preds  map[string][][][]int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{scores: map[string][][]float32{}, preds: map[string][][][]int64{}}
}

func (c *fakeCache) WriteScores(key string, data [][]float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scores[key] = data
	return nil
}

func (c *fakeCache) ReadScores(key string) ([][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scores[key], nil
}

func (c *fakeCache) WritePreds(key string, data [][][]int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preds[key] = data
	return nil
}

func (c *fakeCache) ReadPreds(key string) ([][][]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preds[key], nil
}

func (c *fakeCache) Exists(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.scores[key]; ok {
		return true
	}
	_, ok := c.preds[key]
	return ok
}

func TestDriver_CalibrateUsesCacheOnSecondRun(t *testing.T) {
	idx, queries, groundTruth := twoClusterFixture(t)
	fc := newFakeCache()
	metrics := &BasicMetricsCollector{}
	driver := New(idx, idx, 2, WithCacheBackend(fc), WithMetrics(metrics))

	params := CalibrateParams{
		Alpha:       0.2,
		KSpec:       FixedK(1),
		CalibFrac:   0.4,
		TuneFrac:    0.3,
		Queries:     queries,
		GroundTruth: groundTruth,
		MaxDistance: 1000,
		Dataset:     "twocluster",
	}

	_, _, err := driver.Calibrate(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int64(0), metrics.CacheHits.Load())

	_, _, err = driver.Calibrate(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics.CacheHits.Load())
}

func TestDriver_CalibrateIsDeterministic(t *testing.T) {
	idx, queries, groundTruth := twoClusterFixture(t)
	driver := New(idx, idx, 2)

	params := CalibrateParams{
		Alpha:       0.2,
		KSpec:       FixedK(1),
		CalibFrac:   0.4,
		TuneFrac:    0.3,
		Queries:     queries,
		GroundTruth: groundTruth,
		MaxDistance: 1000,
		Dataset:     "twocluster",
	}

	first, _, err := driver.Calibrate(context.Background(), params)
	require.NoError(t, err)
	second, _, err := driver.Calibrate(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestKSFromSpec_Variable(t *testing.T) {
	groundTruth := [][]int64{{1, 2, 3}, {4, 5}, {6}}
	k, ks := ksFromSpec(VariableK(1, 3), groundTruth)
	assert.Equal(t, 0, k)
	assert.Equal(t, []int{3, 2, 1}, ks)
}

func TestKSFromSpec_Fixed(t *testing.T) {
	k, ks := ksFromSpec(FixedK(7), nil)
	assert.Equal(t, 7, k)
	assert.Nil(t, ks)
}
